package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCurrencyEUR formats an amount the way the menu prints prices.
// Example: 7.5 -> "7,50 €", 64 -> "64 €", 1250 -> "1.250 €"
func FormatCurrencyEUR(amount float64) string {
	cents := int64(math.Round(amount * 100))
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	// thousands separator
	digits := strconv.FormatInt(cents/100, 10)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	integerStr := strings.Join(groups, ".")

	if decimal := cents % 100; decimal != 0 {
		return fmt.Sprintf("%s%s,%02d €", sign, integerStr, decimal)
	}
	return fmt.Sprintf("%s%s €", sign, integerStr)
}
