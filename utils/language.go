package utils

import (
	"strings"

	"golang.org/x/text/language"
)

const DefaultLanguage = "en"

var languageMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.French,
	language.Dutch,
})

// NormalizeLanguage maps explicit codes or Accept-Language headers onto en, fr
// or nl. Candidates are tried in order; unrecognised input falls back to en.
func NormalizeLanguage(candidates ...string) string {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(candidate)
		if err != nil || len(tags) == 0 {
			continue
		}
		tag, _, confidence := languageMatcher.Match(tags...)
		if confidence == language.No {
			continue
		}
		base, _ := tag.Base()
		return base.String()
	}
	return DefaultLanguage
}
