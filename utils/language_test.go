package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"nothing", nil, "en"},
		{"explicit french", []string{"fr"}, "fr"},
		{"upper case", []string{"NL"}, "nl"},
		{"regional variant", []string{"nl-BE"}, "nl"},
		{"unsupported falls back", []string{"de"}, "en"},
		{"accept language header", []string{"", "de-DE,fr;q=0.8,en;q=0.5"}, "fr"},
		{"explicit beats header", []string{"nl", "fr-BE"}, "nl"},
		{"garbage", []string{"!!"}, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLanguage(tt.candidates...))
		})
	}
}
