package mapfile

import (
	"testing"

	"github.com/yehan2002/is/v2"
)

func TestLabel(t *testing.T) { is.SuiteP(t, &labelTest{}) }

type labelTest struct{}

func (*labelTest) TestExtractLanguage(is is.Is) {
	const names = "Base\ren\bEnglish\rde\bDeutsch\rzh\bChinese\rzh-Hant\bTraditional"

	tests := []struct {
		lang, expected string
	}{
		{"", "Base"},
		{"en", "English"},
		{"EN", "English"},
		{"de", "Deutsch"},
		{"zh-Hant", "Traditional"},
		{"zh_hant", "Chinese"},
		{"zh-Hans", "Chinese"},
		{"zh", "Chinese"},
		{"en-GB", "English"},
		{"fr", "Base"},
		{"fr-CA", "Base"},
	}

	for _, tt := range tests {
		is.Equal(ExtractLanguage(names, tt.lang), tt.expected, "incorrect name for %q", tt.lang)
	}
}

func (*labelTest) TestFallbackOrder(is is.Is) {
	// an exact match later in the string wins over an earlier fallback
	is.Equal(ExtractLanguage("Base\rpt\bPortuguese\rpt-BR\bBrazilian", "pt-BR"), "Brazilian", "exact match should be preferred")
	// the first fallback is used
	is.Equal(ExtractLanguage("Base\rsr\bSerbian\rsr\bSecond", "sr-Latn"), "Serbian", "first fallback should be used")
	// fallback codes with a region are ignored
	is.Equal(ExtractLanguage("Base\rpt-PT\bPortugal", "pt-BR"), "Base", "codes with a region are not a fallback")
}

func (*labelTest) TestPlain(is is.Is) {
	is.Equal(ExtractLanguage("Plain", "en"), "Plain", "strings without languages are returned unchanged")
	is.Equal(ExtractLanguage("", "en"), "", "empty strings are returned unchanged")
	is.Equal(ExtractLanguage("\ren\bEnglish", ""), "", "the base may be empty")
	is.Equal(ExtractLanguage("Base\rbroken", "en"), "Base", "groups without a name are ignored")
}
