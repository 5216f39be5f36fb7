package arabic

import (
	"unicode"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// Script share thresholds over letters.
const (
	arabicShare = 0.3
	latinShare  = 0.5
)

// DetectLanguage reports the dominant language of text by letter script.
// Arabic is checked first and needs the smaller share.
func (n *Normaliser) DetectLanguage(text string) domain.Language {
	var letters, arabic, latin int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	if letters == 0 {
		return domain.LanguageUnknown
	}
	switch {
	case float64(arabic)/float64(letters) > arabicShare:
		return domain.LanguageArabic
	case float64(latin)/float64(letters) > latinShare:
		return domain.LanguageEnglish
	default:
		return domain.LanguageUnknown
	}
}
