package structuring

import "strings"

// Indicator words for frequency-based language detection. Function words
// are near-guaranteed to appear in any posting of that language.
var (
	frenchIndicators  = []string{"le", "la", "les", "de", "du", "des", "et", "est", "vous", "notre"}
	englishIndicators = []string{"the", "and", "of", "to", "in", "for", "with", "on", "at", "by"}
)

// DetectLanguage classifies a job posting as French or English by counting
// distinct indicator words. Ties fall back to French, the primary market.
func DetectLanguage(text string) string {
	return DetectLanguageWith(text, nil, nil)
}

// DetectLanguageWith is DetectLanguage with custom indicator word lists.
// Empty lists fall back to the built-in ones.
func DetectLanguageWith(text string, french, english []string) string {
	if len(french) == 0 {
		french = frenchIndicators
	}
	if len(english) == 0 {
		english = englishIndicators
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		words[w] = struct{}{}
	}

	frenchCount := 0
	for _, w := range french {
		if _, ok := words[w]; ok {
			frenchCount++
		}
	}
	englishCount := 0
	for _, w := range english {
		if _, ok := words[w]; ok {
			englishCount++
		}
	}

	if englishCount > frenchCount {
		return "en"
	}
	return "fr"
}
