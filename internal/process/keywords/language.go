package keywords

import "strings"

// Stop-word lists for the supported review languages. Detection counts hits
// per language; the biggest count wins and English is the default.
var stopWords = map[string]map[string]struct{}{
	"en": wordSet("the", "and", "was", "were", "is", "are", "very", "with",
		"this", "that", "for", "had", "have", "not", "but", "our", "they",
		"you", "would", "from", "there", "what", "when", "which"),
	"es": wordSet("el", "la", "los", "las", "es", "era", "muy", "con", "que",
		"por", "para", "una", "uno", "pero", "nos", "del", "este", "esta",
		"como", "más", "nos", "fue", "estaba", "tiene"),
	"fr": wordSet("le", "la", "les", "est", "était", "très", "avec", "que",
		"pour", "une", "des", "mais", "nous", "dans", "cette", "sont",
		"vous", "tout", "bien", "été", "nos", "aux", "sur"),
}

// detectionPriority breaks ties deterministically.
var detectionPriority = []string{"es", "fr", "en"}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	return set
}

// DetectLanguage guesses the review language from stop-word frequency.
// Unknown or empty text falls back to English.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return "en"
	}

	counts := map[string]int{}

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")

		for lang, set := range stopWords {
			if _, ok := set[word]; ok {
				counts[lang]++
			}
		}
	}

	best := "en"
	bestCount := 0

	for _, lang := range detectionPriority {
		if counts[lang] > bestCount {
			best = lang
			bestCount = counts[lang]
		}
	}

	return best
}
