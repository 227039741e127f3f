package summarize

import (
	"context"
	"regexp"
	"strings"
)

const maxLeadSentenceLen = 200

var (
	sentenceSplitRegex = regexp.MustCompile(`([.!?…]+)\s+`)
	leadNumberRegex    = regexp.MustCompile(`\b\d{1,4}([:/.-]\d{1,2})?\b`)
	leadCapsRegex      = regexp.MustCompile(`\b[A-Z][\p{L}]+\s+[A-Z][\p{L}]+\b`)
)

// leadSentenceModel is the offline fallback: it picks the most informative
// sentence of the review as its summary. Deterministic, no network.
type leadSentenceModel struct{}

func NewLeadSentenceModel() Model {
	return leadSentenceModel{}
}

func (leadSentenceModel) Summarize(_ context.Context, text, _ string) (string, error) {
	return selectLeadSentence(text), nil
}

func selectLeadSentence(text string) string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return ""
	}

	best := ""
	bestScore := -1

	for _, sentence := range splitSentences(clean) {
		s := strings.TrimSpace(sentence)
		if s == "" || len([]rune(s)) > maxLeadSentenceLen {
			continue
		}

		score := scoreLeadSentence(s)
		if score > bestScore || (score == bestScore && len([]rune(s)) > len([]rune(best))) {
			best = s
			bestScore = score
		}
	}

	return best
}

func scoreLeadSentence(sentence string) int {
	score := 0

	if leadNumberRegex.MatchString(sentence) {
		score += 2
	}

	if leadCapsRegex.MatchString(sentence) {
		score += 2
	}

	return score
}

func splitSentences(text string) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}

	indexed := sentenceSplitRegex.Split(clean, -1)

	sentences := make([]string, 0, len(indexed))

	for _, s := range indexed {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}
