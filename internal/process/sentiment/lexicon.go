package sentiment

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// lexiconModel is the offline fallback used when no API key is configured.
// It counts polarity words and produces a normalized score distribution, so
// local runs and tests behave deterministically.
type lexiconModel struct {
	logger *zerolog.Logger
}

func NewLexiconModel(logger *zerolog.Logger) Model {
	logger.Warn().Msg("no model API key configured, using lexicon sentiment model")

	return &lexiconModel{logger: logger}
}

var positiveLexicon = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "amazing": {}, "wonderful": {},
	"perfect": {}, "love": {}, "loved": {}, "best": {}, "fantastic": {},
	"friendly": {}, "delicious": {}, "clean": {}, "recommend": {},
	"bueno": {}, "excelente": {}, "perfecto": {}, "encanta": {}, "rico": {},
	"bon": {}, "excellente": {}, "parfait": {}, "magnifique": {}, "adore": {},
}

var negativeLexicon = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "horrible": {}, "worst": {},
	"dirty": {}, "rude": {}, "slow": {}, "cold": {}, "disappointing": {},
	"hate": {}, "hated": {}, "broken": {}, "never": {},
	"malo": {}, "sucio": {}, "pesimo": {}, "lento": {},
	"mauvais": {}, "sale": {}, "horreur": {}, "froid": {},
}

func (m *lexiconModel) Classify(_ context.Context, text string) (map[string]float64, error) {
	var positive, negative float64

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")

		if _, ok := positiveLexicon[word]; ok {
			positive++
		}

		if _, ok := negativeLexicon[word]; ok {
			negative++
		}
	}

	if positive == 0 && negative == 0 {
		return map[string]float64{"pos": 0.1, "neg": 0.1, "neu": 0.8}, nil
	}

	// One third of the mass stays neutral so single-word signals never
	// claim full confidence.
	total := (positive + negative) * 1.5

	return map[string]float64{
		"pos": positive / total,
		"neg": negative / total,
		"neu": (total - positive - negative) / total,
	}, nil
}
