package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

func ratingPtr(v float64) *float64 { return &v }

func TestFingerprintDeterministic(t *testing.T) {
	review := domain.Review{
		Platform: domain.PlatformGoogle,
		Author:   "Maria",
		Text:     "Great stay, lovely staff.",
		Rating:   ratingPtr(5),
	}

	first := Fingerprint(review)
	second := Fingerprint(review)

	require.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := domain.Review{
		Platform: domain.PlatformGoogle,
		Author:   "Maria",
		Text:     "Great stay, lovely staff.",
		Rating:   ratingPtr(5),
	}

	tests := []struct {
		name   string
		mutate func(r *domain.Review)
	}{
		{"different platform", func(r *domain.Review) { r.Platform = domain.PlatformBooking }},
		{"different author", func(r *domain.Review) { r.Author = "Marta" }},
		{"different text", func(r *domain.Review) { r.Text = "Great stay, lovely pool." }},
		{"different rating", func(r *domain.Review) { r.Rating = ratingPtr(4) }},
		{"missing rating", func(r *domain.Review) { r.Rating = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := base
			tt.mutate(&mutated)
			assert.NotEqual(t, Fingerprint(base), Fingerprint(mutated))
		})
	}
}

func TestFingerprintIgnoresSurroundingWhitespace(t *testing.T) {
	a := domain.Review{Platform: domain.PlatformGoogle, Author: "Maria", Text: "Nice pool"}
	b := domain.Review{Platform: domain.PlatformGoogle, Author: " Maria ", Text: "Nice pool\n"}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestReviewID(t *testing.T) {
	hash := Fingerprint(domain.Review{Platform: domain.PlatformTripAdvisor, Text: "ok"})
	id := ReviewID(domain.PlatformTripAdvisor, hash)

	require.True(t, strings.HasPrefix(id, "tripadvisor_"))
	assert.Len(t, id, len("tripadvisor_")+16)
	assert.Equal(t, id, ReviewID(domain.PlatformTripAdvisor, hash))
}

func TestPointID(t *testing.T) {
	a := PointID("google_0123456789abcdef")
	b := PointID("google_0123456789abcdef")
	c := PointID("google_fedcba9876543210")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.GreaterOrEqual(t, a, int64(0))
}
