// Package dedup derives content-addressed identity for reviews.
//
// One canonical fingerprint scheme is used everywhere: the insert path, the
// existence check, and the vector point id all start from Fingerprint. A
// scheme mismatch between paths would silently defeat deduplication.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/reviewradar/review-radar/internal/core/domain"
)

const reviewIDHashLen = 16

// Fingerprint computes the deterministic content hash of a review over its
// stable fields: platform, author, text, and rating. An absent rating hashes
// as an empty field, so adding a rating later produces a new identity.
func Fingerprint(r domain.Review) string {
	rating := ""
	if r.Rating != nil {
		rating = fmt.Sprintf("%.1f", *r.Rating)
	}

	canonical := strings.Join([]string{
		string(r.Platform),
		strings.TrimSpace(r.Author),
		strings.TrimSpace(r.Text),
		rating,
	}, "|")

	sum := sha256.Sum256([]byte(canonical))

	return hex.EncodeToString(sum[:])
}

// ReviewID derives the public review identifier from a platform and content
// hash: "{platform}_{16 hex chars}". Reprocessing identical content yields
// the same id, which keeps vector re-indexing idempotent.
func ReviewID(platform domain.Platform, contentHash string) string {
	if len(contentHash) > reviewIDHashLen {
		contentHash = contentHash[:reviewIDHashLen]
	}

	return fmt.Sprintf("%s_%s", platform, contentHash)
}

// PointID maps a business identifier to the integer point id used by the
// vector index, so re-indexing the same item overwrites in place.
func PointID(id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id)) // fnv.Write never returns an error

	//nolint:gosec // truncation to a positive int64 point id is intentional
	return int64(h.Sum64() & 0x7FFFFFFFFFFFFFFF)
}
