package embeddings

import (
	"context"
	"hash/fnv"
)

// LCG constants for deterministic pseudo-random generation.
const (
	lcgMultiplier = 6364136223846793005
	lcgIncrement  = 1442695040888963407

	seedShift  = 33
	floatScale = 0x40000000
)

// MockClient generates deterministic embeddings from a text hash, so the same
// input always yields the same vector across runs.
type MockClient struct {
	dimensions int
}

func NewMockClient() *MockClient {
	return &MockClient{dimensions: DefaultDimensions}
}

func NewMockClientWithDimensions(dims int) *MockClient {
	return &MockClient{dimensions: dims}
}

func (c *MockClient) GetEmbedding(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text)) // fnv.Write never returns an error
	seed := h.Sum64()

	vec := make([]float32, c.dimensions)
	for i := range vec {
		seed = seed*lcgMultiplier + lcgIncrement
		//nolint:gosec // intentional uint64->int64 conversion for pseudo-random generation
		vec[i] = float32(int64(seed>>seedShift)-floatScale) / float32(floatScale)
	}

	return normalizeVector(vec), nil
}

func (c *MockClient) Dimensions() int {
	return c.dimensions
}
