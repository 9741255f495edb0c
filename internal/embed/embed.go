// Package embed defines the text-to-vector contract the semantic index
// depends on, plus a deterministic, model-free default implementation.
package embed

import (
	"context"
	"math"
)

// Dimensions is the fixed embedding width every Embedder implementation
// must produce.
const Dimensions = 384

// DefaultBatchSize is how many chunk texts the indexer embeds per call
// to EmbedBatch.
const DefaultBatchSize = 32

// Embedder turns text into a fixed-dimension, unit-normalized vector.
// Implementations may block and may be backed by a local model process;
// the semantic index only ever depends on this interface.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Available(ctx context.Context) bool
	Close() error
}

func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / magnitude)
	}
	return out
}
