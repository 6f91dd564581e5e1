package embedding

import (
	"context"
	"math"
)

// Embedder is the provider-agnostic interface the store depends on.
// taskType lets callers distinguish a query embedding from a document
// embedding; providers that support asymmetric encodings (GenAI) use it,
// others ignore it.
type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	HealthCheck(ctx context.Context) error
	Dimensions() int
}

// taskAwareEngine is implemented by engines that honor an explicit task
// type per call (currently GenAIEngine). Engines that don't implement it
// fall back to their single configured behavior regardless of taskType.
type taskAwareEngine interface {
	EmbedWithTask(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedBatchWithTask(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// engineEmbedder adapts an EmbeddingEngine to Embedder, normalising every
// returned vector to unit length before it reaches the index.
type engineEmbedder struct {
	engine EmbeddingEngine
}

// NewEmbedder wraps an EmbeddingEngine (Ollama- or GenAI-backed) as an
// Embedder.
func NewEmbedder(engine EmbeddingEngine) Embedder {
	return &engineEmbedder{engine: engine}
}

func (e *engineEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var (
		vec []float32
		err error
	)
	if aware, ok := e.engine.(taskAwareEngine); ok {
		vec, err = aware.EmbedWithTask(ctx, text, taskType)
	} else {
		vec, err = e.engine.Embed(ctx, text)
	}
	if err != nil {
		return nil, err
	}
	return normalize(vec), nil
}

func (e *engineEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	var (
		vecs [][]float32
		err  error
	)
	if aware, ok := e.engine.(taskAwareEngine); ok {
		vecs, err = aware.EmbedBatchWithTask(ctx, texts, taskType)
	} else {
		vecs, err = e.engine.EmbedBatch(ctx, texts)
	}
	if err != nil {
		return nil, err
	}
	for i, v := range vecs {
		vecs[i] = normalize(v)
	}
	return vecs, nil
}

func (e *engineEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.engine.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (e *engineEmbedder) Dimensions() int {
	return e.engine.Dimensions()
}

// normalize scales v to unit length. A zero vector is returned unchanged
// since it has no direction to normalise to.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
