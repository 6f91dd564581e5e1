package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

type fakeEngine struct {
	vec       []float32
	err       error
	dim       int
	healthErr error
}

func (f *fakeEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]float32(nil), f.vec...), nil
}

func (f *fakeEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEngine) Dimensions() int { return f.dim }
func (f *fakeEngine) Name() string    { return "fake" }

func (f *fakeEngine) HealthCheck(ctx context.Context) error { return f.healthErr }

func TestEmbedderNormalizesToUnitLength(t *testing.T) {
	engine := &fakeEngine{vec: []float32{3, 4}, dim: 2}
	e := NewEmbedder(engine)

	vec, err := e.Embed(context.Background(), "hello", TaskRetrievalDocument)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	var sumSq float64
	for _, x := range vec {
		sumSq += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sumSq)-1.0) > 1e-6 {
		t.Fatalf("expected unit length vector, got norm=%v", math.Sqrt(sumSq))
	}
}

func TestEmbedderZeroVectorUnchanged(t *testing.T) {
	engine := &fakeEngine{vec: []float32{0, 0, 0}, dim: 3}
	e := NewEmbedder(engine)

	vec, err := e.Embed(context.Background(), "hello", TaskRetrievalQuery)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for _, x := range vec {
		if x != 0 {
			t.Fatalf("expected zero vector unchanged, got %v", vec)
		}
	}
}

func TestEmbedderPropagatesError(t *testing.T) {
	engine := &fakeEngine{err: errors.New("boom"), dim: 2}
	e := NewEmbedder(engine)

	if _, err := e.Embed(context.Background(), "hello", ""); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestEmbedderHealthCheck(t *testing.T) {
	engine := &fakeEngine{dim: 2, healthErr: errors.New("down")}
	e := NewEmbedder(engine)

	if err := e.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check error to propagate")
	}
}

func TestEmbedderDimensions(t *testing.T) {
	engine := &fakeEngine{dim: 768}
	e := NewEmbedder(engine)
	if got := e.Dimensions(); got != 768 {
		t.Fatalf("Dimensions()=%d, want 768", got)
	}
}
