package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// stubProvider scripts the three model operations for retrieval tests.
type stubProvider struct {
	mu         sync.Mutex
	embedFn    func(texts []string) ([][]float32, error)
	completeFn func(system, user string) (string, error)
	prompts    []string
	embedCalls int
}

func (s *stubProvider) Complete(_ context.Context, system, user string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, user)
	s.mu.Unlock()
	if s.completeFn != nil {
		return s.completeFn(system, user)
	}
	return "ok", nil
}

func (s *stubProvider) CompleteVision(context.Context, string, []byte) (string, error) {
	return "", errors.New("not used")
}

func (s *stubProvider) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.embedCalls++
	s.mu.Unlock()
	if s.embedFn != nil {
		return s.embedFn(texts)
	}
	return nil, errors.New("not scripted")
}

func TestEmbedReturnsProviderVector(t *testing.T) {
	p := &stubProvider{embedFn: func(texts []string) ([][]float32, error) {
		return [][]float32{{0.5, 0.5, 0.5}}, nil
	}}
	e := NewEmbedder(p, nil, "test-model", 3, 0)

	vec := e.Embed(context.Background(), "hello")
	if len(vec) != 3 || vec[0] != 0.5 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if IsZeroVector(vec) {
		t.Fatalf("real vector misreported as zero")
	}
}

func TestEmbedFailureYieldsZeroVector(t *testing.T) {
	p := &stubProvider{embedFn: func([]string) ([][]float32, error) {
		return nil, errors.New("quota exceeded")
	}}
	e := NewEmbedder(p, nil, "test-model", 4, 0)

	vec := e.Embed(context.Background(), "hello")
	if len(vec) != 4 {
		t.Fatalf("zero vector must keep the configured dimension, got %d", len(vec))
	}
	if !IsZeroVector(vec) {
		t.Fatalf("expected zero vector, got %v", vec)
	}
}

func TestIsZeroVector(t *testing.T) {
	if !IsZeroVector(make([]float32, 5)) {
		t.Fatalf("all-zero slice must report zero")
	}
	if IsZeroVector([]float32{0, 0, 0.001}) {
		t.Fatalf("non-zero component must report non-zero")
	}
	if !IsZeroVector(nil) {
		t.Fatalf("nil vector counts as zero")
	}
}
