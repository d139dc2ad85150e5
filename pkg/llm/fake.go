package llm

import (
	"context"
	"sync"
)

// Fake is a deterministic, in-memory Service for tests. GenerateFn/EmbedFn
// may be nil, in which case Generate/Embed return zero values and no error.
type Fake struct {
	mu sync.Mutex

	GenerateFn func(ctx context.Context, req GenerateRequest) (string, error)
	EmbedFn    func(ctx context.Context, model string, input []string) ([][]float32, error)

	GenerateCalls int
	EmbedCalls    int
}

func (f *Fake) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.mu.Lock()
	f.GenerateCalls++
	f.mu.Unlock()
	if f.GenerateFn == nil {
		return "", nil
	}
	return f.GenerateFn(ctx, req)
}

func (f *Fake) Embed(ctx context.Context, model string, input []string) ([][]float32, error) {
	f.mu.Lock()
	f.EmbedCalls++
	f.mu.Unlock()
	if f.EmbedFn == nil {
		out := make([][]float32, len(input))
		return out, nil
	}
	return f.EmbedFn(ctx, model, input)
}

var _ Service = (*Fake)(nil)
