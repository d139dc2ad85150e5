package async

import (
	"context"
	"testing"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/engine/ratectl"
	"github.com/Arjun3125/doctrine-ingest/pkg/llm"
)

func TestEmbedWorker_EmbedsAllChunksAndStopsOnSentinel(t *testing.T) {
	fake := &llm.Fake{
		EmbedFn: func(ctx context.Context, model string, input []string) ([][]float32, error) {
			out := make([][]float32, len(input))
			for i := range input {
				out[i] = []float32{0.1, 0.2}
			}
			return out, nil
		},
	}
	rc := ratectl.NewController(1, 4, 2)
	w := NewEmbedWorker(fake, "embed-model", rc, nil, nil)

	in := NewInProcessQueue[domain.Chunk](8)
	out := NewInProcessQueue[domain.Chunk](8)

	for i := 0; i < 3; i++ {
		c := domain.Chunk{ID: "c", Text: "text"}
		in.Push(context.Background(), &c)
	}
	in.Push(context.Background(), nil)

	if err := w.Run(context.Background(), in, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		item, err := out.Pop(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item == nil || len(item.Embedding) != 2 {
			t.Fatalf("expected populated embedding, got %+v", item)
		}
	}
	// The worker itself never forwards a sentinel downstream — only the
	// orchestrator does, once every worker has exited.
	if out.Len() != 0 {
		t.Fatalf("expected no extra items pushed to out, got %d remaining", out.Len())
	}
}

func TestEmbedWorker_PersistentFailureYieldsZeroVector(t *testing.T) {
	fake := &llm.Fake{
		EmbedFn: func(ctx context.Context, model string, input []string) ([][]float32, error) {
			return nil, errBoom
		},
	}
	rc := ratectl.NewController(1, 4, 2)
	metrics := &Metrics{}
	w := NewEmbedWorker(fake, "embed-model", rc, metrics, nil)

	// A short deadline aborts embedBatch's retry/backoff loop quickly
	// instead of waiting out the full exponential backoff schedule.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	batch := w.embedBatch(ctx, []domain.Chunk{{ID: "c", Text: "text"}})
	if len(batch) != 1 || batch[0].Embedding != nil {
		t.Fatalf("expected a chunk with nil embedding, got %+v", batch)
	}
	snap := metrics.Snapshot()
	if snap.ZeroVectors != 1 || snap.Errors != 1 {
		t.Fatalf("expected 1 zero-vector and 1 error, got %+v", snap)
	}
}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }

var errBoom = boomErr{}
