package async

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/engine/ratectl"
	"github.com/Arjun3125/doctrine-ingest/pkg/llm"
)

// Embedding Worker tunables (§4.H, §5).
const (
	EmbedBatchSize  = 64
	FlushDeadline   = 2 * time.Second
	BatchRetryCap   = 5
	EmbedCallTimeout = 60 * time.Second
)

// EmbedWorker batches Chunks off chunk_queue and fills in their
// embeddings under the rate controller, pushing enriched Chunks onto
// vector_queue (§4.G, §4.H).
type EmbedWorker struct {
	Service llm.Service
	Model   string
	RateCtl *ratectl.Controller
	Metrics *Metrics
	Logger  *slog.Logger
}

// NewEmbedWorker builds an EmbedWorker.
func NewEmbedWorker(svc llm.Service, model string, rc *ratectl.Controller, metrics *Metrics, logger *slog.Logger) *EmbedWorker {
	if metrics == nil {
		metrics = &Metrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbedWorker{Service: svc, Model: model, RateCtl: rc, Metrics: metrics, Logger: logger}
}

// Run drains in, batching up to EmbedBatchSize chunks or until
// FlushDeadline elapses, embeds each batch, and pushes the result to out.
// On receiving the nil sentinel from in, Run flushes any partial batch and
// returns; it does not forward a sentinel to out itself (see Orchestrator.Run).
func (w *EmbedWorker) Run(ctx context.Context, in, out Queue[domain.Chunk]) error {
	var batch []domain.Chunk
	deadline := time.NewTimer(FlushDeadline)
	defer deadline.Stop()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		embedded := w.embedBatch(ctx, batch)
		for i := range embedded {
			c := embedded[i]
			if err := out.Push(ctx, &c); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	for {
		item, err := in.Pop(ctx)
		if err != nil {
			return err
		}
		if item == nil { // sentinel: this worker is done, but only the
			// orchestrator forwards the single downstream sentinel once
			// every worker has exited (§4.G step 5) — forwarding it here
			// per-worker would let N sentinels race ahead of other
			// workers' still-in-flight chunks.
			return flush()
		}

		batch = append(batch, *item)
		if len(batch) >= EmbedBatchSize {
			if err := flush(); err != nil {
				return err
			}
			deadline.Reset(FlushDeadline)
			continue
		}

		select {
		case <-deadline.C:
			if err := flush(); err != nil {
				return err
			}
			deadline.Reset(FlushDeadline)
		default:
		}
	}
}

// embedBatch acquires a rate-controller permit, calls the embedding
// endpoint once for the whole batch, and retries transient failures with
// exponential backoff up to BatchRetryCap times. On rate-limit
// responses it records the hit and retries in place (modeling "re-queue
// at head" without needing a deque-capable queue). On persistent failure
// it emits the chunks with a nil Embedding (not an all-zero vector of the
// model's dimension) and increments the error counter.
// Every attempt evaluates the controller's adaptive policies (§4.F
// "Policies evaluated periodically"), so concurrency actually widens or
// narrows over the course of a real ingest run rather than only in tests.
func (w *EmbedWorker) embedBatch(ctx context.Context, batch []domain.Chunk) []domain.Chunk {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	var vectors [][]float32
	var lastErr error

	for attempt := 0; attempt <= BatchRetryCap; attempt++ {
		release, err := w.RateCtl.Acquire(ctx)
		if err != nil {
			lastErr = err
			break
		}

		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, EmbedCallTimeout)
		vectors, err = w.Service.Embed(callCtx, w.Model, texts)
		cancel()
		release()
		w.RateCtl.RecordLatency(time.Since(start))

		if err == nil {
			lastErr = nil
			w.RateCtl.Adjust()
			break
		}
		lastErr = err

		if errors.Is(err, llm.ErrRateLimited) {
			w.RateCtl.RecordRateLimitHit()
			w.Metrics.incRateLimitHit()
		}
		w.RateCtl.Adjust()

		if attempt < BatchRetryCap {
			select {
			case <-time.After(ratectl.Backoff(attempt)):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = BatchRetryCap + 1
			}
		}
	}

	if lastErr != nil || len(vectors) != len(batch) {
		w.Logger.Warn("embed: batch failed persistently, using zero-vector fallback",
			"batch_size", len(batch), "err", lastErr)
		w.Metrics.incError()
		w.Metrics.incZeroVectors(int64(len(batch)))
		for i := range batch {
			batch[i].Embedding = nil
		}
		return batch
	}

	for i := range batch {
		batch[i].Embedding = vectors[i]
	}
	w.Metrics.incEmbedded(int64(len(batch)))
	return batch
}
