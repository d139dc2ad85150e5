package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

// DB-writer and aggregator tunables (§4.G).
const (
	WriterBatchSize       = 200
	AggregatorFlushSize   = 100
	DefaultShutdownTimeout = 30 * time.Second
)

// WriterFunc persists a batch of embedded chunks to the vector store.
type WriterFunc func(ctx context.Context, batch []domain.Chunk) error

// AggregatorFunc consolidates a per-domain batch into the minister store.
type AggregatorFunc func(ctx context.Context, dom domain.Domain, batch []domain.Chunk) error

// Orchestrator wires the three bounded queues and worker pools described
// in §4.G: N embed workers, one DB-writer task, one aggregator task, all
// drained through the deterministic sentinel-shutdown protocol.
type Orchestrator struct {
	ChunkQueue    Queue[domain.Chunk]
	VectorQueue   Queue[domain.Chunk]
	MinisterQueue Queue[domain.Chunk]

	EmbedWorkerCount int
	Embedder         *EmbedWorker
	Writer           WriterFunc
	Aggregator       AggregatorFunc
	ShutdownTimeout  time.Duration

	Metrics *Metrics
	Logger  *slog.Logger
}

// NewOrchestrator builds an Orchestrator with default-capacity in-process queues.
func NewOrchestrator(embedWorkers int, embedder *EmbedWorker, writer WriterFunc, aggregator AggregatorFunc, logger *slog.Logger) *Orchestrator {
	if embedWorkers <= 0 {
		embedWorkers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		ChunkQueue:       NewInProcessQueue[domain.Chunk](DefaultQueueCapacity),
		VectorQueue:      NewInProcessQueue[domain.Chunk](DefaultQueueCapacity),
		MinisterQueue:    NewInProcessQueue[domain.Chunk](DefaultQueueCapacity),
		EmbedWorkerCount: embedWorkers,
		Embedder:         embedder,
		Writer:           writer,
		Aggregator:       aggregator,
		ShutdownTimeout:  DefaultShutdownTimeout,
		Metrics:          &Metrics{},
		Logger:           logger,
	}
}

// Run feeds chunks into the pipeline and drives it to completion following
// the seven-step shutdown protocol in §4.G. It returns once every accepted
// chunk is either fully aggregated or reflected in Metrics.
func (o *Orchestrator) Run(ctx context.Context, chunks []domain.Chunk) error {
	// Step 1/2: start the embed workers before any chunk is enqueued, so
	// ChunkQueue always has a consumer — with DefaultQueueCapacity bounding
	// the queue, pushing the full book before a consumer exists would
	// deadlock the reader on any book whose embeddable-node count exceeds
	// capacity.
	var embedWG sync.WaitGroup
	embedErrs := make([]error, o.EmbedWorkerCount)
	for i := 0; i < o.EmbedWorkerCount; i++ {
		embedWG.Add(1)
		go func(idx int) {
			defer embedWG.Done()
			embedErrs[idx] = o.Embedder.Run(ctx, o.ChunkQueue, o.VectorQueue)
		}(i)
	}

	// One reader task per input file (§4.G): enqueue concurrently with the
	// embed workers already draining, then push N sentinels once every
	// chunk has been accepted.
	readerDone := make(chan error, 1)
	go func() {
		for i := range chunks {
			c := chunks[i]
			if err := o.ChunkQueue.Push(ctx, &c); err != nil {
				readerDone <- err
				return
			}
		}
		for i := 0; i < o.EmbedWorkerCount; i++ {
			if err := o.ChunkQueue.Push(ctx, nil); err != nil {
				readerDone <- err
				return
			}
		}
		readerDone <- nil
	}()

	writerDone := make(chan error, 1)
	go func() { writerDone <- o.runWriter(ctx) }()

	aggregatorDone := make(chan error, 1)
	go func() { aggregatorDone <- o.runAggregator(ctx) }()

	if err := <-readerDone; err != nil {
		return err
	}

	// Step 4: await embed workers.
	embedWG.Wait()
	for _, err := range embedErrs {
		if err != nil {
			o.Logger.Warn("async: embed worker returned error", "err", err)
			o.Metrics.incError()
		}
	}

	// Step 5: single sentinel into vector_queue, only once all embed
	// workers (the sole producers into vector_queue) have exited.
	if err := o.VectorQueue.Push(ctx, nil); err != nil {
		return err
	}

	// Step 6/7: await writer and aggregator with a global timeout; on
	// timeout the caller's ctx cancellation (if any) is the cancel signal —
	// we additionally bound the wait locally.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), o.timeout())
	defer cancel()

	if err := o.awaitOrTimeout(shutdownCtx, writerDone); err != nil {
		return err
	}
	return o.awaitOrTimeout(shutdownCtx, aggregatorDone)
}

func (o *Orchestrator) timeout() time.Duration {
	if o.ShutdownTimeout <= 0 {
		return DefaultShutdownTimeout
	}
	return o.ShutdownTimeout
}

func (o *Orchestrator) awaitOrTimeout(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		o.Logger.Warn("async: shutdown timeout exceeded, task left to drain in background")
		return ctx.Err()
	}
}

// runWriter drains vector_queue in batches of WriterBatchSize, persists
// them, and forwards surviving chunks to minister_queue.
func (o *Orchestrator) runWriter(ctx context.Context) error {
	var batch []domain.Chunk
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if o.Writer != nil {
			if err := o.Writer(ctx, batch); err != nil {
				o.Logger.Warn("async: writer batch failed", "err", err)
				o.Metrics.incError()
			}
		}
		for i := range batch {
			c := batch[i]
			if err := o.MinisterQueue.Push(ctx, &c); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	for {
		item, err := o.VectorQueue.Pop(ctx)
		if err != nil {
			return err
		}
		if item == nil {
			if err := flush(); err != nil {
				return err
			}
			return o.MinisterQueue.Push(ctx, nil)
		}
		batch = append(batch, *item)
		if len(batch) >= WriterBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

// runAggregator drains minister_queue, buffering per-domain and flushing
// once a domain's buffer reaches AggregatorFlushSize.
func (o *Orchestrator) runAggregator(ctx context.Context) error {
	buffers := make(map[domain.Domain][]domain.Chunk)

	flushDomain := func(dom domain.Domain) error {
		batch := buffers[dom]
		if len(batch) == 0 {
			return nil
		}
		if o.Aggregator != nil {
			if err := o.Aggregator(ctx, dom, batch); err != nil {
				o.Logger.Warn("async: aggregator flush failed", "domain", dom, "err", err)
				o.Metrics.incError()
			}
		}
		buffers[dom] = nil
		return nil
	}

	for {
		item, err := o.MinisterQueue.Pop(ctx)
		if err != nil {
			return err
		}
		if item == nil {
			for dom := range buffers {
				if err := flushDomain(dom); err != nil {
					return err
				}
			}
			return nil
		}
		buffers[item.Domain] = append(buffers[item.Domain], *item)
		if len(buffers[item.Domain]) >= AggregatorFlushSize {
			if err := flushDomain(item.Domain); err != nil {
				return err
			}
		}
	}
}
