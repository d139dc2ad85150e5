// Package async implements the Async Orchestrator (§4.G): bounded queues,
// worker pools, and the deterministic sentinel-shutdown protocol that
// moves Chunks from raw text through embedding to the vector store and
// the minister aggregator.
package async

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Arjun3125/doctrine-ingest/pkg/natsutil"
)

// DefaultQueueCapacity is the bounded capacity of each of the three
// pipeline queues (§4.G "Three bounded queues with capacity 1000").
const DefaultQueueCapacity = 1000

// Queue is the bounded-FIFO abstraction backing chunk_queue, vector_queue,
// and minister_queue. A nil item pushed through Queue is the sentinel
// value used to terminate a consumer (§4.G "push N sentinel None values").
type Queue[T any] interface {
	Push(ctx context.Context, item *T) error
	Pop(ctx context.Context) (*T, error)
	Len() int
}

// InProcessQueue is the default Queue backend: an in-process buffered
// channel. Producers block on Push when the channel is full, giving the
// implicit backpressure §4.G requires.
type InProcessQueue[T any] struct {
	ch chan *T
}

// NewInProcessQueue builds an InProcessQueue of the given capacity.
func NewInProcessQueue[T any](capacity int) *InProcessQueue[T] {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &InProcessQueue[T]{ch: make(chan *T, capacity)}
}

func (q *InProcessQueue[T]) Push(ctx context.Context, item *T) error {
	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InProcessQueue[T]) Pop(ctx context.Context) (*T, error) {
	select {
	case item := <-q.ch:
		return item, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *InProcessQueue[T]) Len() int { return len(q.ch) }

// NatsQueue is an optional, swappable core-NATS-subject-backed Queue for
// multi-process deployments (§6 "Optional DB_DSN... absence triggers the
// file-backed fallback" generalizes to: optional NATS, absence triggers
// the in-process fallback). It degrades the "nil sentinel" semantics to an
// explicit terminator message since NATS payloads cannot carry a bare nil.
type NatsQueue[T any] struct {
	nc      *nats.Conn
	subject string
	sub     *nats.Subscription
}

// NewNatsQueue subscribes synchronously to subject on nc over core NATS;
// it creates no JetStream stream.
func NewNatsQueue[T any](nc *nats.Conn, subject string) (*NatsQueue[T], error) {
	sub, err := nc.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("async: subscribe %s: %w", subject, err)
	}
	return &NatsQueue[T]{nc: nc, subject: subject, sub: sub}, nil
}

func (q *NatsQueue[T]) Push(ctx context.Context, item *T) error {
	if item == nil {
		return q.nc.Publish(q.subject, natsSentinelPayload)
	}
	return natsutil.Publish(ctx, q.nc, q.subject, *item)
}

func (q *NatsQueue[T]) Pop(ctx context.Context) (*T, error) {
	msg, err := q.sub.NextMsgWithContext(ctx)
	if err != nil {
		return nil, err
	}
	if string(msg.Data) == string(natsSentinelPayload) {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(msg.Data, &v); err != nil {
		return nil, fmt.Errorf("async: decode %s: %w", q.subject, err)
	}
	return &v, nil
}

func (q *NatsQueue[T]) Len() int {
	n, _, _ := q.sub.Pending()
	return n
}

var natsSentinelPayload = []byte(`{"__sentinel__":true}`)
