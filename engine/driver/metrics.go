package driver

import "github.com/Arjun3125/doctrine-ingest/pkg/metrics"

// IngestMetrics is the Prometheus series a Driver reports under §4.O,
// mirroring cmd/ingest's metrics-var-block convention.
type IngestMetrics struct {
	BooksProcessed  *metrics.Counter
	BooksFailed     *metrics.Counter
	ChaptersFailed  *metrics.Counter
	RateLimitHits   *metrics.Counter
	MemoriesDropped *metrics.Counter
	ActiveBooks     *metrics.Gauge

	EmbedLatency  *metrics.Histogram
	CommitLatency *metrics.Histogram
}

// NewIngestMetrics registers the ingestion series against reg.
func NewIngestMetrics(reg *metrics.Registry) *IngestMetrics {
	return &IngestMetrics{
		BooksProcessed:  reg.Counter("doctrine_ingest_books_processed_total", "Books fully ingested"),
		BooksFailed:     reg.Counter("doctrine_ingest_books_failed_total", "Books aborted by a critical ingest failure"),
		ChaptersFailed:  reg.Counter("doctrine_ingest_chapters_failed_total", "Chapters reconstructed from partial checkpoints"),
		RateLimitHits:   reg.Counter("doctrine_ingest_rate_limit_hits_total", "LLM rate-limit responses observed"),
		MemoriesDropped: reg.Counter("doctrine_ingest_memories_dropped_total", "Embedded nodes routed to DROP by the decision gate"),
		ActiveBooks:     reg.Gauge("doctrine_ingest_active_books", "Books currently being processed"),
		EmbedLatency:    reg.Histogram("doctrine_ingest_embed_duration_seconds", "Embedding batch call latency", nil),
		CommitLatency:   reg.Histogram("doctrine_ingest_commit_duration_seconds", "Per-chunk scoring+commit latency", nil),
	}
}
