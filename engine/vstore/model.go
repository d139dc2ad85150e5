// Package vstore implements the combined and per-domain vector indices
// described in §4.I: a shared VectorStore interface with a Qdrant-backed
// production implementation and a file-backed fallback for environments
// without a Qdrant deployment.
package vstore

import (
	"context"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

// Record is a single stored vector and its scored-search result form.
type Record struct {
	ID             string        `json:"id"`
	Domain         domain.Domain `json:"domain"`
	Category       string        `json:"category"`
	Text           string        `json:"text"`
	Embedding      []float32     `json:"embedding"`
	Weight         float32       `json:"weight"`
	SourceBook     string        `json:"source_book,omitempty"`
	SourceChapter  string        `json:"source_chapter,omitempty"`
	Score          float32       `json:"score,omitempty"`
}

// VectorStore is the pluggable interface both backends satisfy (§4.I).
// Every insert validates domain against the whitelist and rejects
// otherwise. FileStore scores a search by cosine similarity scaled by
// weight, sorted descending; QdrantStore returns Qdrant's cosine score
// without the weight scaling.
type VectorStore interface {
	InsertCombined(ctx context.Context, dom domain.Domain, category, text string, embedding []float32, sourceBook, sourceChapter string, weight float32) (string, error)
	InsertDomain(ctx context.Context, dom domain.Domain, category, text string, embedding []float32, weight float32) (string, error)
	InsertCombinedBatch(ctx context.Context, records []Record) ([]string, error)
	InsertDomainBatch(ctx context.Context, records []Record) ([]string, error)
	SearchCombined(ctx context.Context, q []float32, topK int) ([]Record, error)
	SearchDomain(ctx context.Context, dom domain.Domain, q []float32, topK int) ([]Record, error)
}
