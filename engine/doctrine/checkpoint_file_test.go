package doctrine

import (
	"path/filepath"
	"testing"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

func TestFileCheckpoint_PutPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "02_doctrine_chunks.json")

	fc, err := NewFileCheckpoint(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fc.Put("chapter-1", 2, chunkResult{Domains: []domain.Domain{domain.Strategy}})

	reopened, err := NewFileCheckpoint(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := reopened.Get("chapter-1", 2)
	if !ok {
		t.Fatalf("expected chunk result to survive reopen")
	}
	if len(got.Domains) != 1 || got.Domains[0] != domain.Strategy {
		t.Fatalf("unexpected chunk result after reopen: %+v", got)
	}
}

func TestFileCheckpoint_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.json")
	fc, err := NewFileCheckpoint(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fc.Get("chapter-1", 0); ok {
		t.Fatalf("expected empty checkpoint for missing file")
	}
}

func TestFileCheckpoint_CompletedReturnsIndependentCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.json")
	fc, err := NewFileCheckpoint(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fc.Put("chapter-9", 0, chunkResult{Domains: []domain.Domain{domain.Risk}})

	completed := fc.Completed("chapter-9")
	completed[0] = chunkResult{}

	again := fc.Completed("chapter-9")
	if len(again[0].Domains) != 1 {
		t.Fatalf("mutating the returned map should not affect internal state")
	}
}
