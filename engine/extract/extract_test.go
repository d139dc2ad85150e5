package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

type stubDecoder struct {
	pages []string
	err   error
}

func (s stubDecoder) Decode(context.Context, string) ([]string, error) { return s.pages, s.err }

func TestTieredExtractor_StopsAtFirstGoodTier(t *testing.T) {
	bad := stubDecoder{pages: []string{string([]byte{0x01, 0x02, 0x03, 0x04})}}
	good := stubDecoder{pages: []string{"clean readable english text with no artifacts"}}

	e := NewTieredExtractor(nil, bad, good)
	pages, err := e.Extract(context.Background(), "book.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0] != good.pages[0] {
		t.Fatalf("expected the good tier's pages, got %v", pages)
	}
}

func TestTieredExtractor_FallsBackToBestWhenNoneClearThreshold(t *testing.T) {
	worse := stubDecoder{pages: []string{"a"}}
	better := stubDecoder{pages: []string{"a reasonably longer snippet of text"}}

	e := NewTieredExtractor(nil, worse, better)
	pages, err := e.Extract(context.Background(), "book.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0] != better.pages[0] {
		t.Fatalf("expected fallback to the best-scoring tier, got %v", pages)
	}
}

func TestTieredExtractor_AllEmptyReturnsPDFUnreadable(t *testing.T) {
	empty := stubDecoder{pages: nil}
	failing := stubDecoder{pages: nil, err: errors.New("decode boom")}

	e := NewTieredExtractor(nil, empty, failing)
	_, err := e.Extract(context.Background(), "book.pdf")
	if err == nil {
		t.Fatalf("expected an error when all tiers yield empty text")
	}
	var ingestErr *domain.IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected *domain.IngestError, got %T", err)
	}
	if !errors.Is(err, domain.ErrPDFUnreadable) {
		t.Fatalf("expected ErrPDFUnreadable, got %v", err)
	}
}

func TestCanonical_RoundTrips(t *testing.T) {
	pages := []string{"page one", "page two", "page three"}
	text := Canonical(pages)
	got := SplitCanonical(text)
	if len(got) != len(pages) {
		t.Fatalf("round trip length mismatch: got %d, want %d", len(got), len(pages))
	}
	for i := range pages {
		if got[i] != pages[i] {
			t.Fatalf("round trip mismatch at %d: got %q, want %q", i, got[i], pages[i])
		}
	}
}

func TestSplitCanonical_Empty(t *testing.T) {
	if got := SplitCanonical(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestPlainTextDecoder_Decode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.txt")
	if err := os.WriteFile(path, []byte("page a\fpage b"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	d := PlainTextDecoder{}
	pages, err := d.Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 || pages[0] != "page a" || pages[1] != "page b" {
		t.Fatalf("unexpected pages: %v", pages)
	}
}

func TestNullDecoder_AlwaysEmpty(t *testing.T) {
	d := NullDecoder{}
	pages, err := d.Decode(context.Background(), "whatever.pdf")
	if err != nil || pages != nil {
		t.Fatalf("expected nil, nil; got %v, %v", pages, err)
	}
}
