package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/engine/extract"
	"github.com/Arjun3125/doctrine-ingest/engine/progress"
	"github.com/Arjun3125/doctrine-ingest/engine/scoring"
	"github.com/Arjun3125/doctrine-ingest/pkg/atomicfile"
)

// Driver sequences one book at a time through every pipeline phase (§4.M).
type Driver struct {
	Config Config
	Deps   Deps
}

// New builds a Driver.
func New(cfg Config, deps Deps) *Driver {
	return &Driver{Config: cfg, Deps: deps}
}

// IngestFolder processes every PDF-derived input file in dir. fresh=true
// ignores any existing progress and reprocesses every book from scratch.
func (d *Driver) IngestFolder(ctx context.Context, dir string, fresh bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("driver: read dir %s: %w", dir, err)
	}

	var firstErr error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := d.Ingest(ctx, path, !fresh); err != nil {
			d.logger().Error("driver: book failed", "book", e.Name(), "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Ingest processes one book end to end. When resume is true, phases whose
// output artifacts already exist are skipped (§4.M resume rule).
func (d *Driver) Ingest(ctx context.Context, pdfPath string, resume bool) error {
	bookID := bookSlug(pdfPath)
	storage := filepath.Join(d.Config.StorageRoot, bookID)
	if err := os.MkdirAll(storage, 0o755); err != nil {
		return fmt.Errorf("driver: create storage dir: %w", err)
	}

	if resume {
		if done, err := progress.IsCompleted(storage); err == nil && done {
			if _, embErr := os.Stat(filepath.Join(storage, EmbeddingsFile)); embErr == nil {
				d.logger().Info("driver: book already complete, skipping", "book", bookID)
				return nil
			}
		}
	}

	tracker := progress.New(storage)
	logger := d.logger().With("book", bookID)

	if d.Deps.Metrics != nil {
		d.Deps.Metrics.ActiveBooks.Inc()
		defer d.Deps.Metrics.ActiveBooks.Dec()
	}

	pages, canonical, err := d.phase0Extract(ctx, storage, pdfPath, tracker, resume)
	if err != nil {
		d.incBooksFailed()
		return domain.NewIngestError(domain.ErrPDFUnreadable, bookID, 0, err)
	}

	repaired := d.phase05GlyphRepair(ctx, storage, canonical, tracker, resume)
	pages = extract.SplitCanonical(repaired)

	chapters, err := d.phase1Segment(ctx, storage, pages, tracker, resume)
	if err != nil {
		return fmt.Errorf("driver: segment: %w", err)
	}

	doctrines, err := d.phase2Doctrine(ctx, storage, bookID, chapters, tracker, resume)
	if err != nil {
		d.incBooksFailed()
		return err // already an IngestError wrapping domain.ErrCriticalIngestFailure when every chapter fails
	}

	if err := d.phase25MinisterIndex(storage, bookID, doctrines, tracker); err != nil {
		logger.Warn("driver: ministers_index write failed", "err", err)
	}

	chunks, err := d.phase3Embed(ctx, storage, bookID, doctrines, tracker, resume)
	if err != nil {
		d.incBooksFailed()
		return fmt.Errorf("driver: embed: %w", err)
	}

	// Phase 3.5 failure must not fail the book (§4.M).
	if err := d.phase35MinisterAndCommit(ctx, storage, bookID, doctrines, chunks, tracker); err != nil {
		logger.Warn("driver: phase 3.5 failed, book still marked complete", "err", err)
	}

	if err := tracker.Complete(fmt.Sprintf("book %s fully ingested", bookID)); err != nil {
		logger.Warn("driver: failed to write completion marker", "err", err)
	}
	if d.Deps.Metrics != nil {
		d.Deps.Metrics.BooksProcessed.Inc()
	}
	return nil
}

func (d *Driver) incBooksFailed() {
	if d.Deps.Metrics != nil {
		d.Deps.Metrics.BooksFailed.Inc()
	}
}

func (d *Driver) logger() *slog.Logger {
	if d.Deps.Logger == nil {
		return slog.Default()
	}
	return d.Deps.Logger
}

// bookSlug derives the storage-directory name from a PDF path: its file
// stem, lowercased, with non-alphanumerics collapsed to underscores.
func bookSlug(pdfPath string) string {
	base := filepath.Base(pdfPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	var b strings.Builder
	lastUnderscore := false
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteJSON(path, raw)
}

func readJSON(path string, v any) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// scoreEventForChunk builds a scoring.Event from an embedded chunk.
func scoreEventForChunk(c domain.Chunk, bookID string) scoring.Event {
	return scoring.Event{
		Embedding:     c.Embedding,
		RawText:       c.Text,
		Domain:        c.Domain,
		Category:      c.Category,
		SourceBook:    bookID,
		SourceChapter: c.SourceChapter,
	}
}
