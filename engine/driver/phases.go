package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/doctrine"
	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/engine/extract"
	"github.com/Arjun3125/doctrine-ingest/engine/progress"
	"github.com/Arjun3125/doctrine-ingest/engine/scoring"
	"github.com/Arjun3125/doctrine-ingest/pkg/async"
)

// phase0Extract decodes the PDF into pages and a canonical, form-feed-joined
// text blob. Resume short-circuits on the canonical artifact alone — the raw
// text file is kept only for operator inspection.
func (d *Driver) phase0Extract(ctx context.Context, storage, pdfPath string, tracker *progress.Tracker, resume bool) ([]string, string, error) {
	canonicalPath := filepath.Join(storage, CanonicalTextFile)

	if resume {
		if raw, err := os.ReadFile(canonicalPath); err == nil {
			canonical := string(raw)
			tracker.Write(progress.PhaseExtract, "text extraction cached", 1, 1, nil)
			return extract.SplitCanonical(canonical), canonical, nil
		}
	}

	tracker.Write(progress.PhaseExtract, "extracting text", 0, 1, nil)
	pages, err := d.Deps.Extractor.Extract(ctx, pdfPath)
	if err != nil {
		return nil, "", err
	}

	canonical := extract.Canonical(pages)
	if err := os.WriteFile(filepath.Join(storage, RawTextFile), []byte(canonical), 0o644); err != nil {
		return nil, "", fmt.Errorf("driver: write raw text: %w", err)
	}
	if err := os.WriteFile(canonicalPath, []byte(canonical), 0o644); err != nil {
		return nil, "", fmt.Errorf("driver: write canonical text: %w", err)
	}

	tracker.Write(progress.PhaseExtract, "text extraction complete", 1, 1, nil)
	return pages, canonical, nil
}

// phase05GlyphRepair runs OCR glyph repair over the canonical text, skipping
// the LLM call entirely when the text shows no signs of glyph corruption.
func (d *Driver) phase05GlyphRepair(ctx context.Context, storage, canonical string, tracker *progress.Tracker, resume bool) string {
	repairedPath := filepath.Join(storage, RepairedTextFile)

	if resume {
		if raw, err := os.ReadFile(repairedPath); err == nil {
			tracker.Write(progress.PhaseGlyphRepair, "glyph repair cached", 1, 1, nil)
			return string(raw)
		}
	}

	if !extract.NeedsRepair(canonical) {
		tracker.Write(progress.PhaseGlyphRepair, "no glyph repair needed", 1, 1, nil)
		_ = os.WriteFile(repairedPath, []byte(canonical), 0o644)
		return canonical
	}

	tracker.Write(progress.PhaseGlyphRepair, "repairing glyphs", 0, 1, nil)
	repaired := d.Deps.GlyphRepairer.Repair(ctx, canonical)
	if err := os.WriteFile(repairedPath, []byte(repaired), 0o644); err != nil {
		d.logger().Warn("driver: failed to persist repaired text", "err", err)
	}
	tracker.Write(progress.PhaseGlyphRepair, "glyph repair complete", 1, 1, nil)
	return repaired
}

// phase1Segment splits repaired pages into chapters.
func (d *Driver) phase1Segment(ctx context.Context, storage string, pages []string, tracker *progress.Tracker, resume bool) ([]domain.Chapter, error) {
	path := filepath.Join(storage, ChaptersFile)

	var chapters []domain.Chapter
	if resume {
		if ok, err := readJSON(path, &chapters); err != nil {
			return nil, err
		} else if ok {
			tracker.Write(progress.PhaseSegment, "chapter segmentation cached", len(chapters), len(chapters), nil)
			return chapters, nil
		}
	}

	tracker.Write(progress.PhaseSegment, "segmenting chapters", 0, 1, nil)
	splitCtx, cancel := context.WithTimeout(ctx, ChapterSplitTimeout)
	defer cancel()
	chapters = d.Deps.Segmenter.Split(splitCtx, pages)

	if err := writeJSON(path, chapters); err != nil {
		return nil, err
	}
	tracker.Write(progress.PhaseSegment, "chapter segmentation complete", len(chapters), len(chapters), nil)
	return chapters, nil
}

// phase2Doctrine extracts doctrine from every chapter. A chapter whose
// extraction fails outright is reconstructed from whatever chunks the
// checkpoint already has; the whole book only aborts when every chapter's
// extraction fails (§4.M).
func (d *Driver) phase2Doctrine(ctx context.Context, storage, bookID string, chapters []domain.Chapter, tracker *progress.Tracker, resume bool) ([]domain.Doctrine, error) {
	path := filepath.Join(storage, DoctrineFile)

	var doctrines []domain.Doctrine
	if resume {
		if ok, err := readJSON(path, &doctrines); err != nil {
			return nil, err
		} else if ok {
			tracker.Write(progress.PhaseDoctrine, "doctrine extraction cached", len(doctrines), len(doctrines), nil)
			return doctrines, nil
		}
	}

	tracker.Write(progress.PhaseDoctrine, "extracting doctrine", 0, len(chapters), nil)
	successCount := 0
	for i, chapter := range chapters {
		doc, err := d.Deps.DoctrineExtractor.Extract(ctx, chapter)
		if err != nil {
			d.logger().Warn("driver: chapter doctrine extraction failed, reconstructing from checkpoint",
				"chapter", chapter.ChapterIndex, "err", err)
			doc = d.Deps.DoctrineExtractor.Reconstruct(chapter)
			if d.Deps.Metrics != nil {
				d.Deps.Metrics.ChaptersFailed.Inc()
			}
		} else {
			successCount++
		}
		doctrines = append(doctrines, doc)
		tracker.Write(progress.PhaseDoctrine, fmt.Sprintf("chapter %d/%d", i+1, len(chapters)), i+1, len(chapters), nil)
	}

	if len(chapters) > 0 && successCount == 0 {
		return nil, domain.NewIngestError(domain.ErrCriticalIngestFailure, bookID, 0,
			fmt.Errorf("all %d chapters failed doctrine extraction", len(chapters)))
	}

	if err := writeJSON(path, doctrines); err != nil {
		return nil, err
	}
	return doctrines, nil
}

// ministersIndexDoc is the lightweight phase-2.5 artifact: a stub record of
// what phase 3.5's real conversion pass will later fan out, not the
// conversion itself (that happens after embedding, per the original
// pipeline's ordering).
type ministersIndexDoc struct {
	BookMeta map[string]any `json:"book_meta"`
	Count    int            `json:"count"`
}

// phase25MinisterIndex writes the ministers_index.json stub.
func (d *Driver) phase25MinisterIndex(storage, bookID string, doctrines []domain.Doctrine, tracker *progress.Tracker) error {
	tracker.Write(progress.PhaseNodeBuild, "recording minister index", 0, 1, nil)
	doc := ministersIndexDoc{
		BookMeta: map[string]any{"book_id": bookID},
		Count:    len(doctrines),
	}
	if err := writeJSON(filepath.Join(storage, MinistersIndexFile), doc); err != nil {
		return err
	}
	tracker.Write(progress.PhaseNodeBuild, "minister index recorded", 1, 1, nil)
	return nil
}

// phase3Embed flattens every doctrine into embeddable nodes, chunks them,
// and runs them through the async orchestrator's embed-worker pool. The
// orchestrator's Writer is a no-op collector here — committing embeddings
// to the vector store is scoring's job, run per-event in phase 3.5, not the
// embedding pass's — and its Aggregator is a no-op for the same reason the
// real per-domain fan-out (every domain a doctrine was tagged with, not
// just a chunk's single assigned domain) runs later via ConvertAllDoctrines.
func (d *Driver) phase3Embed(ctx context.Context, storage, bookID string, doctrines []domain.Doctrine, tracker *progress.Tracker, resume bool) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, doc := range doctrines {
		for _, node := range doctrine.ToNodes(doc, bookID) {
			if !node.Embeddable() {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:            node.NodeID,
				Text:          node.Text,
				Domain:        node.Metadata.Domain,
				Category:      categoryForNodeType(node.Type),
				SourceBook:    bookID,
				SourceChapter: node.Metadata.Chapter,
			})
		}
	}
	if err := writeJSON(filepath.Join(storage, NodesChunksFile), chunks); err != nil {
		return nil, err
	}

	embPath := filepath.Join(storage, EmbeddingsFile)
	if resume {
		var cached []domain.Chunk
		if ok, err := readJSON(embPath, &cached); err != nil {
			return nil, err
		} else if ok {
			tracker.Write(progress.PhaseEmbed, "embeddings cached", len(cached), len(cached), nil)
			return cached, nil
		}
	}

	tracker.Write(progress.PhaseEmbed, "embedding nodes", 0, len(chunks), nil)
	if len(chunks) == 0 {
		if err := writeJSON(embPath, chunks); err != nil {
			return nil, err
		}
		return chunks, nil
	}

	workers := d.Config.EmbedWorkers
	if workers <= 0 {
		workers = 4
	}

	embedWorker := async.NewEmbedWorker(d.Deps.LLM, d.Config.EmbedModel, d.Deps.RateCtl, nil, d.logger())

	var mu sync.Mutex
	var embedded []domain.Chunk
	writer := func(_ context.Context, batch []domain.Chunk) error {
		mu.Lock()
		embedded = append(embedded, batch...)
		mu.Unlock()
		return nil
	}
	noopAggregator := func(_ context.Context, _ domain.Domain, _ []domain.Chunk) error { return nil }

	orch := async.NewOrchestrator(workers, embedWorker, writer, noopAggregator, d.logger())
	embedStart := time.Now()
	err := orch.Run(ctx, chunks)
	if d.Deps.Metrics != nil {
		d.Deps.Metrics.EmbedLatency.Since(embedStart)
	}
	if err != nil {
		return nil, fmt.Errorf("driver: embed orchestrator: %w", err)
	}

	tracker.Write(progress.PhaseEmbed, "embedding complete", len(embedded), len(chunks), nil)
	if err := writeJSON(embPath, embedded); err != nil {
		return nil, err
	}
	return embedded, nil
}

func categoryForNodeType(t domain.NodeType) string {
	switch t {
	case domain.NodePrinciple:
		return "principles"
	case domain.NodeRule:
		return "rules"
	case domain.NodeClaim:
		return "claims"
	case domain.NodeWarning:
		return "warnings"
	default:
		return "content"
	}
}

// phase35MinisterAndCommit runs the real minister conversion (every domain a
// doctrine was tagged with, not just one per node) and then scores and
// commits each embedded chunk to memory. Resume guard is the summary
// artifact's existence, since AddCategoryEntry always appends and is not
// naturally idempotent (§4.J).
func (d *Driver) phase35MinisterAndCommit(ctx context.Context, storage, bookID string, doctrines []domain.Doctrine, chunks []domain.Chunk, tracker *progress.Tracker) error {
	summaryPath := filepath.Join(storage, MinisterSummaryFile)
	if _, err := os.Stat(summaryPath); err == nil {
		tracker.Write(progress.PhaseCommit, "minister conversion cached", 1, 1, nil)
		return nil
	}

	tracker.Write(progress.PhaseCommit, "converting doctrine to minister structure", 0, 1, nil)
	summary, err := d.Deps.MinisterStore.ConvertAllDoctrines(doctrines, bookID, func(message string, current, total int) {
		tracker.Write(progress.PhaseCommit, message, current, total, nil)
	})
	if err != nil {
		return fmt.Errorf("driver: minister conversion: %w", err)
	}
	if err := d.Deps.MinisterStore.UpdateCombinedVectorIndex(); err != nil {
		d.logger().Warn("driver: combined vector index refresh failed", "err", err)
	}
	if err := writeJSON(summaryPath, summary); err != nil {
		return fmt.Errorf("driver: write minister summary: %w", err)
	}

	engine := scoring.NewCommitEngine(d.Deps.VectorStore, d.Deps.MemoryStore, d.Deps.Graph, d.logger())
	if d.Deps.Maintenance != nil {
		engine.Maintenance = d.Deps.Maintenance
	}

	committed := 0
	for i, chunk := range chunks {
		commitStart := time.Now()
		ev := scoreEventForChunk(chunk, bookID)
		scores := engine.Score(ev, d.Config.MissionVector)
		rec, route, err := engine.Commit(ctx, ev, scores)
		if d.Deps.Metrics != nil {
			d.Deps.Metrics.CommitLatency.Since(commitStart)
		}
		if err != nil {
			d.logger().Warn("driver: commit failed", "chunk", chunk.ID, "err", err)
			continue
		}
		if route == domain.DroppedMemory {
			if d.Deps.Metrics != nil {
				d.Deps.Metrics.MemoriesDropped.Inc()
			}
			continue
		}
		committed++

		if scores.ImportanceScore >= scoring.DoctrineThreshold && route == domain.GlobalMemory {
			if _, err := engine.DoctrineDiff(ctx, rec, chunk.Embedding); err != nil {
				d.logger().Warn("driver: doctrine diff failed", "chunk", chunk.ID, "err", err)
			}
		}
		engine.Reinforce(ctx, rec, scores, ev.Entities)
		if err := engine.OptimizeRetrievalIndices(rec.ID); err != nil {
			d.logger().Warn("driver: retrieval index optimization failed", "chunk", chunk.ID, "err", err)
		}

		tracker.Write(progress.PhaseCommit, fmt.Sprintf("committed %d/%d", i+1, len(chunks)), i+1, len(chunks), nil)
	}

	tracker.Write(progress.PhaseCommit, fmt.Sprintf("phase 3.5 complete: %d committed", committed), len(chunks), len(chunks), nil)
	return nil
}
