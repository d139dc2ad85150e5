// Package doctrine implements the Doctrine Extractor (§4.D) and Node
// Builder (§4.E): per-chunk LLM extraction with chunk-level checkpointing,
// normalization, classification, and conversion to atomic nodes.
package doctrine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/pkg/llm"
	"github.com/Arjun3125/doctrine-ingest/pkg/textutil"
)

// ChunkTimeout bounds a single doctrine-extraction LLM call (§5).
const ChunkTimeout = 60 * time.Second

const systemPrompt = "You extract operational doctrine from text. Paraphrase only — never quote verbatim. " +
	"Generalize concrete examples into operational statements. When in doubt, prefer over-extraction: " +
	"if any operational content is present, extract it. Respond with strict JSON having exactly the keys " +
	`{"domains":[...], "principles":[...], "rules":[...], "claims":[...], "warnings":[...]}. ` +
	"domains must be non-empty and drawn only from the allowed whitelist. Missing keys are treated as empty arrays."

// rawDoctrineChunk is the wire shape of one chunk's LLM response.
type rawDoctrineChunk struct {
	Domains    []string  `json:"domains"`
	Principles []rawItem `json:"principles"`
	Rules      []rawItem `json:"rules"`
	Claims     []rawItem `json:"claims"`
	Warnings   []rawItem `json:"warnings"`
}

// chunkResult is the normalized, checkpointable outcome of one chunk call.
type chunkResult struct {
	Domains    []domain.Domain
	Principles []domain.Principle
	Rules      []domain.Rule
	Claims     []domain.Claim
	Warnings   []domain.Warning
}

// Extractor runs the doctrine-extraction algorithm over one chapter at a time.
type Extractor struct {
	Service    llm.Service
	Model      string
	Checkpoint Checkpoint
	Logger     *slog.Logger
}

// NewExtractor builds an Extractor.
func NewExtractor(svc llm.Service, model string, checkpoint Checkpoint, logger *slog.Logger) *Extractor {
	if checkpoint == nil {
		checkpoint = NewMemCheckpoint()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{Service: svc, Model: model, Checkpoint: checkpoint, Logger: logger}
}

// Extract runs one LLM call per ≤8000-char chunk of chapter text,
// aggregates, normalizes, and classifies the result (§4.D). It returns
// *domain.ExtractionFailedError only when every chunk fails.
func (e *Extractor) Extract(ctx context.Context, chapter domain.Chapter) (domain.Doctrine, error) {
	chunks := textutil.ChunkByParagraph(chapter.RawText, textutil.DefaultMaxChars)

	successCount := 0
	var lastErr error
	var agg chunkResult
	seenDomains := make(map[domain.Domain]bool)

	for i, chunk := range chunks {
		var result chunkResult
		if cached, ok := e.Checkpoint.Get(chapter.ChapterID, i); ok {
			result = cached
			successCount++
		} else {
			r, err := e.extractChunk(ctx, chunk)
			if err != nil {
				e.Logger.Warn("doctrine: chunk extraction failed, skipping",
					"chapter", chapter.ChapterIndex, "chunk", i, "err", err)
				lastErr = err
				continue
			}
			result = r
			e.Checkpoint.Put(chapter.ChapterID, i, result)
			successCount++
		}

		for _, d := range result.Domains {
			if !seenDomains[d] {
				seenDomains[d] = true
				agg.Domains = append(agg.Domains, d)
			}
		}
		agg.Principles = append(agg.Principles, result.Principles...)
		agg.Rules = append(agg.Rules, result.Rules...)
		agg.Claims = append(agg.Claims, result.Claims...)
		agg.Warnings = append(agg.Warnings, result.Warnings...)
	}

	if len(chunks) > 0 && successCount == 0 {
		return domain.Doctrine{}, &domain.ExtractionFailedError{ChapterIndex: chapter.ChapterIndex, Cause: lastErr}
	}

	return e.finalize(chapter, agg), nil
}

// Reconstruct rebuilds a Doctrine from whatever chunks are present in the
// checkpoint, for use after a chapter-level failure mid-run (§4.D
// "a reconstruction routine aggregates whatever chunks completed").
func (e *Extractor) Reconstruct(chapter domain.Chapter) domain.Doctrine {
	var agg chunkResult
	seenDomains := make(map[domain.Domain]bool)
	for _, result := range e.Checkpoint.Completed(chapter.ChapterID) {
		for _, d := range result.Domains {
			if !seenDomains[d] {
				seenDomains[d] = true
				agg.Domains = append(agg.Domains, d)
			}
		}
		agg.Principles = append(agg.Principles, result.Principles...)
		agg.Rules = append(agg.Rules, result.Rules...)
		agg.Claims = append(agg.Claims, result.Claims...)
		agg.Warnings = append(agg.Warnings, result.Warnings...)
	}
	return e.finalize(chapter, agg)
}

func (e *Extractor) finalize(chapter domain.Chapter, agg chunkResult) domain.Doctrine {
	d := domain.Doctrine{
		ChapterIndex: chapter.ChapterIndex,
		ChapterTitle: chapter.ChapterTitle,
		Domains:      agg.Domains,
		Principles:   agg.Principles,
		Rules:        agg.Rules,
		Claims:       agg.Claims,
		Warnings:     agg.Warnings,
	}
	d = Normalize(d)

	if len(d.Domains) == 0 {
		d.Domains = InferDomains(chapter.RawText)
	}
	if len(d.Domains) > 3 {
		d.Domains = d.Domains[:3]
	}

	chapterType := ClassifyChapterType(d, chapter.RawText)
	density := DoctrineDensity(d, chapter.RawText)
	status := "ok"
	confidence := domain.ConfidenceMedium
	reason := ""
	if density == 0 {
		status = "valid_empty"
		confidence = domain.ConfidenceHigh
		reason = "No actionable doctrine present"
	}

	d.Meta = domain.DoctrineMeta{
		Status:          status,
		ChapterType:     chapterType,
		Reason:          reason,
		DoctrineDensity: density,
		ExtractedChunks: len(agg.Principles) + len(agg.Rules) + len(agg.Claims) + len(agg.Warnings),
		ModelConfidence: confidence,
	}
	return d
}

func (e *Extractor) extractChunk(ctx context.Context, chunk string) (chunkResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, ChunkTimeout)
	defer cancel()

	raw, err := e.Service.Generate(callCtx, llm.GenerateRequest{
		Model:    e.Model,
		System:   systemPrompt,
		Prompt:   chunk,
		JSONMode: true,
		Timeout:  ChunkTimeout,
	})
	if err != nil {
		return chunkResult{}, err
	}

	var parsed rawDoctrineChunk
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return chunkResult{}, fmt.Errorf("%w: %v", domain.ErrLLMInvalidJSON, err)
	}

	result := chunkResult{}
	for _, ds := range parsed.Domains {
		d := domain.ParseDomain(ds)
		if domain.Whitelist[d] {
			result.Domains = append(result.Domains, d)
		}
	}
	for _, p := range parsed.Principles {
		result.Principles = append(result.Principles, normalizePrinciple(p))
	}
	for _, r := range parsed.Rules {
		result.Rules = append(result.Rules, normalizeRule(r))
	}
	for _, c := range parsed.Claims {
		result.Claims = append(result.Claims, normalizeClaim(c))
	}
	for _, w := range parsed.Warnings {
		result.Warnings = append(result.Warnings, normalizeWarning(w))
	}
	return result, nil
}
