// Package extract implements the Text Extractor (§4.A): a tiered quality
// ladder over pluggable page decoders, plus canonical-text concatenation.
// The PDF byte format and any OCR binary are external collaborators (§1,
// §6) — this package only defines the Decoder seam they plug into.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/pkg/textutil"
)

// QualityThreshold is the minimum acceptable quality_score before the
// tiered extractor tries the next decoder in line.
const QualityThreshold = 0.85

// Decoder turns a file on disk into per-page text. Implementations are
// expected to be pure and side-effect free beyond reading the input file.
type Decoder interface {
	Decode(ctx context.Context, path string) ([]string, error)
}

// TieredExtractor tries each decoder in order, stopping as soon as one
// clears QualityThreshold and shows no glyph-stream markers (§4.A).
type TieredExtractor struct {
	Tiers  []Decoder
	Logger *slog.Logger
}

// NewTieredExtractor builds a TieredExtractor over the given decoders in
// priority order (primary, secondary, OCR, ...).
func NewTieredExtractor(logger *slog.Logger, tiers ...Decoder) *TieredExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TieredExtractor{Tiers: tiers, Logger: logger}
}

// Extract runs the decoder ladder and returns the first acceptable result,
// or the best attempt seen if none clear the quality bar. It fails with
// ErrPDFUnreadable only when every tier yields empty text.
func (e *TieredExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	var best []string
	bestScore := -1.0

	for i, tier := range e.Tiers {
		pages, err := tier.Decode(ctx, path)
		if err != nil {
			e.Logger.Warn("extract: decoder tier failed", "tier", i, "path", path, "err", err)
			continue
		}
		text := Canonical(pages)
		if text == "" {
			continue
		}
		score := textutil.QualityScore(text)
		if score > bestScore {
			best, bestScore = pages, score
		}
		if score > QualityThreshold && !textutil.IsGlyphStream(text) {
			return pages, nil
		}
	}

	if best == nil {
		return nil, domain.NewIngestError(domain.ErrPDFUnreadable, path, 0,
			fmt.Errorf("all %d decoder tier(s) yielded empty text", len(e.Tiers)))
	}
	return best, nil
}

// Canonical concatenates pages with a form-feed separator, matching the
// canonical_text.txt artifact's on-disk representation.
func Canonical(pages []string) string {
	return strings.Join(pages, "\f")
}

// SplitCanonical is the inverse of Canonical, used when resuming from a
// cached 00_canonical_text.txt artifact.
func SplitCanonical(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\f")
}

// PlainTextDecoder reads a file already split into pages by form-feed
// characters. It stands in for "primary decoder" in environments without a
// native PDF library wired in, and is also what tests exercise directly.
type PlainTextDecoder struct{}

func (PlainTextDecoder) Decode(_ context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("extract: read %s: %w", path, err)
	}
	return SplitCanonical(string(data)), nil
}

// NullDecoder always returns empty pages; it models a decoder tier that is
// configured but unavailable (e.g. the OCR binary is not installed).
type NullDecoder struct{}

func (NullDecoder) Decode(context.Context, string) ([]string, error) {
	return nil, nil
}
