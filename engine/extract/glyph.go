package extract

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/pkg/fn"
	"github.com/Arjun3125/doctrine-ingest/pkg/llm"
	"github.com/Arjun3125/doctrine-ingest/pkg/textutil"
)

const glyphRepairSystemPrompt = "Repair font-encoding and glyph artifacts in the following text. " +
	"Do not summarize, paraphrase, or drop content — return the same text with garbled characters fixed."

// GlyphRepairTimeout bounds a single chunk's repair call (§5).
const GlyphRepairTimeout = 30 * time.Second

// DefaultRepairConcurrency matches §4.B's default bounded parallelism.
const DefaultRepairConcurrency = 4

// Cache is the pluggable, content-hash keyed store backing repaired-chunk
// memoization (§9 "global mutable state... cache is a content-hash keyed
// store with a pluggable backend").
type Cache interface {
	Get(key string) (string, bool)
	Put(key, value string)
}

// MemCache is an in-process Cache implementation safe for concurrent use.
type MemCache struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemCache() *MemCache { return &MemCache{data: make(map[string]string)} }

func (c *MemCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *MemCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// GlyphRepairer repairs font-encoding artifacts in canonical text via the LLM.
type GlyphRepairer struct {
	Service     llm.Service
	Model       string
	Cache       Cache
	Concurrency int
	Logger      *slog.Logger
}

// NewGlyphRepairer builds a GlyphRepairer with the given model and cache.
func NewGlyphRepairer(svc llm.Service, model string, cache Cache, logger *slog.Logger) *GlyphRepairer {
	if cache == nil {
		cache = NewMemCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GlyphRepairer{Service: svc, Model: model, Cache: cache, Concurrency: DefaultRepairConcurrency, Logger: logger}
}

// NeedsRepair reports whether text looks glyph-encoded per §4.B.
func NeedsRepair(text string) bool {
	return textutil.LooksGlyphEncoded(text)
}

// Repair splits text into ≤8000-char chunks at paragraph boundaries and
// repairs each one under bounded parallelism, returning the rejoined text.
// A chunk whose repair call fails is passed through unchanged (§7
// GlyphRepairFailed: recovered locally).
func (g *GlyphRepairer) Repair(ctx context.Context, text string) string {
	chunks := textutil.ChunkByParagraph(text, textutil.DefaultMaxChars)
	if len(chunks) == 0 {
		return text
	}

	concurrency := g.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultRepairConcurrency
	}

	results := fn.ParMap(chunks, concurrency, func(chunk string) string {
		return g.repairChunk(ctx, chunk)
	})

	return joinRepaired(results)
}

func joinRepaired(parts []string) string {
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "\n\n"
		}
		s += p
	}
	return s
}

func (g *GlyphRepairer) repairChunk(ctx context.Context, chunk string) string {
	key := domain.ContentHash(chunk)
	if cached, ok := g.Cache.Get(key); ok {
		return cached
	}

	repairCtx, cancel := context.WithTimeout(ctx, GlyphRepairTimeout)
	defer cancel()

	repaired, err := g.Service.Generate(repairCtx, llm.GenerateRequest{
		Model:   g.Model,
		System:  glyphRepairSystemPrompt,
		Prompt:  chunk,
		Timeout: GlyphRepairTimeout,
	})
	if err != nil || repaired == "" {
		g.Logger.Warn("glyph repair failed, passing chunk through unchanged",
			"err", err, "chunk_len", len(chunk))
		return chunk
	}

	g.Cache.Put(key, repaired)
	return repaired
}
