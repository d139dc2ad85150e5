package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/engine/entitygraph"
	"github.com/Arjun3125/doctrine-ingest/engine/memorydb"
	"github.com/Arjun3125/doctrine-ingest/engine/vstore"
)

// relatedBeliefCandidates bounds how many similar prior beliefs doctrine-diff inspects.
const relatedBeliefCandidates = 20

// CommitEngine scores embedded nodes, routes them through the decision
// gate, commits survivors to the memory and vector stores, and runs
// doctrine-diff plus entity-graph reinforcement on the result (§4.K).
type CommitEngine struct {
	VectorStore vstore.VectorStore
	MemoryStore *memorydb.Store
	Graph       *entitygraph.GraphStore // nil: reinforcement is skipped, not failed
	Maintenance RetrievalMaintenance
	Logger      *slog.Logger
}

// NewCommitEngine builds a CommitEngine with sane defaults for optional fields.
func NewCommitEngine(vs vstore.VectorStore, ms *memorydb.Store, graph *entitygraph.GraphStore, logger *slog.Logger) *CommitEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitEngine{VectorStore: vs, MemoryStore: ms, Graph: graph, Maintenance: NoopRetrievalMaintenance{}, Logger: logger}
}

// Score computes ev's ScoreBundle against the engine's current novelty window.
func (c *CommitEngine) Score(ev Event, missionVector []float32) ScoreBundle {
	recent := c.MemoryStore.RecentEmbeddings(noveltyWindow)
	return ScoreEvent(ev, missionVector, recent)
}

// Commit routes ev through the decision gate and, unless dropped, persists
// it to the memory store and (when domain-valid) both vector store indices.
// It returns the committed record and its assigned route; DROP commits
// return a zero-value record and domain.DroppedMemory with no error.
func (c *CommitEngine) Commit(ctx context.Context, ev Event, scores ScoreBundle) (domain.MemoryRecord, domain.MemoryType, error) {
	route := DecisionGate(scores.ImportanceScore)
	if route == domain.DroppedMemory {
		return domain.MemoryRecord{}, route, nil
	}

	rec := domain.MemoryRecord{
		Content:         ev.RawText,
		MemoryType:      route,
		ImportanceScore: scores.ImportanceScore,
		NoveltyScore:    scores.Novelty,
		StrategicWeight: scores.StrategicWeight,
		EmotionalWeight: scores.EmotionalWeight,
		Domain:          ev.Domain,
		CreatedAt:       time.Now().UTC(),
	}

	id, err := c.MemoryStore.InsertMemory(ctx, rec)
	if err != nil {
		return domain.MemoryRecord{}, route, fmt.Errorf("scoring: insert memory: %w", err)
	}
	rec.ID = id

	if len(ev.Embedding) > 0 {
		if err := c.MemoryStore.InsertEmbedding(ctx, id, ev.Embedding); err != nil {
			c.Logger.Warn("scoring: failed to record embedding in novelty window", "memory_id", id, "err", err)
		}
		if err := domain.ValidateDomain(ev.Domain); err == nil && c.VectorStore != nil {
			if _, err := c.VectorStore.InsertCombined(ctx, ev.Domain, ev.Category, ev.RawText, ev.Embedding, ev.SourceBook, fmt.Sprint(ev.SourceChapter), 1.0); err != nil {
				c.Logger.Warn("scoring: combined vector store insert failed", "memory_id", id, "err", err)
			}
			if _, err := c.VectorStore.InsertDomain(ctx, ev.Domain, ev.Category, ev.RawText, ev.Embedding, 1.0); err != nil {
				c.Logger.Warn("scoring: per-domain vector store insert failed", "memory_id", id, "err", err)
			}
		}
	}

	return rec, route, nil
}

// DoctrineDiff retrieves stored beliefs related to memory by similarity and
// flags any whose text carries the opposite "not"-polarity from memory's
// content, opening a pending doctrine patch for each. Called only for
// GLOBAL_MEMORY commits (§4.K). The polarity test is a plain substring check
// for "not", so words such as "nothing" or "note" also count as negation.
func (c *CommitEngine) DoctrineDiff(ctx context.Context, memory domain.MemoryRecord, embedding []float32) ([]string, error) {
	if c.VectorStore == nil || len(embedding) == 0 {
		return nil, nil
	}
	candidates, err := c.VectorStore.SearchCombined(ctx, embedding, relatedBeliefCandidates)
	if err != nil {
		return nil, fmt.Errorf("scoring: retrieve related beliefs: %w", err)
	}

	memoryNegates := strings.Contains(strings.ToLower(memory.Content), "not")
	var patchIDs []string
	for _, belief := range candidates {
		beliefNegates := strings.Contains(strings.ToLower(belief.Text), "not")
		if beliefNegates == memoryNegates {
			continue // same polarity, not a contradiction candidate
		}
		patchID, err := c.MemoryStore.CreateDoctrinePatch(ctx, memory.ID, belief.ID)
		if err != nil {
			return patchIDs, fmt.Errorf("scoring: create doctrine patch: %w", err)
		}
		patchIDs = append(patchIDs, patchID)
	}
	return patchIDs, nil
}

// Reinforce bumps the domain's attention prior and every mentioned entity's
// weight in the entity graph (§4.K, §4.N). A nil Graph or a graph write
// failure is logged and does not fail the commit — the graph is an
// enrichment layer, not the authoritative side effect.
func (c *CommitEngine) Reinforce(ctx context.Context, memory domain.MemoryRecord, scores ScoreBundle, entities []string) {
	if c.Graph == nil {
		return
	}

	domainNodeID := "domain:" + string(memory.Domain)
	if err := c.Graph.UpsertNode(ctx, entitygraph.EntityNode{
		ID: domainNodeID, Kind: "domain", Name: string(memory.Domain), Weight: 0.1 * scores.ImportanceScore,
	}); err != nil {
		c.Logger.Warn("scoring: entity graph domain reinforcement failed", "domain", memory.Domain, "err", err)
		return
	}

	for _, entity := range entities {
		entityNodeID := "entity:" + entity
		if err := c.Graph.UpsertNode(ctx, entitygraph.EntityNode{
			ID: entityNodeID, Kind: "entity", Name: entity, Weight: 0.05 * scores.ImportanceScore,
		}); err != nil {
			c.Logger.Warn("scoring: entity graph entity reinforcement failed", "entity", entity, "err", err)
			continue
		}
		if err := c.Graph.UpsertRelationship(ctx, entitygraph.Relationship{
			ID: memory.ID + ":" + entityNodeID, From: domainNodeID, To: entityNodeID, Type: "MENTIONS",
		}); err != nil {
			c.Logger.Warn("scoring: entity graph relationship write failed", "entity", entity, "err", err)
		}
	}
}

// OptimizeRetrievalIndices runs the post-commit maintenance hooks.
func (c *CommitEngine) OptimizeRetrievalIndices(memoryID string) error {
	if err := c.Maintenance.RefreshTopKCache(memoryID); err != nil {
		return err
	}
	if err := c.Maintenance.RecomputeClusterCentroids(); err != nil {
		return err
	}
	return c.Maintenance.UpdateMemorySalience(memoryID)
}
