// Package scoring implements the Scoring & Commit Engine (§4.K): per-event
// relevance/novelty/emotional/strategic scoring, the memory-tier decision
// gate, doctrine-diff contradiction detection, and reinforcement against
// the entity graph.
package scoring

import "github.com/Arjun3125/doctrine-ingest/engine/domain"

// Event is a single embedded node considered for memory commit.
type Event struct {
	Embedding     []float32
	RawText       string
	Domain        domain.Domain
	Category      string
	SourceBook    string
	SourceChapter int
	Entities      []string
}

// ScoreBundle is the four-way score breakdown behind a commit decision.
type ScoreBundle struct {
	Relevance        float64
	Novelty          float64
	EmotionalWeight  float64
	StrategicWeight  float64
	ImportanceScore  float64
}

// DoctrineThreshold is the importance score at or above which a commit
// triggers doctrine-diff contradiction checking.
const DoctrineThreshold = 0.75

// RetrievalMaintenance are the explicit post-commit hook points named in
// §4.K with no-op default implementations; a future backend can override them.
type RetrievalMaintenance interface {
	RefreshTopKCache(memoryID string) error
	RecomputeClusterCentroids() error
	UpdateMemorySalience(memoryID string) error
}

// NoopRetrievalMaintenance is the default RetrievalMaintenance: every hook
// point is a no-op until a real caching/clustering backend exists.
type NoopRetrievalMaintenance struct{}

func (NoopRetrievalMaintenance) RefreshTopKCache(memoryID string) error  { return nil }
func (NoopRetrievalMaintenance) RecomputeClusterCentroids() error        { return nil }
func (NoopRetrievalMaintenance) UpdateMemorySalience(memoryID string) error { return nil }
