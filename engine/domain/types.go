// Package domain defines the core doctrine data model, the domain whitelist,
// and validation for the ingestion pipeline. It acts as the validation gate
// at every pipeline boundary that touches domain-tagged data.
package domain

import "time"

// Domain is an element of the closed doctrine-domain whitelist.
type Domain string

// Whitelist is the closed set of valid doctrine domains. Any domain not in
// this set fails validation; callers must treat that as "skip routing",
// never as a hard error (see ValidateDomain).
const (
	Adaptation  Domain = "adaptation"
	Base        Domain = "base"
	Conflict    Domain = "conflict"
	Constraints Domain = "constraints"
	Data        Domain = "data"
	Diplomacy   Domain = "diplomacy"
	Discipline  Domain = "discipline"
	Executor    Domain = "executor"
	Legitimacy  Domain = "legitimacy"
	Optionality Domain = "optionality"
	Power       Domain = "power"
	Psychology  Domain = "psychology"
	Registry    Domain = "registry"
	Risk        Domain = "risk"
	Strategy    Domain = "strategy"
	Technology  Domain = "technology"
	Timing      Domain = "timing"
	Truth       Domain = "truth"
	KeyConstr   Domain = "key_constr"
)

// Whitelist enumerates every valid Domain. Changing this set is an API
// break for every downstream consumer (§6 of the spec).
var Whitelist = map[Domain]bool{
	Adaptation: true, Base: true, Conflict: true, Constraints: true,
	Data: true, Diplomacy: true, Discipline: true, Executor: true,
	Legitimacy: true, Optionality: true, Power: true, Psychology: true,
	Registry: true, Risk: true, Strategy: true, Technology: true,
	Timing: true, Truth: true, KeyConstr: true,
}

// ChapterType classifies a chapter after doctrine extraction.
type ChapterType string

const (
	ChapterDoctrinal   ChapterType = "doctrinal"
	ChapterNarrative   ChapterType = "narrative"
	ChapterCommentary  ChapterType = "commentary"
	ChapterIntroductory ChapterType = "introductory"
)

// ModelConfidence reflects how much the extractor trusts its own output.
type ModelConfidence string

const (
	ConfidenceHigh   ModelConfidence = "high"
	ConfidenceMedium ModelConfidence = "medium"
	ConfidenceLow    ModelConfidence = "low"
)

// NodeType tags an atomic doctrine node.
type NodeType string

const (
	NodePrinciple NodeType = "principle"
	NodeRule      NodeType = "rule"
	NodeWarning   NodeType = "warning"
	NodeClaim     NodeType = "claim"
)

// TypeLetter returns the canonical single-letter tag used in node IDs.
func (t NodeType) TypeLetter() string {
	switch t {
	case NodePrinciple:
		return "P"
	case NodeRule:
		return "R"
	case NodeWarning:
		return "W"
	case NodeClaim:
		return "L"
	default:
		return "X"
	}
}

// MemoryType is the tier a scored event is routed to by the decision gate.
type MemoryType string

const (
	SessionMemory MemoryType = "SESSION_MEMORY"
	ProjectMemory MemoryType = "PROJECT_MEMORY"
	GlobalMemory  MemoryType = "GLOBAL_MEMORY"
	DroppedMemory MemoryType = "DROP"
)

// Chapter is one segmented unit of a book's canonical text.
type Chapter struct {
	ChapterIndex int    `json:"chapter_index"`
	ChapterID    string `json:"chapter_id"`
	ChapterTitle string `json:"chapter_title,omitempty"`
	RawText      string `json:"raw_text"`
}

// Principle is a paraphrased, generalized operational statement.
type Principle struct {
	ID             string `json:"id"`
	Statement      string `json:"statement"`
	AbstractedFrom string `json:"abstracted_from,omitempty"`
}

// Rule is a condition/action pair.
type Rule struct {
	Condition string `json:"condition"`
	Action    string `json:"action"`
}

// Warning is a situation/risk pair.
type Warning struct {
	Situation string `json:"situation"`
	Risk      string `json:"risk,omitempty"`
}

// Claim is an assertion with optional confidence.
type Claim struct {
	Claim      string   `json:"claim"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// DoctrineMeta carries classification metadata for one chapter's doctrine.
type DoctrineMeta struct {
	Status          string          `json:"status"`
	ChapterType     ChapterType     `json:"chapter_type"`
	Reason          string          `json:"reason,omitempty"`
	DoctrineDensity float64         `json:"doctrine_density"`
	ExtractedChunks int             `json:"extracted_chunks"`
	ModelConfidence ModelConfidence `json:"model_confidence"`
}

// Doctrine is the structured, normalized extraction result for one chapter.
type Doctrine struct {
	ChapterIndex int          `json:"chapter_index"`
	ChapterTitle string       `json:"chapter_title,omitempty"`
	Domains      []Domain     `json:"domains"`
	Principles   []Principle  `json:"principles"`
	Rules        []Rule       `json:"rules"`
	Warnings     []Warning    `json:"warnings"`
	Claims       []Claim      `json:"claims"`
	Meta         DoctrineMeta `json:"_meta"`
}

// NodeMetadata carries provenance for one Node.
type NodeMetadata struct {
	Chapter        int     `json:"chapter"`
	Domain         Domain  `json:"domain,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	AbstractedFrom string  `json:"abstracted_from,omitempty"`
	SourceID       string  `json:"source_id,omitempty"`
}

// Node is an atomic, individually addressable piece of doctrine.
type Node struct {
	NodeID   string       `json:"node_id"`
	Type     NodeType     `json:"type"`
	Text     string       `json:"text"`
	Metadata NodeMetadata `json:"metadata"`
}

// Embeddable reports whether nodes of this type are sent to the embedding worker.
func (n Node) Embeddable() bool {
	return n.Type == NodePrinciple || n.Type == NodeRule || n.Type == NodeClaim
}

// Chunk is the carrier type flowing through the async orchestrator's queues.
type Chunk struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Domain         Domain    `json:"domain"`
	Category       string    `json:"category"` // principles|rules|claims|warnings|content
	Embedding      []float32 `json:"embedding,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	SourceBook     string    `json:"source_book"`
	SourceChapter  int       `json:"source_chapter"`
}

// MemoryRecord is the post-embedding record committed by the scoring engine.
type MemoryRecord struct {
	ID               string     `json:"id"`
	Content          string     `json:"content"`
	MemoryType       MemoryType `json:"memory_type"`
	ImportanceScore  float64    `json:"importance_score"`
	NoveltyScore     float64    `json:"novelty_score"`
	StrategicWeight  float64    `json:"strategic_weight"`
	EmotionalWeight  float64    `json:"emotional_weight"`
	Domain           Domain     `json:"domain"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ProgressRecord is written to progress.json on every phase transition.
type ProgressRecord struct {
	Phase     string            `json:"phase"`
	Message   string            `json:"message"`
	Current   int               `json:"current"`
	Total     int               `json:"total"`
	Status    string            `json:"status"` // running|completed
	Percent   float64           `json:"percent"`
	Counts    map[string]int    `json:"counts,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
