// Package driver implements the Pipeline Driver (§4.M): it sequences every
// phase in the ingestion pipeline — text extraction, glyph repair, chapter
// segmentation, doctrine extraction, minister aggregation, node building,
// embedding, and memory commit — over one book directory at a time, with
// artifact-based resume.
package driver

import (
	"log/slog"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/doctrine"
	"github.com/Arjun3125/doctrine-ingest/engine/entitygraph"
	"github.com/Arjun3125/doctrine-ingest/engine/extract"
	"github.com/Arjun3125/doctrine-ingest/engine/memorydb"
	"github.com/Arjun3125/doctrine-ingest/engine/minister"
	"github.com/Arjun3125/doctrine-ingest/engine/ratectl"
	"github.com/Arjun3125/doctrine-ingest/engine/scoring"
	"github.com/Arjun3125/doctrine-ingest/engine/segment"
	"github.com/Arjun3125/doctrine-ingest/engine/vstore"
	"github.com/Arjun3125/doctrine-ingest/pkg/llm"
)

// Artifact file names, stable per §6 ("downstream consumers read these files
// directly").
const (
	RawTextFile          = "00_raw.txt"
	CanonicalTextFile    = "00_canonical_text.txt"
	RepairedTextFile     = "00_raw_repaired.txt"
	ChaptersFile         = "01_chapters.json"
	DoctrineFile         = "02_doctrine.json"
	DoctrineChunksFile   = "02_doctrine_chunks.json"
	MinistersIndexFile   = "ministers_index.json"
	NodesChunksFile      = "03_nodes_chunks.json"
	EmbeddingsFile       = "03_embeddings.json"
	MinisterSummaryFile  = "03_5_minister_conversion.json"
)

// Per-call timeouts (§5).
const (
	ChapterSplitTimeout = 120 * time.Second
)

// Config is the external configuration surface for a Driver (§4.O, §6).
type Config struct {
	StorageRoot string

	OllamaURL         string
	ExtractModel      string
	DeepseekModel     string
	EmbedModel        string
	GlyphRepairModel  string

	DBDSN      string // Qdrant address; empty selects the file-backed vector store
	Neo4jURL   string
	Neo4jUser  string
	Neo4jPass  string

	RateControllerMin     int
	RateControllerMax     int
	RateControllerInitial int
	EmbedWorkers          int

	MissionVector []float32
}

// Deps bundles the collaborators a Driver needs. Each is already wired to
// its own model/cache selection by the caller (cmd/ingest-pipeline); a nil Graph
// disables entity-graph reinforcement, matching §4.N's failure mode.
type Deps struct {
	LLM llm.Service

	Extractor     *extract.TieredExtractor
	GlyphRepairer *extract.GlyphRepairer
	Segmenter     *segment.Segmenter
	DoctrineExtractor *doctrine.Extractor

	VectorStore   vstore.VectorStore
	MinisterStore *minister.Store
	MemoryStore   *memorydb.Store
	Graph         *entitygraph.GraphStore

	RateCtl     *ratectl.Controller
	Maintenance scoring.RetrievalMaintenance

	Metrics *IngestMetrics
	Logger  *slog.Logger
}
