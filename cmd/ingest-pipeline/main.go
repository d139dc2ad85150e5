// Command ingest-pipeline runs the document-ingestion pipeline (§4.M) over
// a folder of PDFs, committing extracted doctrine into the vector, memory,
// minister, and entity-graph stores, and exposing progress over a status
// HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Arjun3125/doctrine-ingest/engine/doctrine"
	"github.com/Arjun3125/doctrine-ingest/engine/driver"
	"github.com/Arjun3125/doctrine-ingest/engine/entitygraph"
	"github.com/Arjun3125/doctrine-ingest/engine/extract"
	"github.com/Arjun3125/doctrine-ingest/engine/memorydb"
	"github.com/Arjun3125/doctrine-ingest/engine/minister"
	"github.com/Arjun3125/doctrine-ingest/engine/ratectl"
	"github.com/Arjun3125/doctrine-ingest/engine/segment"
	"github.com/Arjun3125/doctrine-ingest/engine/vstore"
	"github.com/Arjun3125/doctrine-ingest/internal/status"
	"github.com/Arjun3125/doctrine-ingest/pkg/metrics"
	"github.com/Arjun3125/doctrine-ingest/pkg/mid"
	"github.com/Arjun3125/doctrine-ingest/pkg/ollama"
)

// embeddingDims matches nomic-embed-text, the default OLLAMA_EMBED_MODEL.
const embeddingDims = 768

// Config is this command's environment-based configuration (§4.O), following
// cmd/api's envOr convention.
type Config struct {
	InputDir    string
	StorageRoot string
	Fresh       bool

	OllamaURL        string
	ExtractModel     string
	DoctrineModel    string
	EmbedModel       string
	GlyphRepairModel string

	DBDSN     string
	Neo4jURL  string
	Neo4jUser string
	Neo4jPass string

	RateMin     int
	RateMax     int
	RateInitial int
	Workers     int

	StatusPort int
	CORSOrigin string

	MissionVector []float32
}

func loadConfig() Config {
	return Config{
		InputDir:         envOr("INGEST_INPUT_DIR", "/data/books"),
		StorageRoot:      envOr("INGEST_STORAGE_ROOT", "/data/storage"),
		Fresh:            envOr("INGEST_FRESH", "false") == "true",
		OllamaURL:        envOr("OLLAMA_URL", "http://localhost:11434"),
		ExtractModel:     envOr("OLLAMA_EXTRACT_MODEL", "llama3"),
		DoctrineModel:    envOr("OLLAMA_DEEPSEEK_MODEL", "llama3"),
		EmbedModel:       envOr("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		GlyphRepairModel: envOr("OLLAMA_GLYPH_REPAIR_MODEL", "llama3"),
		DBDSN:            envOr("DB_DSN", ""),
		Neo4jURL:         envOr("NEO4J_URL", ""),
		Neo4jUser:        envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:        envOr("NEO4J_PASS", ""),
		RateMin:          envOrInt("RATE_MIN", 1),
		RateMax:          envOrInt("RATE_MAX", 16),
		RateInitial:      envOrInt("RATE_INITIAL", 4),
		Workers:          envOrInt("EMBED_WORKERS", 4),
		StatusPort:       envOrInt("STATUS_PORT", 8090),
		CORSOrigin:       envOr("CORS_ORIGIN", "*"),
		MissionVector:    parseVector(envOr("MISSION_VECTOR", "")),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseVector(csv string) []float32 {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	vec := make([]float32, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			continue
		}
		vec = append(vec, float32(f))
	}
	return vec
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var oneShot string
	flag.StringVar(&oneShot, "pdf", "", "ingest a single PDF and exit instead of watching -dir")
	flag.Parse()

	cfg := loadConfig()
	if err := run(cfg, oneShot, logger); err != nil {
		logger.Error("ingest-pipeline exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, oneShotPDF string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llmSvc := ollama.NewClient(cfg.OllamaURL)

	var vs vstore.VectorStore
	if cfg.DBDSN != "" {
		qs, err := vstore.NewQdrantStore(cfg.DBDSN, embeddingDims)
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		vs = qs
	} else {
		fs, err := vstore.NewFileStore(filepath.Join(cfg.StorageRoot, "vectors.json"))
		if err != nil {
			return fmt.Errorf("file vector store: %w", err)
		}
		vs = fs
	}

	memStore, err := memorydb.NewStore(filepath.Join(cfg.StorageRoot, "memory.json"))
	if err != nil {
		return fmt.Errorf("memory store: %w", err)
	}

	var graphStore *entitygraph.GraphStore
	if cfg.Neo4jURL != "" {
		neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer neo4jDriver.Close(ctx)
		if err := neo4jDriver.VerifyConnectivity(ctx); err != nil {
			logger.Warn("neo4j unreachable, entity-graph reinforcement disabled", "err", err)
		} else {
			graphStore = entitygraph.New(neo4jDriver)
		}
	}

	reg := metrics.New()
	ingestMetrics := driver.NewIngestMetrics(reg)

	deps := driver.Deps{
		LLM:               llmSvc,
		Extractor:         extract.NewTieredExtractor(logger, extract.PlainTextDecoder{}),
		GlyphRepairer:     extract.NewGlyphRepairer(llmSvc, cfg.GlyphRepairModel, extract.NewMemCache(), logger),
		Segmenter:         segment.NewSegmenter(llmSvc, cfg.ExtractModel, segment.NewMemDecisionCache(), logger),
		DoctrineExtractor: doctrine.NewExtractor(llmSvc, cfg.DoctrineModel, doctrine.NewMemCheckpoint(), logger),
		VectorStore:       vs,
		MinisterStore:     minister.NewStore(filepath.Join(cfg.StorageRoot, "ministers")),
		MemoryStore:       memStore,
		Graph:             graphStore,
		RateCtl:           ratectl.NewController(cfg.RateMin, cfg.RateMax, cfg.RateInitial),
		Metrics:           ingestMetrics,
		Logger:            logger,
	}
	driverCfg := driver.Config{
		StorageRoot:   cfg.StorageRoot,
		EmbedModel:    cfg.EmbedModel,
		DBDSN:         cfg.DBDSN,
		Neo4jURL:      cfg.Neo4jURL,
		Neo4jUser:     cfg.Neo4jUser,
		Neo4jPass:     cfg.Neo4jPass,
		EmbedWorkers:  cfg.Workers,
		MissionVector: cfg.MissionVector,
	}
	pipeline := driver.New(driverCfg, deps)

	mux := http.NewServeMux()
	status.New(cfg.StorageRoot, reg, graphStore, logger).Routes(mux)
	handler := mid.Chain(mux, mid.Recover(logger), mid.Logger(logger), mid.CORS(cfg.CORSOrigin))
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.StatusPort), Handler: handler}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("status server starting", "port", cfg.StatusPort)
		srvErr <- srv.ListenAndServe()
	}()

	ingestDone := make(chan error, 1)
	go func() {
		if oneShotPDF != "" {
			ingestDone <- pipeline.Ingest(ctx, oneShotPDF, !cfg.Fresh)
			return
		}
		ingestDone <- pipeline.IngestFolder(ctx, cfg.InputDir, cfg.Fresh)
	}()

	select {
	case err := <-ingestDone:
		if err != nil {
			logger.Error("ingestion run finished with errors", "err", err)
		}
	case err := <-srvErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
