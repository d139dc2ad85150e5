package memorydb

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/pkg/atomicfile"
)

// Store is the file-backed memory database: committed MemoryRecords, their
// embeddings (kept in insertion order for the novelty sliding window), and
// pending doctrine patches, all persisted atomically as a single JSON document.
type Store struct {
	path string
	mu   sync.RWMutex

	memories        map[string]domain.MemoryRecord
	embeddings      map[string][]float32
	embeddingOrder  []string
	doctrinePatches map[string]DoctrinePatch
}

type storeDoc struct {
	Memories        map[string]domain.MemoryRecord `json:"memories"`
	Embeddings      map[string][]float32            `json:"embeddings"`
	EmbeddingOrder  []string                         `json:"embedding_order"`
	DoctrinePatches map[string]DoctrinePatch        `json:"doctrine_patches"`
}

// NewStore opens (or lazily creates, on first write) the JSON file at path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:            path,
		memories:        make(map[string]domain.MemoryRecord),
		embeddings:      make(map[string][]float32),
		doctrinePatches: make(map[string]DoctrinePatch),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return s, nil
	}
	var doc storeDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Memories != nil {
		s.memories = doc.Memories
	}
	if doc.Embeddings != nil {
		s.embeddings = doc.Embeddings
	}
	s.embeddingOrder = doc.EmbeddingOrder
	if doc.DoctrinePatches != nil {
		s.doctrinePatches = doc.DoctrinePatches
	}
	return s, nil
}

// InsertMemory stores rec (assigning an id if empty) and returns its id.
func (s *Store) InsertMemory(ctx context.Context, rec domain.MemoryRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories[rec.ID] = rec
	return rec.ID, s.flushLocked()
}

// InsertEmbedding records memoryID's embedding, appending it to the
// insertion-ordered window used for novelty scoring.
func (s *Store) InsertEmbedding(ctx context.Context, memoryID string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.embeddings[memoryID]; !exists {
		s.embeddingOrder = append(s.embeddingOrder, memoryID)
	}
	s.embeddings[memoryID] = embedding
	return s.flushLocked()
}

// RecentEmbeddings returns up to the last `window` committed embeddings, in
// insertion order, for the novelty sliding-window computation (§4.K).
func (s *Store) RecentEmbeddings(window int) [][]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if window <= 0 || window > len(s.embeddingOrder) {
		window = len(s.embeddingOrder)
	}
	start := len(s.embeddingOrder) - window
	out := make([][]float32, 0, window)
	for _, id := range s.embeddingOrder[start:] {
		out = append(out, s.embeddings[id])
	}
	return out
}

// CreateDoctrinePatch records a pending conflict between triggeringMemory
// and conflictingBelief for later human or automated resolution.
func (s *Store) CreateDoctrinePatch(ctx context.Context, triggeringMemory, conflictingBelief string) (string, error) {
	patch := DoctrinePatch{
		ID:                uuid.NewString(),
		TriggeringMemory:  triggeringMemory,
		ConflictingBelief: conflictingBelief,
		ResolutionStatus:  "pending",
		CreatedAt:         time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctrinePatches[patch.ID] = patch
	return patch.ID, s.flushLocked()
}

// DoctrinePatches returns a snapshot of all pending/resolved patches.
func (s *Store) DoctrinePatches() []DoctrinePatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DoctrinePatch, 0, len(s.doctrinePatches))
	for _, p := range s.doctrinePatches {
		out = append(out, p)
	}
	return out
}

func (s *Store) flushLocked() error {
	doc := storeDoc{
		Memories:        s.memories,
		Embeddings:      s.embeddings,
		EmbeddingOrder:  s.embeddingOrder,
		DoctrinePatches: s.doctrinePatches,
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteJSON(s.path, raw)
}
