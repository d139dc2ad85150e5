package vstore

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/pkg/atomicfile"
)

// FileStore is the file-backed fallback: all records live as JSON under a
// single file, guarded by a reentrant-lock-equivalent sync.RWMutex (a
// single process never holds the lock across a blocking call, so plain
// RWMutex gives the same guarantee a reentrant lock would here). Used when
// DB_DSN is unset (§4.O).
type FileStore struct {
	path string
	mu   sync.RWMutex

	combined []Record
	perDomain map[domain.Domain][]Record
}

type fileStoreDoc struct {
	Combined  []Record                   `json:"combined"`
	PerDomain map[domain.Domain][]Record `json:"per_domain"`
}

// NewFileStore opens (or lazily creates, on first write) the JSON file at path.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, perDomain: make(map[domain.Domain][]Record)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, err
	}
	var doc fileStoreDoc
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	}
	fs.combined = doc.Combined
	if doc.PerDomain != nil {
		fs.perDomain = doc.PerDomain
	}
	return fs, nil
}

// InsertCombined validates dom and appends a record to the combined index.
func (fs *FileStore) InsertCombined(ctx context.Context, dom domain.Domain, category, text string, embedding []float32, sourceBook, sourceChapter string, weight float32) (string, error) {
	if err := domain.ValidateDomain(dom); err != nil {
		return "", err
	}
	id := uuid.NewString()
	rec := Record{ID: id, Domain: dom, Category: category, Text: text, Embedding: embedding, Weight: weight, SourceBook: sourceBook, SourceChapter: sourceChapter}

	fs.mu.Lock()
	fs.combined = append(fs.combined, rec)
	err := fs.flushLocked()
	fs.mu.Unlock()
	return id, err
}

// InsertDomain validates dom and appends a record to that domain's index.
func (fs *FileStore) InsertDomain(ctx context.Context, dom domain.Domain, category, text string, embedding []float32, weight float32) (string, error) {
	if err := domain.ValidateDomain(dom); err != nil {
		return "", err
	}
	id := uuid.NewString()
	rec := Record{ID: id, Domain: dom, Category: category, Text: text, Embedding: embedding, Weight: weight}

	fs.mu.Lock()
	fs.perDomain[dom] = append(fs.perDomain[dom], rec)
	err := fs.flushLocked()
	fs.mu.Unlock()
	return id, err
}

// InsertCombinedBatch inserts many records into the combined index in one flush.
func (fs *FileStore) InsertCombinedBatch(ctx context.Context, records []Record) ([]string, error) {
	ids := make([]string, 0, len(records))
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, r := range records {
		if err := domain.ValidateDomain(r.Domain); err != nil {
			continue
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		fs.combined = append(fs.combined, r)
		ids = append(ids, r.ID)
	}
	return ids, fs.flushLocked()
}

// InsertDomainBatch inserts many records into their respective per-domain indices in one flush.
func (fs *FileStore) InsertDomainBatch(ctx context.Context, records []Record) ([]string, error) {
	ids := make([]string, 0, len(records))
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, r := range records {
		if err := domain.ValidateDomain(r.Domain); err != nil {
			continue
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		fs.perDomain[r.Domain] = append(fs.perDomain[r.Domain], r)
		ids = append(ids, r.ID)
	}
	return ids, fs.flushLocked()
}

// SearchCombined ranks the combined index by weight·cosine(q, embedding).
func (fs *FileStore) SearchCombined(ctx context.Context, q []float32, topK int) ([]Record, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return rank(fs.combined, q, topK), nil
}

// SearchDomain ranks a single domain's index by weight·cosine(q, embedding).
func (fs *FileStore) SearchDomain(ctx context.Context, dom domain.Domain, q []float32, topK int) ([]Record, error) {
	if err := domain.ValidateDomain(dom); err != nil {
		return nil, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return rank(fs.perDomain[dom], q, topK), nil
}

// flushLocked writes the whole store via temp-file+rename, giving the same
// atomic-file invariant as the minister aggregator (§4.J): a crash leaves
// either the old or the new file, never partial JSON. Caller must hold mu.
func (fs *FileStore) flushLocked() error {
	doc := fileStoreDoc{Combined: fs.combined, PerDomain: fs.perDomain}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteJSON(fs.path, raw)
}
