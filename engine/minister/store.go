package minister

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun3125/doctrine-ingest/pkg/atomicfile"
)

// Store roots the minister directory tree at a data directory, laid out as
// <root>/ministers/<domain>/{principles,rules,claims,warnings}.json plus
// doctrine.json, and <root>/combined_vector.index at the top level.
type Store struct {
	Root string
}

// NewStore creates a Store rooted at root.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) ministersRoot() string {
	return filepath.Join(s.Root, "ministers")
}

func (s *Store) domainPath(dom string) string {
	return filepath.Join(s.ministersRoot(), dom)
}

// EnsureDomainStructure creates the directory and any missing category or
// summary files for dom, seeded with zero entries.
func (s *Store) EnsureDomainStructure(dom string) error {
	domainPath := s.domainPath(dom)
	if err := os.MkdirAll(domainPath, 0o755); err != nil {
		return fmt.Errorf("minister: mkdir %s: %w", domainPath, err)
	}

	for _, category := range Categories {
		file := filepath.Join(domainPath, category+".json")
		if _, err := os.Stat(file); err == nil {
			continue
		}
		doc := CategoryDocument{
			Domain:   dom,
			Category: category,
			Entries:  []CategoryEntry{},
			Meta:     CategoryMeta{AggregatedFrom: []SourceRef{}},
		}
		if err := writeCategoryDocument(file, doc); err != nil {
			return err
		}
	}

	summaryFile := filepath.Join(domainPath, "doctrine.json")
	if _, err := os.Stat(summaryFile); os.IsNotExist(err) {
		summary := DoctrineSummary{Domain: dom, Type: "domain_summary", Consolidated: true}
		if err := writeDoctrineSummary(summaryFile, summary); err != nil {
			return err
		}
	}
	return nil
}

// AddCategoryEntry appends one entry to dom's category file and returns its
// generated id. The write is atomic (temp file + rename, §4.J).
func (s *Store) AddCategoryEntry(dom, category, text, book string, chapter int, weight float64) (string, error) {
	if err := s.EnsureDomainStructure(dom); err != nil {
		return "", err
	}
	file := filepath.Join(s.domainPath(dom), category+".json")

	doc, err := readCategoryDocument(file)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	doc.Entries = append(doc.Entries, CategoryEntry{
		ID:     id,
		Text:   text,
		Source: SourceRef{Book: book, Chapter: chapter},
		Weight: weight,
	})

	src := SourceRef{Book: book, Chapter: chapter}
	found := false
	for _, existing := range doc.Meta.AggregatedFrom {
		if existing == src {
			found = true
			break
		}
	}
	if !found {
		doc.Meta.AggregatedFrom = append(doc.Meta.AggregatedFrom, src)
	}

	now := time.Now().UTC()
	doc.Meta.TotalEntries = len(doc.Entries)
	doc.Meta.LastUpdated = &now

	if err := writeCategoryDocument(file, doc); err != nil {
		return "", err
	}
	return id, nil
}

func readCategoryDocument(file string) (CategoryDocument, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return CategoryDocument{}, fmt.Errorf("minister: read %s: %w", file, err)
	}
	var doc CategoryDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return CategoryDocument{}, fmt.Errorf("minister: decode %s: %w", file, err)
	}
	return doc, nil
}

func writeCategoryDocument(file string, doc CategoryDocument) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteJSON(file, raw)
}

func writeDoctrineSummary(file string, summary DoctrineSummary) error {
	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteJSON(file, raw)
}

// readDoctrineSummary loads a domain's doctrine.json, used when refreshing
// its aggregate counters after a category append.
func readDoctrineSummary(file string) (DoctrineSummary, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return DoctrineSummary{}, fmt.Errorf("minister: read %s: %w", file, err)
	}
	var summary DoctrineSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return DoctrineSummary{}, fmt.Errorf("minister: decode %s: %w", file, err)
	}
	return summary, nil
}
