package minister

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Arjun3125/doctrine-ingest/pkg/atomicfile"
)

// UpdateCombinedVectorIndex rescans every domain folder under ministers/
// and rewrites combined_vector.index with a fresh summary, atomically.
func (s *Store) UpdateCombinedVectorIndex() error {
	indexPath := filepath.Join(s.Root, "combined_vector.index")
	ministersRoot := s.ministersRoot()

	stats := make(map[string]DomainStat)
	domains := make([]string, 0)
	totalEntries := 0

	entries, err := os.ReadDir(ministersRoot)
	if err != nil {
		if os.IsNotExist(err) {
			entries = nil
		} else {
			return err
		}
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dom := e.Name()
		count := 0
		var lastUpdated *time.Time

		for _, category := range Categories {
			file := filepath.Join(ministersRoot, dom, category+".json")
			if _, err := os.Stat(file); err != nil {
				continue
			}
			doc, err := readCategoryDocument(file)
			if err != nil {
				return err
			}
			count += len(doc.Entries)
			if doc.Meta.LastUpdated != nil && (lastUpdated == nil || doc.Meta.LastUpdated.After(*lastUpdated)) {
				lastUpdated = doc.Meta.LastUpdated
			}
		}

		if count > 0 {
			stats[dom] = DomainStat{TotalEntries: count, LastUpdated: lastUpdated}
			domains = append(domains, dom)
			totalEntries += count
		}
	}

	sort.Strings(domains)

	index := CombinedIndex{
		Domain:           "all",
		Combined:         true,
		DomainsIncluded:  domains,
		DomainStatistics: stats,
		Metadata: CombinedIndexMeta{
			Created:      time.Now().UTC(),
			TotalDomains: len(domains),
			TotalEntries: totalEntries,
		},
	}

	raw, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteJSON(indexPath, raw)
}
