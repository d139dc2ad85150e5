package minister

import (
	"fmt"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

// ProgressFunc reports incremental phase-3.5 progress, matching the
// driver's progress-store signature (§4.L).
type ProgressFunc func(message string, current, total int)

// ProcessChapterDoctrine fans a chapter's doctrine out into every domain it
// was tagged with, appending the same principles/rules/claims/warnings to
// each domain's consolidated category files. Returns the entry ids created
// per domain.
func (s *Store) ProcessChapterDoctrine(d domain.Doctrine, bookSlug string, progress ProgressFunc) (map[string][]string, error) {
	entries := make(map[string][]string)

	for i, dom := range d.Domains {
		domName := string(dom)
		var created []string

		for _, p := range d.Principles {
			id, err := s.AddCategoryEntry(domName, "principles", p.Statement, bookSlug, d.ChapterIndex, 1.0)
			if err != nil {
				return nil, err
			}
			created = append(created, id)
		}
		for _, r := range d.Rules {
			text := fmt.Sprintf("IF %s THEN %s", r.Condition, r.Action)
			id, err := s.AddCategoryEntry(domName, "rules", text, bookSlug, d.ChapterIndex, 1.0)
			if err != nil {
				return nil, err
			}
			created = append(created, id)
		}
		for _, c := range d.Claims {
			id, err := s.AddCategoryEntry(domName, "claims", c.Claim, bookSlug, d.ChapterIndex, 1.0)
			if err != nil {
				return nil, err
			}
			created = append(created, id)
		}
		for _, w := range d.Warnings {
			text := fmt.Sprintf("SITUATION: %s. RISK: %s", w.Situation, w.Risk)
			id, err := s.AddCategoryEntry(domName, "warnings", text, bookSlug, d.ChapterIndex, 1.0)
			if err != nil {
				return nil, err
			}
			created = append(created, id)
		}

		if err := s.refreshDoctrineSummary(domName); err != nil {
			return nil, err
		}

		entries[domName] = created
		if progress != nil {
			progress(fmt.Sprintf("processed domain %s", domName), i+1, len(d.Domains))
		}
	}

	return entries, nil
}

// refreshDoctrineSummary recomputes a domain's doctrine.json counters from
// its four category files' current totals.
func (s *Store) refreshDoctrineSummary(dom string) error {
	summaryFile := fmt.Sprintf("%s/doctrine.json", s.domainPath(dom))
	summary, err := readDoctrineSummary(summaryFile)
	if err != nil {
		return err
	}

	total := 0
	var latest *time.Time
	for _, category := range Categories {
		file := fmt.Sprintf("%s/%s.json", s.domainPath(dom), category)
		doc, err := readCategoryDocument(file)
		if err != nil {
			return err
		}
		total += len(doc.Entries)
		if doc.Meta.LastUpdated != nil && (latest == nil || doc.Meta.LastUpdated.After(*latest)) {
			latest = doc.Meta.LastUpdated
		}
	}

	summary.Meta.TotalEntries = total
	summary.Meta.LastUpdated = latest
	return writeDoctrineSummary(summaryFile, summary)
}

// ConvertAllDoctrines processes every chapter's doctrine and returns
// aggregate statistics, mirroring the original book-level conversion pass.
func (s *Store) ConvertAllDoctrines(doctrines []domain.Doctrine, bookSlug string, progress ProgressFunc) (Summary, error) {
	domainStats := make(map[string]int)
	totalEntries := 0

	for i, d := range doctrines {
		entries, err := s.ProcessChapterDoctrine(d, bookSlug, nil)
		if err != nil {
			return Summary{}, fmt.Errorf("minister: chapter %d: %w", d.ChapterIndex, err)
		}
		for dom, ids := range entries {
			domainStats[dom] += len(ids)
			totalEntries += len(ids)
		}
		if progress != nil {
			progress(fmt.Sprintf("converted chapter %d/%d", i+1, len(doctrines)), i+1, len(doctrines))
		}
	}

	return Summary{
		Status:                 "success",
		TotalChaptersProcessed: len(doctrines),
		TotalEntriesCreated:    totalEntries,
		DomainsPopulated:       len(domainStats),
		DomainStatistics:       domainStats,
	}, nil
}
