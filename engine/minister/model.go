// Package minister implements the Minister Aggregator (§4.J): each chapter's
// doctrine is fanned out into every domain it was tagged with and appended
// to that domain's four consolidated category files plus a summary
// doctrine.json, all written atomically.
package minister

import "time"

// SourceRef identifies where a category entry came from.
type SourceRef struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
}

// CategoryEntry is one principle/rule/claim/warning recorded in a domain's
// consolidated category file.
type CategoryEntry struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Source SourceRef `json:"source"`
	Weight float64   `json:"weight"`
}

// CategoryMeta is the bookkeeping block attached to every category file.
type CategoryMeta struct {
	TotalEntries   int         `json:"total_entries"`
	LastUpdated    *time.Time  `json:"last_updated"`
	AggregatedFrom []SourceRef `json:"aggregated_from"`
}

// CategoryDocument is the full JSON shape of principles.json/rules.json/
// claims.json/warnings.json.
type CategoryDocument struct {
	Domain   string          `json:"domain"`
	Category string          `json:"category"`
	Entries  []CategoryEntry `json:"entries"`
	Meta     CategoryMeta    `json:"meta"`
}

// DoctrineSummaryMeta is the bookkeeping block on a domain's doctrine.json.
type DoctrineSummaryMeta struct {
	TotalEntries int        `json:"total_entries"`
	LastUpdated  *time.Time `json:"last_updated"`
}

// DoctrineSummary is the per-domain summary file, doctrine.json.
type DoctrineSummary struct {
	Domain       string              `json:"domain"`
	Type         string              `json:"type"`
	Consolidated bool                `json:"consolidated"`
	Meta         DoctrineSummaryMeta `json:"meta"`
}

// DomainStat is one domain's entry under combined_vector.index.
type DomainStat struct {
	TotalEntries int        `json:"total_entries"`
	LastUpdated  *time.Time `json:"last_updated"`
}

// CombinedIndexMeta is the bookkeeping block on combined_vector.index.
type CombinedIndexMeta struct {
	Created      time.Time `json:"created"`
	TotalDomains int       `json:"total_domains"`
	TotalEntries int       `json:"total_entries"`
}

// CombinedIndex is the top-level JSON enumerating which domains have data.
type CombinedIndex struct {
	Domain            string                `json:"domain"`
	Combined          bool                  `json:"combined"`
	DomainsIncluded   []string              `json:"domains_included"`
	DomainStatistics  map[string]DomainStat `json:"domain_statistics"`
	Metadata          CombinedIndexMeta     `json:"metadata"`
}

// Summary reports the outcome of converting a batch of chapters.
type Summary struct {
	Status                  string         `json:"status"`
	TotalChaptersProcessed  int            `json:"total_chapters_processed"`
	TotalEntriesCreated     int            `json:"total_entries_created"`
	DomainsPopulated        int            `json:"domains_populated"`
	DomainStatistics        map[string]int `json:"domain_statistics"`
}

// Categories lists the four consolidated category files every domain folder carries.
var Categories = []string{"principles", "rules", "claims", "warnings"}
