package doctrine

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

// rawItem is a principle/rule/claim/warning as it arrives from the LLM:
// either a bare string or a JSON object matching the canonical record shape.
type rawItem struct {
	raw json.RawMessage
}

func (r *rawItem) UnmarshalJSON(b []byte) error {
	r.raw = append([]byte(nil), b...)
	return nil
}

func (r rawItem) asString() (string, bool) {
	var s string
	if err := json.Unmarshal(r.raw, &s); err == nil {
		return s, true
	}
	return "", false
}

var thenSplit = regexp.MustCompile(`(?i)\bTHEN\b`)

// normalizePrinciple coerces a raw LLM principle item into domain.Principle.
func normalizePrinciple(r rawItem) domain.Principle {
	if s, ok := r.asString(); ok {
		return domain.Principle{ID: domain.ContentHash(s), Statement: s}
	}
	var p domain.Principle
	_ = json.Unmarshal(r.raw, &p)
	if p.ID == "" {
		p.ID = domain.ContentHash(p.Statement)
	}
	return p
}

// normalizeRule coerces a raw LLM rule item into domain.Rule. A bare string
// is split on a case-insensitive "THEN" into condition/action.
func normalizeRule(r rawItem) domain.Rule {
	if s, ok := r.asString(); ok {
		parts := thenSplit.Split(s, 2)
		if len(parts) == 2 {
			return domain.Rule{Condition: strings.TrimSpace(parts[0]), Action: strings.TrimSpace(parts[1])}
		}
		return domain.Rule{Condition: "", Action: s}
	}
	var rule domain.Rule
	_ = json.Unmarshal(r.raw, &rule)
	return rule
}

// normalizeWarning coerces a raw LLM warning item into domain.Warning.
func normalizeWarning(r rawItem) domain.Warning {
	if s, ok := r.asString(); ok {
		return domain.Warning{Situation: s}
	}
	var w domain.Warning
	_ = json.Unmarshal(r.raw, &w)
	return w
}

// normalizeClaim coerces a raw LLM claim item into domain.Claim.
func normalizeClaim(r rawItem) domain.Claim {
	if s, ok := r.asString(); ok {
		return domain.Claim{Claim: s}
	}
	var c domain.Claim
	_ = json.Unmarshal(r.raw, &c)
	return c
}

// dedupeJSON deterministically deduplicates a slice of JSON-marshalable
// records, preserving first occurrence (§8 property 4 / §4.D "Deduplicate
// each list deterministically... dedup key = canonical JSON of the record").
func dedupeJSON[T any](items []T) []T {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		key := string(b)
		if err != nil {
			key = "" // unmarshalable items are never deduped against each other
		}
		if key != "" && seen[key] {
			continue
		}
		if key != "" {
			seen[key] = true
		}
		out = append(out, item)
	}
	return out
}

// Normalize brings a Doctrine's collections into canonical, deduplicated
// form. It is idempotent: Normalize(Normalize(d)) == Normalize(d) (§8
// property 4), since dedupeJSON is a no-op on already-deduplicated,
// already-canonical records.
func Normalize(d domain.Doctrine) domain.Doctrine {
	out := d
	out.Principles = dedupeJSON(d.Principles)
	out.Rules = dedupeJSON(d.Rules)
	out.Warnings = dedupeJSON(d.Warnings)
	out.Claims = dedupeJSON(d.Claims)
	if len(out.Domains) == 0 {
		out.Domains = nil
	}
	return out
}
