package doctrine

import (
	"sort"
	"strings"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

// domainKeywords backs the keyword-count domain-inference fallback used
// when an LLM doctrine response omits domains entirely.
var domainKeywords = map[domain.Domain][]string{
	domain.Adaptation:  {"adapt", "flexib", "pivot", "adjust"},
	domain.Base:        {"base", "foundation", "homeland", "territory"},
	domain.Conflict:    {"conflict", "war", "battle", "enemy", "attack"},
	domain.Constraints:  {"constraint", "limit", "restrict", "bound"},
	domain.Data:        {"data", "information", "intelligence", "signal"},
	domain.Diplomacy:   {"diplomacy", "negotiat", "alliance", "treaty"},
	domain.Discipline:  {"discipline", "rigor", "routine", "habit"},
	domain.Executor:    {"execut", "implement", "operation", "action"},
	domain.Legitimacy:  {"legitima", "authority", "mandate", "credib"},
	domain.Optionality: {"option", "hedge", "reversib", "flexibility"},
	domain.Power:       {"power", "leverage", "dominan", "control"},
	domain.Psychology:  {"psycholog", "fear", "morale", "motivat", "emotion"},
	domain.Registry:    {"registry", "record", "ledger", "catalog"},
	domain.Risk:        {"risk", "danger", "hazard", "threat"},
	domain.Strategy:    {"strateg", "plan", "objective", "doctrine"},
	domain.Technology:  {"technolog", "weapon", "tool", "equipment"},
	domain.Timing:      {"timing", "tempo", "sequence", "schedule"},
	domain.Truth:       {"truth", "fact", "verif", "accura"},
	domain.KeyConstr:   {"key constraint", "critical limit", "bottleneck"},
}

const maxInferredDomains = 3

// InferDomains applies the keyword-count fallback (§4.D "Domain inference
// fallback") when the LLM returns an empty domains list. It never returns
// an empty slice: absent any keyword hit, it defaults to ["strategy"].
func InferDomains(text string) []domain.Domain {
	lc := strings.ToLower(text)

	type scored struct {
		d domain.Domain
		n int
	}
	var hits []scored
	for d, kws := range domainKeywords {
		count := 0
		for _, kw := range kws {
			count += strings.Count(lc, kw)
		}
		if count > 0 {
			hits = append(hits, scored{d, count})
		}
	}
	if len(hits) == 0 {
		return []domain.Domain{domain.Strategy}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].n > hits[j].n })

	out := make([]domain.Domain, 0, maxInferredDomains)
	for i := 0; i < len(hits) && i < maxInferredDomains; i++ {
		out = append(out, hits[i].d)
	}
	return out
}
