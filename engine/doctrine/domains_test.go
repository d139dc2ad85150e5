package doctrine

import (
	"testing"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

func TestInferDomains_NoHitsDefaultsToStrategy(t *testing.T) {
	got := InferDomains("colorless green ideas sleep furiously")
	if len(got) != 1 || got[0] != domain.Strategy {
		t.Fatalf("expected [strategy] default, got %v", got)
	}
}

func TestInferDomains_CapsAtThree(t *testing.T) {
	text := "risk risk risk conflict conflict power power power power diplomacy data technology timing"
	got := InferDomains(text)
	if len(got) > 3 {
		t.Fatalf("expected at most 3 inferred domains, got %d: %v", len(got), got)
	}
}

func TestInferDomains_HighestCountFirst(t *testing.T) {
	text := "power power power risk"
	got := InferDomains(text)
	if got[0] != domain.Power {
		t.Fatalf("expected power to rank first, got %v", got)
	}
}
