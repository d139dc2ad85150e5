package doctrine

import (
	"context"
	"errors"
	"testing"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/pkg/llm"
)

func TestExtractor_ParsesAndAggregatesChunks(t *testing.T) {
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			return `{"domains":["strategy"],"principles":["Always mass forces at the point of decision"],
				"rules":["the enemy is overextended THEN attack the flank"],
				"claims":[{"claim":"tempo beats mass","confidence":0.7}],
				"warnings":["overconfidence after a first victory"]}`, nil
		},
	}
	ex := NewExtractor(fake, "doctrine-model", nil, nil)

	chapter := domain.Chapter{ChapterIndex: 1, ChapterID: "abc", RawText: "short chapter text"}
	d, err := ex.Extract(context.Background(), chapter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Principles) != 1 || len(d.Rules) != 1 || len(d.Claims) != 1 || len(d.Warnings) != 1 {
		t.Fatalf("expected one of each item, got %+v", d)
	}
	if d.Meta.ChapterType != domain.ChapterDoctrinal {
		t.Fatalf("expected doctrinal classification, got %s", d.Meta.ChapterType)
	}
	if d.Rules[0].Condition == "" || d.Rules[0].Action == "" {
		t.Fatalf("expected THEN-split rule, got %+v", d.Rules[0])
	}
}

func TestExtractor_AllChunksFailReturnsExtractionFailed(t *testing.T) {
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			return "not valid json", nil
		},
	}
	ex := NewExtractor(fake, "doctrine-model", nil, nil)

	chapter := domain.Chapter{ChapterIndex: 5, ChapterID: "xyz", RawText: "some chapter text here"}
	_, err := ex.Extract(context.Background(), chapter)
	if err == nil {
		t.Fatalf("expected an error when every chunk fails")
	}
	var extractionErr *domain.ExtractionFailedError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected *domain.ExtractionFailedError, got %T", err)
	}
	if extractionErr.ChapterIndex != 5 {
		t.Fatalf("expected chapter index 5, got %d", extractionErr.ChapterIndex)
	}
}

func TestExtractor_ChunkCheckpointAvoidsRepeatCalls(t *testing.T) {
	calls := 0
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			calls++
			return `{"domains":["risk"],"principles":[],"rules":[],"claims":[],"warnings":[]}`, nil
		},
	}
	checkpoint := NewMemCheckpoint()
	ex := NewExtractor(fake, "doctrine-model", checkpoint, nil)

	chapter := domain.Chapter{ChapterIndex: 1, ChapterID: "same-chapter", RawText: "chapter body text"}
	ex.Extract(context.Background(), chapter)
	ex.Extract(context.Background(), chapter)

	if calls != 1 {
		t.Fatalf("expected checkpoint to suppress the second extraction's LLM calls, got %d calls", calls)
	}
}

func TestExtractor_EmptyDomainsFallsBackToInference(t *testing.T) {
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			return `{"domains":[],"principles":["win by maneuver not attrition"],"rules":[],"claims":[],"warnings":[]}`, nil
		},
	}
	ex := NewExtractor(fake, "doctrine-model", nil, nil)

	chapter := domain.Chapter{ChapterIndex: 1, ChapterID: "c1", RawText: "strategy and planning content"}
	d, err := ex.Extract(context.Background(), chapter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Domains) == 0 {
		t.Fatalf("expected domain inference fallback to populate domains")
	}
}

func TestExtractor_ValidEmptyStatus(t *testing.T) {
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			return `{"domains":["strategy"],"principles":[],"rules":[],"claims":[],"warnings":[]}`, nil
		},
	}
	ex := NewExtractor(fake, "doctrine-model", nil, nil)

	chapter := domain.Chapter{ChapterIndex: 1, ChapterID: "c1", RawText: "plain commentary prose with no doctrine"}
	d, err := ex.Extract(context.Background(), chapter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Meta.Status != "valid_empty" {
		t.Fatalf("expected valid_empty status, got %q", d.Meta.Status)
	}
}
