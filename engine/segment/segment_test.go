package segment

import (
	"context"
	"strings"
	"testing"

	"github.com/Arjun3125/doctrine-ingest/pkg/llm"
)

func TestSegmenter_StreamingSplitsOnStartNewChapter(t *testing.T) {
	calls := 0
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			calls++
			return `{"decision":"start_new_chapter","confidence":0.9}`, nil
		},
	}
	s := NewSegmenter(fake, "seg-model", nil, nil)

	pages := []string{"page one text", "page two text", "page three text"}
	chapters := s.Split(context.Background(), pages)

	if len(chapters) != 3 {
		t.Fatalf("expected 3 chapters (one boundary per page after the first), got %d", len(chapters))
	}
	if chapters[0].ChapterIndex != 1 || chapters[1].ChapterIndex != 2 {
		t.Fatalf("expected dense chapter indices, got %+v", chapters)
	}
}

func TestSegmenter_ContinueChapterMergesPages(t *testing.T) {
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			return `{"decision":"continue_chapter","confidence":0.8}`, nil
		},
	}
	s := NewSegmenter(fake, "seg-model", nil, nil)

	pages := []string{"page one", "page two", "page three"}
	chapters := s.Split(context.Background(), pages)

	if len(chapters) != 1 {
		t.Fatalf("expected all pages merged into 1 chapter, got %d", len(chapters))
	}
	if !strings.Contains(chapters[0].RawText, "page one") || !strings.Contains(chapters[0].RawText, "page three") {
		t.Fatalf("expected merged chapter to contain all pages, got %q", chapters[0].RawText)
	}
}

func TestSegmenter_UnparseableDefaultsToContinue(t *testing.T) {
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			return "not json", nil
		},
	}
	s := NewSegmenter(fake, "seg-model", nil, nil)

	pages := []string{"page one", "page two"}
	chapters := s.Split(context.Background(), pages)
	if len(chapters) != 1 {
		t.Fatalf("expected unparseable decision to default to continue_chapter, got %d chapters", len(chapters))
	}
}

func TestSegmenter_NeverReturnsEmpty(t *testing.T) {
	fake := &llm.Fake{}
	s := NewSegmenter(fake, "seg-model", nil, nil)

	chapters := s.Split(context.Background(), nil)
	if len(chapters) == 0 {
		t.Fatalf("Split must never return an empty chapter list")
	}
}

func TestSegmenter_DecisionCacheAvoidsRepeatCalls(t *testing.T) {
	calls := 0
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			calls++
			return `{"decision":"continue_chapter","confidence":0.5}`, nil
		},
	}
	cache := NewMemDecisionCache()
	s := NewSegmenter(fake, "seg-model", cache, nil)

	pages := []string{"alpha", "beta"}
	s.Split(context.Background(), pages)
	s.Split(context.Background(), pages)

	if calls != 1 {
		t.Fatalf("expected decision cache to avoid the second identical call, got %d calls", calls)
	}
}

func TestFallbackSplit_HeadingRegex(t *testing.T) {
	fake := &llm.Fake{
		GenerateFn: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			return `{"decision":"continue_chapter","confidence":0.5}`, nil
		},
	}
	s := NewSegmenter(fake, "seg-model", nil, nil)

	long := strings.Repeat("filler text ", 2000)
	full := "CHAPTER 1\n" + long + "\fCHAPTER 2\n" + long
	chapters := s.fallbackSplit(full)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters from heading fallback, got %d", len(chapters))
	}
}
