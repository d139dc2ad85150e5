package doctrine

import (
	"strings"
	"testing"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

func TestClassifyChapterType_DoctrinalWhenAnyItemsPresent(t *testing.T) {
	d := domain.Doctrine{Principles: []domain.Principle{{ID: "a", Statement: "s"}}}
	if got := ClassifyChapterType(d, "irrelevant text"); got != domain.ChapterDoctrinal {
		t.Fatalf("expected doctrinal, got %s", got)
	}
}

func TestClassifyChapterType_Introductory(t *testing.T) {
	text := "Introduction. In this chapter we set the stage for what follows."
	if got := ClassifyChapterType(domain.Doctrine{}, text); got != domain.ChapterIntroductory {
		t.Fatalf("expected introductory, got %s", got)
	}
}

func TestClassifyChapterType_Narrative(t *testing.T) {
	text := strings.Repeat("padding word ", 100) + "this story and example illustration matters"
	if got := ClassifyChapterType(domain.Doctrine{}, text); got != domain.ChapterNarrative {
		t.Fatalf("expected narrative, got %s", got)
	}
}

func TestClassifyChapterType_Commentary(t *testing.T) {
	text := strings.Repeat("plain prose without any special marker words ", 100)
	if got := ClassifyChapterType(domain.Doctrine{}, text); got != domain.ChapterCommentary {
		t.Fatalf("expected commentary, got %s", got)
	}
}

func TestDoctrineDensity(t *testing.T) {
	d := domain.Doctrine{Principles: []domain.Principle{{ID: "a", Statement: "s"}}}
	density := DoctrineDensity(d, "one two three four")
	if density != 0.25 {
		t.Fatalf("expected density 0.25, got %v", density)
	}
}
