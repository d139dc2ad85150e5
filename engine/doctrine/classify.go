package doctrine

import (
	"strings"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/pkg/textutil"
)

// introductoryWordLimit is the word-count ceiling under which a chapter
// with no extracted items and introductory markers is classified
// "introductory" rather than "narrative" or "commentary".
const introductoryWordLimit = 250

var introductoryMarkers = []string{"introduction", "in this chapter", "overview", "preface"}

var narrativeMarkers = []string{"story", "example", "illustration", "history", "background"}

// ClassifyChapterType implements §4.D's classification rules.
func ClassifyChapterType(d domain.Doctrine, rawText string) domain.ChapterType {
	if len(d.Principles) > 0 || len(d.Rules) > 0 || len(d.Warnings) > 0 || len(d.Claims) > 0 {
		return domain.ChapterDoctrinal
	}

	lc := strings.ToLower(rawText)
	wordCount := textutil.WordCount(rawText)

	if wordCount < introductoryWordLimit && containsAny(lc, introductoryMarkers) {
		return domain.ChapterIntroductory
	}
	if containsAny(lc, narrativeMarkers) {
		return domain.ChapterNarrative
	}
	return domain.ChapterCommentary
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// DoctrineDensity is item_count / word_count (§3 Doctrine invariant).
func DoctrineDensity(d domain.Doctrine, rawText string) float64 {
	count := len(d.Principles) + len(d.Rules) + len(d.Warnings) + len(d.Claims)
	words := textutil.WordCount(rawText)
	if words == 0 {
		words = 1
	}
	return float64(count) / float64(words)
}
