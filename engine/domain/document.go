package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// nodeIDPattern matches the canonical <BOOK>-C<chapterIdx:02d>-<TypeLetter>-<seq:03d> format.
var nodeIDPattern = regexp.MustCompile(`^[^-]+-C\d{2}-[PRWL]-\d{3}$`)

// ValidNodeID reports whether id matches the canonical node-ID format.
func ValidNodeID(id string) bool {
	return nodeIDPattern.MatchString(id)
}

// ContentHash returns the stable sha256 hex digest used as chapter_id and
// as the glyph-repair cache key.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ValidateChapters checks §8 property 2: indices form 1..n densely and each
// chapter_id equals sha256(raw_text).
func ValidateChapters(chapters []Chapter) error {
	for i, ch := range chapters {
		want := i + 1
		if ch.ChapterIndex != want {
			return NewValidationError("chapter_index", fmt.Sprintf("%d", ch.ChapterIndex),
				fmt.Errorf("expected dense index %d", want))
		}
		if ch.ChapterID != ContentHash(ch.RawText) {
			return NewValidationError("chapter_id", ch.ChapterID, fmt.Errorf("does not match sha256(raw_text)"))
		}
	}
	return nil
}
