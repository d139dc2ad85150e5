// Package textutil holds small, dependency-free text shaping helpers shared
// across the ingestion pipeline: paragraph-boundary chunking, word counts,
// and quality/glyph-encoding heuristics.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is the chunk ceiling used by glyph repair and doctrine
// extraction alike (§4.B, §4.D): both split chapter/page text into pieces
// no larger than this, breaking at a paragraph boundary when possible.
const DefaultMaxChars = 8000

// ChunkByParagraph splits text into pieces of at most maxChars runes,
// preferring to break on a blank-line (paragraph) boundary. Empty pieces
// are dropped. If maxChars <= 0, DefaultMaxChars is used.
func ChunkByParagraph(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	runes := []rune(text)
	n := len(runes)
	var out []string
	start := 0
	for start < n {
		end := start + maxChars
		if end > n {
			end = n
		}
		cut := lastParagraphBreak(runes, start, end)
		if cut <= start {
			cut = end
		}
		piece := strings.TrimSpace(string(runes[start:cut]))
		if piece != "" {
			out = append(out, piece)
		}
		start = cut
	}
	return out
}

// lastParagraphBreak returns the index just past the last "\n\n" within [start,end),
// or start-1 (signalling "none found") otherwise.
func lastParagraphBreak(runes []rune, start, end int) int {
	for i := end - 2; i >= start; i-- {
		if i+1 < len(runes) && runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}
	return start - 1
}

// WordCount approximates token count by splitting on whitespace.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// QualityScore is the ratio of printable characters to total characters,
// used by the text extractor's tiered decoder ladder (§4.A).
func QualityScore(text string) float64 {
	if text == "" {
		return 0
	}
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}
	printable := 0
	for _, r := range text {
		if unicode.IsPrint(r) {
			printable++
		}
	}
	return float64(printable) / float64(total)
}

// IsGlyphStream reports whether text carries raw glyph-stream markers
// (e.g. "/G4A") sometimes left behind by a broken font-encoding decode.
func IsGlyphStream(text string) bool {
	return strings.Contains(text, "/G") && containsHexGlyphTag(text)
}

func containsHexGlyphTag(text string) bool {
	for i := 0; i+3 < len(text); i++ {
		if text[i] == '/' && text[i+1] == 'G' && isHex(text[i+2]) && isHex(text[i+3]) {
			return true
		}
	}
	return false
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// LooksGlyphEncoded detects font-encoding/glyph artifacts per §4.B: true when
// non_ascii_ratio > 0.15 AND weird_ratio > 0.05, or when weird_ratio > 0.12,
// where "weird" is any unicode category starting with C (other) or S (symbol).
func LooksGlyphEncoded(text string) bool {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return false
	}
	nonASCII, weird := 0, 0
	for _, r := range text {
		if r > 127 {
			nonASCII++
		}
		if isWeirdCategory(r) {
			weird++
		}
	}
	nonASCIIRatio := float64(nonASCII) / float64(total)
	weirdRatio := float64(weird) / float64(total)
	return (nonASCIIRatio > 0.15 && weirdRatio > 0.05) || weirdRatio > 0.12
}

// isWeirdCategory reports whether r belongs to a unicode "C" (control/format/
// surrogate/private-use/unassigned) or "S" (symbol) general category.
func isWeirdCategory(r rune) bool {
	for _, tab := range []*unicode.RangeTable{
		unicode.Cc, unicode.Cf, unicode.Co, unicode.Cs,
		unicode.Sc, unicode.Sk, unicode.Sm, unicode.So,
	} {
		if unicode.Is(tab, r) {
			return true
		}
	}
	return false
}
