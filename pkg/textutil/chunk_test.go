package textutil

import "testing"

func TestChunkByParagraph_BreaksOnBlankLine(t *testing.T) {
	text := "para one line\n\npara two line\n\npara three line"
	chunks := ChunkByParagraph(text, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	for _, c := range chunks {
		if c == "" {
			t.Fatalf("chunk should never be empty")
		}
	}
}

func TestChunkByParagraph_Reassembles(t *testing.T) {
	text := "alpha\n\nbeta\n\ngamma\n\ndelta"
	chunks := ChunkByParagraph(text, 11)
	joined := ""
	for _, c := range chunks {
		joined += c
	}
	for _, want := range []string{"alpha", "beta", "gamma", "delta"} {
		if !contains(joined, want) {
			t.Fatalf("expected %q preserved in reassembled chunks: %v", want, chunks)
		}
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestQualityScore(t *testing.T) {
	if got := QualityScore(""); got != 0 {
		t.Fatalf("empty text should score 0, got %v", got)
	}
	clean := "The quick brown fox jumps over the lazy dog."
	if got := QualityScore(clean); got < 0.95 {
		t.Fatalf("clean ascii text should score near 1.0, got %v", got)
	}
}

func TestLooksGlyphEncoded(t *testing.T) {
	clean := "The quick brown fox jumps over the lazy dog repeatedly today."
	if LooksGlyphEncoded(clean) {
		t.Fatalf("clean text should not be flagged as glyph-encoded")
	}

	var weird string
	for i := 0; i < 40; i++ {
		weird += "￹¤"
	}
	if !LooksGlyphEncoded(weird) {
		t.Fatalf("control/symbol-heavy text should be flagged as glyph-encoded")
	}
}
