package vstore

import "testing"

func TestCosine_IdenticalVectorsScoreOne(t *testing.T) {
	a := []float32{1, 0, 0}
	if got := cosine(a, a); got < 0.999 || got > 1.001 {
		t.Fatalf("expected ~1.0, got %f", got)
	}
}

func TestCosine_OrthogonalVectorsScoreZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := cosine(a, b); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestCosine_ZeroVectorScoresZero(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}
	if got := cosine(a, b); got != 0 {
		t.Fatalf("expected 0 for zero vector, got %f", got)
	}
}

func TestCosine_MismatchedLengthScoresZero(t *testing.T) {
	a := []float32{1, 2}
	b := []float32{1, 2, 3}
	if got := cosine(a, b); got != 0 {
		t.Fatalf("expected 0 for mismatched length, got %f", got)
	}
}

func TestRank_SortsDescendingAndAppliesWeight(t *testing.T) {
	records := []Record{
		{ID: "low", Embedding: []float32{1, 0}, Weight: 1},
		{ID: "high-weighted", Embedding: []float32{1, 0}, Weight: 2},
		{ID: "orthogonal", Embedding: []float32{0, 1}, Weight: 5},
	}
	ranked := rank(records, []float32{1, 0}, 3)
	if ranked[0].ID != "high-weighted" {
		t.Fatalf("expected high-weighted first, got %s", ranked[0].ID)
	}
	if ranked[2].ID != "orthogonal" {
		t.Fatalf("expected orthogonal last (zero cosine regardless of weight), got %s", ranked[2].ID)
	}
}

func TestRank_RespectsTopK(t *testing.T) {
	records := make([]Record, 10)
	for i := range records {
		records[i] = Record{ID: "r", Embedding: []float32{1, 0}, Weight: 1}
	}
	ranked := rank(records, []float32{1, 0}, 3)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 results, got %d", len(ranked))
	}
}
