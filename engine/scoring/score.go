package scoring

import (
	"math"
	"strings"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

var emotionTokens = []string{"fear", "anger", "joy", "sad"}

var strategicKeywords = []string{"strategy", "plan", "goal", "objective", "mission", "risk", "execute"}

const noveltyWindow = 50

// cosine returns the cosine similarity of a and b, or 0 for mismatched or zero vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ScoreEvent computes the four-way score breakdown for ev (§4.K).
// recentEmbeddings is the sliding window of up to the last 50 committed
// embeddings, used for the novelty term.
func ScoreEvent(ev Event, missionVector []float32, recentEmbeddings [][]float32) ScoreBundle {
	relevance := 0.0
	if len(missionVector) > 0 {
		relevance = math.Max(0, cosine(ev.Embedding, missionVector))
	}

	maxSim := 0.0
	for _, r := range recentEmbeddings {
		if sim := cosine(ev.Embedding, r); sim > maxSim {
			maxSim = sim
		}
	}
	novelty := 1.0 - maxSim

	lowered := strings.ToLower(ev.RawText)
	emotional := 0.0
	if strings.Contains(ev.RawText, "!") {
		emotional += 0.2
	}
	emotionHits := 0
	for _, t := range emotionTokens {
		if strings.Contains(lowered, t) {
			emotionHits++
		}
	}
	emotional += math.Min(0.8, float64(emotionHits)*0.2)
	emotional = math.Min(1.0, emotional)

	strategic := 0.0
	for _, kw := range strategicKeywords {
		if strings.Contains(lowered, kw) {
			strategic += 0.15
		}
	}
	strategic = math.Min(1.0, strategic)

	importance := 0.4*relevance + 0.2*novelty + 0.2*emotional + 0.2*strategic

	return ScoreBundle{
		Relevance:       relevance,
		Novelty:         novelty,
		EmotionalWeight: emotional,
		StrategicWeight: strategic,
		ImportanceScore: importance,
	}
}

// DecisionGate maps an importance score to a memory tier (§4.K).
func DecisionGate(importance float64) domain.MemoryType {
	switch {
	case importance < 0.30:
		return domain.DroppedMemory
	case importance < 0.55:
		return domain.SessionMemory
	case importance < 0.75:
		return domain.ProjectMemory
	default:
		return domain.GlobalMemory
	}
}
