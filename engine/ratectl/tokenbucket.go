package ratectl

import (
	"context"
	"sync"

	"github.com/Arjun3125/doctrine-ingest/pkg/resilience"
)

// Default feedback-loop tunables for the token-bucket variant (§4.F). The
// embedding worker is wired to Controller, not TokenBucket: TokenBucket's
// single-token admission and utilization-driven feedback don't interchange
// with Controller's acquire/release-slot and latency-driven feedback without
// the worker branching on which policy it holds. TokenBucket is kept as a
// ready alternative for a future queue-depth-driven limiter.
const (
	DefaultBackpressureFactor = 0.8
	DefaultRecoveryFactor     = 1.1
	DefaultMinMultiplier      = 0.25
	DefaultMaxMultiplier      = 2.0
	HighUtilization           = 0.8
	LowUtilization            = 0.3
)

// TokenBucket wraps resilience.Limiter with a rate_multiplier that a
// feedback loop adjusts from observed queue utilization.
type TokenBucket struct {
	mu sync.Mutex

	baseRate, maxBurst                float64
	rateMultiplier                    float64
	backpressureFactor, recoveryFactor float64
	minMult, maxMult                  float64

	limiter *resilience.Limiter
}

// NewTokenBucket builds a TokenBucket refilling at tokensPerSec, capped at maxBurst.
func NewTokenBucket(tokensPerSec float64, maxBurst int) *TokenBucket {
	tb := &TokenBucket{
		baseRate:           tokensPerSec,
		maxBurst:           float64(maxBurst),
		rateMultiplier:     1.0,
		backpressureFactor: DefaultBackpressureFactor,
		recoveryFactor:     DefaultRecoveryFactor,
		minMult:            DefaultMinMultiplier,
		maxMult:            DefaultMaxMultiplier,
	}
	tb.limiter = resilience.NewLimiter(resilience.LimiterOpts{Rate: tokensPerSec, Burst: maxBurst})
	return tb
}

// Acquire waits until a token is available or ctx is cancelled.
func (tb *TokenBucket) Acquire(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// AdjustFromUtilization implements the feedback loop: queue utilization
// >= HighUtilization multiplies rate by backpressureFactor; <=
// LowUtilization multiplies by recoveryFactor; the result is clamped to
// [minMult, maxMult] and a new underlying limiter is built at the
// resulting effective rate.
func (tb *TokenBucket) AdjustFromUtilization(utilization float64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	switch {
	case utilization >= HighUtilization:
		tb.rateMultiplier *= tb.backpressureFactor
	case utilization <= LowUtilization:
		tb.rateMultiplier *= tb.recoveryFactor
	default:
		return
	}

	if tb.rateMultiplier < tb.minMult {
		tb.rateMultiplier = tb.minMult
	}
	if tb.rateMultiplier > tb.maxMult {
		tb.rateMultiplier = tb.maxMult
	}

	effectiveRate := tb.baseRate * tb.rateMultiplier
	tb.limiter = resilience.NewLimiter(resilience.LimiterOpts{Rate: effectiveRate, Burst: int(tb.maxBurst)})
}

// RateMultiplier reports the current feedback-adjusted multiplier.
func (tb *TokenBucket) RateMultiplier() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.rateMultiplier
}
