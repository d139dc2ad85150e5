package ratectl

import (
	"context"
	"testing"
	"time"
)

func TestController_AcquireRelease(t *testing.T) {
	c := NewController(1, 4, 2)
	release1, err := c.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release2, err := c.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release1()
	release2()
}

func TestController_RateLimitHitsShrinkConcurrency(t *testing.T) {
	c := NewController(1, 10, 8)
	for i := 0; i < RateLimitThreshold; i++ {
		c.RecordRateLimitHit()
	}
	before := c.Concurrency()
	c.Adjust()
	after := c.Concurrency()
	if after >= before {
		t.Fatalf("expected concurrency to strictly decrease after %d rate-limit hits: before=%d after=%d",
			RateLimitThreshold, before, after)
	}
}

func TestController_AlreadyAtMinStaysAtMin(t *testing.T) {
	c := NewController(2, 10, 2)
	for i := 0; i < RateLimitThreshold; i++ {
		c.RecordRateLimitHit()
	}
	c.Adjust()
	if c.Concurrency() != 2 {
		t.Fatalf("expected concurrency to stay at min 2, got %d", c.Concurrency())
	}
}

func TestController_LowLatencyGrowsConcurrency(t *testing.T) {
	c := NewController(1, 10, 4)
	for i := 0; i < LatencyWindowSize; i++ {
		c.RecordLatency(100 * time.Millisecond)
	}
	c.Adjust()
	if c.Concurrency() != 6 {
		t.Fatalf("expected concurrency to grow by 2 to 6, got %d", c.Concurrency())
	}
}

func TestController_HighLatencyShrinksConcurrency(t *testing.T) {
	c := NewController(1, 10, 8)
	for i := 0; i < LatencyWindowSize; i++ {
		c.RecordLatency(2 * time.Second)
	}
	before := c.Concurrency()
	c.Adjust()
	if c.Concurrency() >= before {
		t.Fatalf("expected concurrency to shrink under high latency: before=%d after=%d", before, c.Concurrency())
	}
}

func TestBackoff_ExponentialCappedAt32s(t *testing.T) {
	if got := Backoff(0); got != time.Second {
		t.Fatalf("attempt 0: expected 1s, got %v", got)
	}
	if got := Backoff(3); got != 8*time.Second {
		t.Fatalf("attempt 3: expected 8s, got %v", got)
	}
	if got := Backoff(10); got != maxBackoff {
		t.Fatalf("attempt 10: expected capped at %v, got %v", maxBackoff, got)
	}
}
