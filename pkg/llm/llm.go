// Package llm defines the pipeline's view of the local LLM service (§6):
// a small generate/embed interface that every component programs against,
// independent of which model server implements it.
package llm

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors a Service implementation should return (wrapped) so
// callers can branch with errors.Is instead of string matching.
var (
	ErrRateLimited  = errors.New("llm: rate limited")
	ErrInvalidJSON  = errors.New("llm: invalid json output")
	ErrTimeout      = errors.New("llm: call timed out")
)

// GenerateRequest configures one text-generation call.
type GenerateRequest struct {
	Model    string
	System   string
	Prompt   string
	JSONMode bool
	Timeout  time.Duration
}

// Service is the interface every pipeline component programs against. It
// replaces the dynamic getattr-style access of the original implementation
// with an explicit contract (§9).
type Service interface {
	// Generate returns the model's raw text response to one prompt.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Embed returns one embedding vector per input string, in order.
	Embed(ctx context.Context, model string, input []string) ([][]float32, error)
}

// Outcome is an explicit result variant for LLM calls used in fallback
// decision points (chapter segmentation, doctrine extraction) so that
// retry/fallback policy is expressed as a value switch, not a recovered
// panic or exception (§9).
type Outcome struct {
	Text    string
	Err     error
}

// Classify buckets an error into one of the named outcomes for callers
// that need to choose a fallback policy (default-decision, skip-chunk,
// backoff-and-retry, ...).
func Classify(text string, err error) Outcome {
	return Outcome{Text: text, Err: err}
}

func (o Outcome) IsRateLimited() bool { return errors.Is(o.Err, ErrRateLimited) }
func (o Outcome) IsInvalidJSON() bool { return errors.Is(o.Err, ErrInvalidJSON) }
func (o Outcome) IsTimeout() bool     { return errors.Is(o.Err, ErrTimeout) }
func (o Outcome) OK() bool            { return o.Err == nil }
