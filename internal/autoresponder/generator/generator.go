// Package generator is the text-generation boundary: a fallible Generator
// produces a reply for clean message text, and Resilient wraps it so the
// pipeline always gets usable text back.
package generator

import (
	"context"
	"log/slog"
)

// Generator turns clean message text into a draft reply. Implementations may
// fail; callers that must not fail wrap one in Resilient.
type Generator interface {
	Generate(ctx context.Context, cleanText string) (string, error)
}

// Result is the outcome of a resilient generation attempt. Fallback is true
// when the configured canned reply was substituted; Reason then carries the
// underlying error so callers can distinguish "used fallback" from
// "succeeded" instead of relying on swallowed exceptions.
type Result struct {
	Text     string
	Fallback bool
	Reason   error
}

// Resilient never fails: any generator error is logged and replaced with the
// configured fallback reply.
type Resilient struct {
	gen      Generator
	fallback string
	logger   *slog.Logger
}

// NewResilient wraps gen with the given fallback reply text.
func NewResilient(gen Generator, fallback string, logger *slog.Logger) *Resilient {
	return &Resilient{
		gen:      gen,
		fallback: fallback,
		logger:   logger.With("component", "reply_generator"),
	}
}

// Draft generates a reply for cleanText, substituting the fallback on error.
func (r *Resilient) Draft(ctx context.Context, cleanText string) Result {
	text, err := r.gen.Generate(ctx, cleanText)
	if err != nil {
		r.logger.WarnContext(ctx, "Reply generation failed, using fallback reply", "error", err)
		return Result{Text: r.fallback, Fallback: true, Reason: err}
	}
	return Result{Text: text}
}
