// Package harness runs declarative evaluation scenarios against the
// discount decision engine.
//
// Scenarios are YAML fixtures pairing a configuration source and a cart
// snapshot with the expected decision. The harness executes the real
// engine (no mocking) and compares its output field by field; golden
// files additionally pin the exact serialized decision.
package harness

import (
	"fmt"
	"log/slog"

	"github.com/merchkit/freegift/internal/decision"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when the decision matched the expectation.
	Pass bool `json:"pass"`

	// Decision is the engine's actual output.
	Decision decision.Decision `json:"decision"`

	// Errors lists every mismatch. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// addError records a mismatch and fails the result.
func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run evaluates the scenario against a fresh engine and validates the
// decision against the expectation.
func Run(s *Scenario) *Result {
	eng := decision.New(s.Resolver(),
		decision.WithLogger(slog.New(slog.DiscardHandler)))

	dec := eng.Evaluate(s.Input())
	res := &Result{Pass: true, Decision: dec}

	if string(dec.Strategy) != s.Expect.Strategy {
		res.addError("strategy: got %q, want %q", dec.Strategy, s.Expect.Strategy)
	}
	if len(dec.Discounts) != len(s.Expect.Discounts) {
		res.addError("discounts: got %d lines, want %d", len(dec.Discounts), len(s.Expect.Discounts))
		return res
	}
	for i, want := range s.Expect.Discounts {
		got := dec.Discounts[i]
		if got.Percentage != want.Percentage {
			res.addError("discounts[%d].percentage: got %d, want %d", i, got.Percentage, want.Percentage)
		}
		if got.TargetVariantID != want.TargetVariantID {
			res.addError("discounts[%d].targetVariantId: got %q, want %q", i, got.TargetVariantID, want.TargetVariantID)
		}
		if got.Message != want.Message {
			res.addError("discounts[%d].message: got %q, want %q", i, got.Message, want.Message)
		}
	}
	return res
}
