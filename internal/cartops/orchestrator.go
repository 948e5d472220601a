package cartops

import (
	"context"
	"log/slog"
	"sync"

	"github.com/merchkit/freegift/internal/decision"
)

// Operation labels the three mutations an offer acceptance dispatches.
type Operation string

const (
	OpAddOffered Operation = "add_offered_line"
	OpAddFree    Operation = "add_free_line"
	OpSetFlag    Operation = "set_promo_attribute"
)

// OperationResult pairs a dispatched operation with the host's answer.
// The Op label gives each result a stable identity for reporting, since
// the three operations may complete in any order.
type OperationResult struct {
	Op     Operation `json:"op"`
	Result Result    `json:"result"`
}

// Orchestrator applies the free-gift offer to the cart through the host's
// mutation capability.
type Orchestrator struct {
	mutator CartMutator
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator. logger may be nil, in which
// case slog.Default() is used.
func NewOrchestrator(m CartMutator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{mutator: m, logger: logger}
}

// ApplyOffer dispatches the three offer mutations concurrently: add the
// offered variant (quantity 1), add the free variant (quantity 1), and set
// the promo attribute to "true".
//
// There is no sequencing dependency between the operations; ApplyOffer
// returns only once all three have settled, in the fixed result order
// offered, free, flag regardless of completion order. Failed operations
// are logged individually. Succeeded operations are never undone: worst
// case the cart holds a spurious line or flag, which the decision engine
// treats as ineligible on its next evaluation.
func (o *Orchestrator) ApplyOffer(ctx context.Context, offeredID, freeID string) []OperationResult {
	results := make([]OperationResult, 3)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		results[0] = OperationResult{Op: OpAddOffered, Result: o.mutator.ApplyCartLinesChange(ctx, CartLineChange{
			Type:          ChangeAddCartLine,
			MerchandiseID: offeredID,
			Quantity:      1,
		})}
	}()
	go func() {
		defer wg.Done()
		results[1] = OperationResult{Op: OpAddFree, Result: o.mutator.ApplyCartLinesChange(ctx, CartLineChange{
			Type:          ChangeAddCartLine,
			MerchandiseID: freeID,
			Quantity:      1,
		})}
	}()
	go func() {
		defer wg.Done()
		results[2] = OperationResult{Op: OpSetFlag, Result: o.mutator.ApplyAttributeChange(ctx, AttributeChange{
			Type:  ChangeUpdateAttribute,
			Key:   decision.PromoAttributeKey,
			Value: "true",
		})}
	}()

	wg.Wait()

	for _, r := range results {
		if r.Result.Failed() {
			o.logger.Error("offer mutation failed", "op", string(r.Op), "message", r.Result.Message)
		}
	}
	return results
}

// Failures collects every error result's message, preserving the fixed
// operation order. All failing operations are reported; none is dropped in
// favor of another.
func Failures(results []OperationResult) []string {
	var msgs []string
	for _, r := range results {
		if r.Result.Failed() {
			msgs = append(msgs, r.Result.Message)
		}
	}
	return msgs
}
