// Package cartops issues the cart mutations that opt a shopper into the
// free-gift promotion.
//
// Applying the offer is deliberately best-effort and non-transactional:
// the three operations are dispatched together, partial failures are
// reported but never rolled back, and the authoritative correction
// mechanism is the decision engine's independent re-evaluation on the next
// cart recompute, not cart cleanup.
package cartops

import "context"

// ResultType is the outcome kind of a single host mutation call.
type ResultType string

const (
	ResultSuccess ResultType = "success"
	ResultError   ResultType = "error"
)

// Result is the host's answer to one mutation operation.
type Result struct {
	Type    ResultType `json:"type"`
	Message string     `json:"message,omitempty"`
}

// Failed reports whether the operation was rejected by the host.
func (r Result) Failed() bool {
	return r.Type == ResultError
}

// CartLineChange requests adding a merchandise line to the cart.
type CartLineChange struct {
	Type          string `json:"type"` // always "addCartLine"
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

// AttributeChange requests setting a cart-level attribute.
type AttributeChange struct {
	Type  string `json:"type"` // always "updateAttribute"
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Change type discriminators, mirroring the host capability contract.
const (
	ChangeAddCartLine     = "addCartLine"
	ChangeUpdateAttribute = "updateAttribute"
)

// CartMutator is the host-provided mutation capability. Calls may block on
// the host's own network round trips; they honor ctx cancellation only as
// far as the host implementation does.
type CartMutator interface {
	ApplyCartLinesChange(ctx context.Context, change CartLineChange) Result
	ApplyAttributeChange(ctx context.Context, change AttributeChange) Result
}
