// Package decision implements the free-gift discount decision engine.
//
// The engine is the authoritative side of the promotion: the host invokes
// Evaluate on every cart recomputation, and the returned Decision is the
// only thing that actually grants the discount. The client-side offer flow
// (internal/offer, internal/cartops) merely arranges the cart so that a
// later evaluation passes.
//
// Evaluate is a pure function of (configuration, cart): no I/O, no hidden
// state, no mutation of its input. Identical inputs produce byte-identical
// output, which also makes the engine safe to re-run idempotently after
// partial client-side failures.
//
// The engine never propagates a fault to the host. Configuration problems,
// ineligible carts, and missing variants all degrade to the canonical empty
// decision; unexpected internal panics are recovered at the Evaluate
// boundary and logged.
package decision
