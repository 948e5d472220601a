package decision

import (
	"errors"
	"log/slog"
)

// Engine evaluates the free-gift discount for one cart snapshot.
//
// The engine holds no mutable state: it is safe to invoke from multiple
// isolated evaluations with no coordination, and every call re-derives the
// decision from scratch. It performs no I/O and never blocks.
type Engine struct {
	resolver Resolver
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine using the given configuration resolver.
func New(r Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate computes the discount decision for the given input.
//
// The chain short-circuits to the empty decision on the first failing
// condition:
//
//  1. configuration cannot be resolved
//  2. the cart is not flagged eligible
//  3. either the offered or the free variant is missing from the cart
//
// Step 3 re-verifies both variants independently even though the client
// flow is expected to have added them; the engine never trusts the client.
//
// Evaluate never panics outward: an unexpected internal fault is recovered
// here and degrades to the empty decision, since an uncaught fault would
// abort discount evaluation for the entire cart.
func (e *Engine) Evaluate(input Input) (out Decision) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("discount evaluation fault", "panic", r)
			out = Empty()
		}
	}()

	cfg, err := e.resolver.Resolve(input.MetafieldValue())
	if err != nil {
		if !errors.Is(err, ErrNoConfiguration) {
			e.logger.Error("configuration resolution failed", "error", err)
		} else {
			e.logger.Debug("no offer configuration")
		}
		return Empty()
	}

	if !Eligible(input.Cart) {
		e.logger.Debug("cart does not have an upsell promo")
		return Empty()
	}

	_, offeredPresent := findLine(input.Cart, cfg.OfferedProductID)
	free, freePresent := findLine(input.Cart, cfg.FreeProductID)
	if !offeredPresent || !freePresent {
		e.logger.Debug("cart does not contain required products",
			"offered_present", offeredPresent, "free_present", freePresent)
		return Empty()
	}

	return Decision{
		Strategy: StrategyMaximum,
		Discounts: []DiscountLine{
			{
				Percentage:      100,
				TargetVariantID: free.MerchandiseID,
				Message:         giftMessage,
			},
		},
	}
}
