// Package offer implements the client-side offer presentation state
// machine.
//
// The machine is not authoritative: it exists to let the shopper opt in.
// Accepting the offer adds the two cart lines and sets the promo flag; the
// decision engine then independently re-evaluates on the host's next cart
// recompute and grants the discount if eligible.
//
// The component runs on a cooperative, event-driven model. Start and
// Accept block on their single external call (fetch, apply) and feed the
// result back into the machine before returning; the host drives them from
// its own tasks. The only asynchronously scheduled work is the error
// banner's auto-clear timer, which is the one cancellation hazard: it is
// owned by the machine and cancelled on teardown or superseding
// activation.
package offer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/merchkit/freegift/internal/cartops"
	"github.com/merchkit/freegift/internal/catalog"
	"github.com/merchkit/freegift/internal/decision"
)

// ErrorDisplayDuration is how long the error banner stays up before
// auto-clearing back to the normal offering display.
const ErrorDisplayDuration = 3 * time.Second

// PairFetcher retrieves the offered/free variant display data.
// Implemented by catalog.Fetcher.
type PairFetcher interface {
	FetchPair(ctx context.Context, offeredID, freeID string) (catalog.Pair, error)
}

// Applier dispatches the offer mutations. Implemented by
// cartops.Orchestrator.
type Applier interface {
	ApplyOffer(ctx context.Context, offeredID, freeID string) []cartops.OperationResult
}

// Deps wires a Machine's collaborators.
type Deps struct {
	Config  decision.Config
	Fetcher PairFetcher
	Applier Applier

	// Scheduler defaults to the wall-clock scheduler.
	Scheduler Scheduler
	// Locale is used for price localization. Defaults to English.
	Locale language.Tag
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Machine is the offer presentation state machine.
//
// All state is guarded by one mutex; event methods may be called from any
// goroutine but are applied one at a time, matching the single-threaded
// cooperative model of the host.
type Machine struct {
	fetcher PairFetcher
	applier Applier
	sched   Scheduler
	logger  *slog.Logger
	config  decision.Config
	locale  language.Tag

	mu      sync.Mutex
	phase   Phase
	pair    catalog.Pair
	fetched bool
	cartIDs map[string]struct{}

	errTimer Timer
	errGen   uint64
	closed   bool
}

// NewMachine creates a Machine in PhaseLoading. Start must be called to
// issue the product data fetch.
func NewMachine(deps Deps) *Machine {
	if deps.Scheduler == nil {
		deps.Scheduler = NewScheduler()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Locale == (language.Tag{}) {
		deps.Locale = language.English
	}
	return &Machine{
		fetcher: deps.Fetcher,
		applier: deps.Applier,
		sched:   deps.Scheduler,
		logger:  deps.Logger,
		config:  deps.Config,
		locale:  deps.Locale,
		phase:   PhaseLoading,
		cartIDs: make(map[string]struct{}),
	}
}

// Start issues the product data fetch and applies its outcome. It is
// called once per instance; a fetch failure or an unresolved slot hides
// the offer rather than surfacing an error (a missing offer is
// indistinguishable from "not eligible" to the shopper).
func (m *Machine) Start(ctx context.Context) {
	pair, err := m.fetcher.FetchPair(ctx, m.config.OfferedProductID, m.config.FreeProductID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		// Teardown happened while the fetch was in flight; discard.
		return
	}

	m.fetched = true
	if err != nil {
		// Already logged by the fetcher; render nothing.
		m.pair = catalog.Pair{}
		m.phase = PhaseHidden
		return
	}
	m.pair = pair
	m.phase = m.derivePhaseLocked()
}

// CartLinesChanged notifies the machine of the cart's current variant ids.
// The "shopper already holds the offered product" check is re-derived on
// every notification, not only at load, since the shopper may add the
// offered product through unrelated means while the component is mounted.
func (m *Machine) CartLinesChanged(variantIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.cartIDs = make(map[string]struct{}, len(variantIDs))
	for _, id := range variantIDs {
		m.cartIDs[id] = struct{}{}
	}

	// Only the Hidden/Offering boundary is cart-driven. Loading resolves
	// via Start, and Adding/ErrorShown resolve via their own events.
	if m.phase == PhaseHidden || m.phase == PhaseOffering {
		m.phase = m.derivePhaseLocked()
	}
}

// Accept is the shopper's opt-in. It dispatches the three cart mutations
// through the applier, blocks until all have settled, and applies the
// aggregate outcome: any failure shows the transient error banner; a clean
// apply returns to the offering display (the host hides the component once
// the cart reflects the promotion).
//
// Accept is ignored unless the machine is offering (with or without a
// visible error banner). It performs no retries; a failed apply is
// surfaced, not resubmitted.
func (m *Machine) Accept(ctx context.Context) {
	m.mu.Lock()
	if m.closed || (m.phase != PhaseOffering && m.phase != PhaseErrorShown) {
		m.mu.Unlock()
		return
	}
	m.cancelErrorTimerLocked()
	m.phase = PhaseAdding
	m.mu.Unlock()

	results := m.applier.ApplyOffer(ctx, m.config.OfferedProductID, m.config.FreeProductID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.phase = PhaseOffering
	if failures := cartops.Failures(results); len(failures) > 0 {
		m.phase = PhaseErrorShown
		m.resetErrorTimerLocked()
	}
}

// Close tears the component down: the error timer is cancelled and any
// in-flight fetch or apply result is discarded without erroring the host.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cancelErrorTimerLocked()
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// derivePhaseLocked decides between Hidden and Offering once product data
// is available. Callers hold m.mu.
func (m *Machine) derivePhaseLocked() Phase {
	if !m.fetched {
		return PhaseLoading
	}
	if !m.pair.Complete() {
		return PhaseHidden
	}
	if _, held := m.cartIDs[m.pair.Offered.ID]; held {
		// Offer is moot: the shopper already holds the offered product.
		return PhaseHidden
	}
	return PhaseOffering
}

// resetErrorTimerLocked arms a fresh auto-clear timer, superseding any
// pending one. The generation counter guards against a stale callback that
// already fired but has not yet taken the lock: latest activation wins.
// Callers hold m.mu.
func (m *Machine) resetErrorTimerLocked() {
	m.cancelErrorTimerLocked()
	m.errGen++
	gen := m.errGen
	m.errTimer = m.sched.AfterFunc(ErrorDisplayDuration, func() {
		m.clearError(gen)
	})
}

// cancelErrorTimerLocked stops the pending timer, if any. Callers hold m.mu.
func (m *Machine) cancelErrorTimerLocked() {
	if m.errTimer != nil {
		m.errTimer.Stop()
		m.errTimer = nil
	}
}

// clearError is the timer callback: it reverts the error banner exactly
// once for its own activation.
func (m *Machine) clearError(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.errGen {
		return
	}
	m.errTimer = nil
	if m.phase == PhaseErrorShown {
		m.phase = PhaseOffering
	}
}
