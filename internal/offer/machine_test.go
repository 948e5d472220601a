package offer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchkit/freegift/internal/cartops"
	"github.com/merchkit/freegift/internal/catalog"
	"github.com/merchkit/freegift/internal/decision"
	"github.com/merchkit/freegift/internal/testutil"
)

// manualSched adapts testutil.ManualScheduler to the Scheduler interface.
type manualSched struct {
	*testutil.ManualScheduler
}

func (s manualSched) AfterFunc(d time.Duration, f func()) Timer {
	return s.ManualScheduler.AfterFunc(d, f)
}

type fakeFetcher struct {
	pair catalog.Pair
	err  error
}

func (f *fakeFetcher) FetchPair(context.Context, string, string) (catalog.Pair, error) {
	return f.pair, f.err
}

type fakeApplier struct {
	mu      sync.Mutex
	results []cartops.OperationResult
	calls   int

	// observePhase, when set, captures the machine phase mid-apply.
	observePhase func() Phase
	observed     Phase
}

func (a *fakeApplier) ApplyOffer(context.Context, string, string) []cartops.OperationResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.observePhase != nil {
		a.observed = a.observePhase()
	}
	return a.results
}

func okResults() []cartops.OperationResult {
	return []cartops.OperationResult{
		{Op: cartops.OpAddOffered, Result: cartops.Result{Type: cartops.ResultSuccess}},
		{Op: cartops.OpAddFree, Result: cartops.Result{Type: cartops.ResultSuccess}},
		{Op: cartops.OpSetFlag, Result: cartops.Result{Type: cartops.ResultSuccess}},
	}
}

func failedResults(msgs ...string) []cartops.OperationResult {
	out := okResults()
	for i, msg := range msgs {
		out[i] = cartops.OperationResult{Op: out[i].Op, Result: cartops.Result{
			Type: cartops.ResultError, Message: msg,
		}}
	}
	return out
}

func completePair() catalog.Pair {
	return catalog.Pair{
		Offered: &catalog.Variant{ID: "V1", Title: "Mug", Price: catalog.Price{Amount: "18.99", CurrencyCode: "USD"}},
		Free:    &catalog.Variant{ID: "V2", Title: "Sticker", Price: catalog.Price{Amount: "2.00", CurrencyCode: "USD"}},
	}
}

func newTestMachine(t *testing.T, f PairFetcher, a Applier) (*Machine, *testutil.ManualScheduler) {
	t.Helper()
	sched := testutil.NewManualScheduler()
	m := NewMachine(Deps{
		Config:    decision.Config{OfferedProductID: "V1", FreeProductID: "V2"},
		Fetcher:   f,
		Applier:   a,
		Scheduler: manualSched{sched},
		Logger:    slog.New(slog.DiscardHandler),
	})
	return m, sched
}

func TestMachine_LoadingToOffering(t *testing.T) {
	m, _ := newTestMachine(t, &fakeFetcher{pair: completePair()}, &fakeApplier{})
	assert.Equal(t, PhaseLoading, m.Phase())

	m.Start(context.Background())
	assert.Equal(t, PhaseOffering, m.Phase())
}

func TestMachine_LoadingToHidden(t *testing.T) {
	testCases := []struct {
		name    string
		fetcher *fakeFetcher
		cartIDs []string
	}{
		{
			name:    "fetch failed",
			fetcher: &fakeFetcher{err: errors.New("boom")},
		},
		{
			name:    "free slot unresolved",
			fetcher: &fakeFetcher{pair: catalog.Pair{Offered: completePair().Offered}},
		},
		{
			name:    "offered slot unresolved",
			fetcher: &fakeFetcher{pair: catalog.Pair{Free: completePair().Free}},
		},
		{
			name:    "offered product already in cart",
			fetcher: &fakeFetcher{pair: completePair()},
			cartIDs: []string{"V1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := newTestMachine(t, tc.fetcher, &fakeApplier{})
			if tc.cartIDs != nil {
				m.CartLinesChanged(tc.cartIDs)
			}
			m.Start(context.Background())
			assert.Equal(t, PhaseHidden, m.Phase())
		})
	}
}

func TestMachine_CartChangeRechecksHidden(t *testing.T) {
	m, _ := newTestMachine(t, &fakeFetcher{pair: completePair()}, &fakeApplier{})
	m.Start(context.Background())
	require.Equal(t, PhaseOffering, m.Phase())

	// Shopper adds the offered product through unrelated means.
	m.CartLinesChanged([]string{"V1", "V9"})
	assert.Equal(t, PhaseHidden, m.Phase())

	// And removes it again.
	m.CartLinesChanged([]string{"V9"})
	assert.Equal(t, PhaseOffering, m.Phase())
}

func TestMachine_AcceptHappyPath(t *testing.T) {
	applier := &fakeApplier{results: okResults()}
	m, sched := newTestMachine(t, &fakeFetcher{pair: completePair()}, applier)
	applier.observePhase = m.Phase

	m.Start(context.Background())
	m.Accept(context.Background())

	assert.Equal(t, 1, applier.calls)
	assert.Equal(t, PhaseAdding, applier.observed, "mutations run in the Adding phase")
	assert.Equal(t, PhaseOffering, m.Phase())
	assert.Nil(t, sched.Latest(), "no error timer on a clean apply")
}

func TestMachine_AcceptIgnoredUnlessOffering(t *testing.T) {
	applier := &fakeApplier{results: okResults()}
	m, _ := newTestMachine(t, &fakeFetcher{err: errors.New("boom")}, applier)

	// Still loading.
	m.Accept(context.Background())
	assert.Zero(t, applier.calls)

	// Hidden after a failed fetch.
	m.Start(context.Background())
	require.Equal(t, PhaseHidden, m.Phase())
	m.Accept(context.Background())
	assert.Zero(t, applier.calls)
}

func TestMachine_FailedApplyShowsTransientError(t *testing.T) {
	applier := &fakeApplier{results: failedResults("out of stock")}
	m, sched := newTestMachine(t, &fakeFetcher{pair: completePair()}, applier)

	m.Start(context.Background())
	m.Accept(context.Background())
	assert.Equal(t, PhaseErrorShown, m.Phase())

	v := m.View()
	assert.True(t, v.ErrorVisible)
	assert.Equal(t, ErrorBannerText, v.ErrorText)

	timer := sched.Latest()
	require.NotNil(t, timer)
	assert.Equal(t, ErrorDisplayDuration, timer.Duration())

	// Auto-clear fires exactly once and reverts to the offering display.
	assert.True(t, timer.Fire())
	assert.Equal(t, PhaseOffering, m.Phase())
	assert.False(t, timer.Fire(), "a timer activation clears at most once")
}

func TestMachine_SupersedingErrorResetsTimer(t *testing.T) {
	applier := &fakeApplier{results: failedResults("out of stock")}
	m, sched := newTestMachine(t, &fakeFetcher{pair: completePair()}, applier)

	m.Start(context.Background())
	m.Accept(context.Background())
	first := sched.Latest()
	require.NotNil(t, first)

	// A second failing accept before the first timer elapses.
	m.Accept(context.Background())
	second := sched.Latest()
	require.NotNil(t, second)
	require.NotSame(t, first, second)

	assert.True(t, first.Stopped(), "the superseded timer is cancelled, not leaked")
	assert.False(t, first.Fire(), "stale timer must not fire")
	assert.Equal(t, PhaseErrorShown, m.Phase())

	// Only the fresh timer clears the banner.
	assert.True(t, second.Fire())
	assert.Equal(t, PhaseOffering, m.Phase())
}

func TestMachine_StaleTimerGeneration(t *testing.T) {
	applier := &fakeApplier{results: failedResults("out of stock")}
	m, sched := newTestMachine(t, &fakeFetcher{pair: completePair()}, applier)

	m.Start(context.Background())
	m.Accept(context.Background())
	first := sched.Latest()
	m.Accept(context.Background())

	// Even if the superseded callback ran anyway (Stop racing the fire),
	// the generation guard keeps it from clearing the fresh banner.
	m.clearError(1)
	assert.Equal(t, PhaseErrorShown, m.Phase())
	_ = first
}

func TestMachine_CloseCancelsTimerAndDiscardsResults(t *testing.T) {
	applier := &fakeApplier{results: failedResults("out of stock")}
	m, sched := newTestMachine(t, &fakeFetcher{pair: completePair()}, applier)

	m.Start(context.Background())
	m.Accept(context.Background())
	timer := sched.Latest()
	require.NotNil(t, timer)

	m.Close()
	assert.True(t, timer.Stopped(), "unmount cancels the pending auto-clear")
	assert.False(t, timer.Fire())

	// Late events after teardown are discarded without erroring.
	m.CartLinesChanged([]string{"V1"})
	m.Accept(context.Background())
	m.Start(context.Background())
	assert.Equal(t, PhaseErrorShown, m.Phase(), "state frozen at teardown")
}

func TestMachine_RetryAfterErrorAllowed(t *testing.T) {
	applier := &fakeApplier{results: failedResults("out of stock")}
	m, _ := newTestMachine(t, &fakeFetcher{pair: completePair()}, applier)

	m.Start(context.Background())
	m.Accept(context.Background())
	require.Equal(t, PhaseErrorShown, m.Phase())

	// The machine never resubmits on its own; a second attempt is the
	// shopper's explicit action.
	applier.results = okResults()
	m.Accept(context.Background())
	assert.Equal(t, PhaseOffering, m.Phase())
	assert.Equal(t, 2, applier.calls)
}
