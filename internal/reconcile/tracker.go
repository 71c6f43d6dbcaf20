// Package reconcile bridges user intent on the dashboard to the engine's
// asynchronous state. When a consultant clicks hold or release, the action is
// recorded as pending for that VIN; the next registry snapshot showing a
// different status confirms it. A watchdog clears anything unconfirmed after
// a bounded timeout so the UI never wedges on a lost response, at the cost of
// occasionally under-reporting a delayed success.
package reconcile

import (
	"sync"
	"time"

	"github.com/srthuanan/stockhold/internal/clock"
	"github.com/srthuanan/stockhold/internal/domain"
)

// Outcome says how a pending action was resolved.
type Outcome int

const (
	// OutcomeConfirmed means a snapshot showed the status changed.
	OutcomeConfirmed Outcome = iota
	// OutcomeTimedOut means the watchdog cleared the action unconfirmed.
	OutcomeTimedOut
)

// PendingAction is one in-flight hold/release from this session's view.
type PendingAction struct {
	VIN           string
	InitialStatus domain.VehicleStatus
	IssuedAt      time.Time
}

// ResolveFunc is called once per resolved action.
type ResolveFunc func(action PendingAction, outcome Outcome)

// Tracker keys pending actions by VIN so actions on different vehicles never
// interfere. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]PendingAction

	clock     clock.Clock
	timeout   time.Duration
	onResolve ResolveFunc
}

const DefaultWatchdogTimeout = 15 * time.Second

func NewTracker(clk clock.Clock, timeout time.Duration, onResolve ResolveFunc) *Tracker {
	if timeout <= 0 {
		timeout = DefaultWatchdogTimeout
	}
	if onResolve == nil {
		onResolve = func(PendingAction, Outcome) {}
	}
	return &Tracker{
		pending:   make(map[string]PendingAction),
		clock:     clk,
		timeout:   timeout,
		onResolve: onResolve,
	}
}

// Begin records an in-flight action for the VIN. Returns false when one is
// already pending; the caller should not issue a second command for the same
// vehicle until the first resolves.
func (t *Tracker) Begin(vin string, current domain.VehicleStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[vin]; exists {
		return false
	}
	t.pending[vin] = PendingAction{
		VIN:           vin,
		InitialStatus: current,
		IssuedAt:      t.clock.Now(),
	}
	return true
}

// Pending reports whether an action is in flight for the VIN.
func (t *Tracker) Pending(vin string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[vin]
	return ok
}

// Observe feeds one registry snapshot to the tracker. A status different from
// the one recorded at issue time is the success signal.
func (t *Tracker) Observe(v domain.Vehicle) {
	t.mu.Lock()
	action, ok := t.pending[v.VIN]
	if !ok || v.Status == action.InitialStatus {
		t.mu.Unlock()
		return
	}
	delete(t.pending, v.VIN)
	t.mu.Unlock()

	t.onResolve(action, OutcomeConfirmed)
}

// ObserveAll feeds a full registry snapshot, e.g. one poll result.
func (t *Tracker) ObserveAll(vehicles []domain.Vehicle) {
	for _, v := range vehicles {
		t.Observe(v)
	}
}

// Sweep resolves every pending action older than the watchdog timeout as
// timed out. Callers run it on the same cadence as their snapshot source.
func (t *Tracker) Sweep() []PendingAction {
	now := t.clock.Now()

	t.mu.Lock()
	var timedOut []PendingAction
	for vin, action := range t.pending {
		if now.Sub(action.IssuedAt) >= t.timeout {
			timedOut = append(timedOut, action)
			delete(t.pending, vin)
		}
	}
	t.mu.Unlock()

	for _, action := range timedOut {
		t.onResolve(action, OutcomeTimedOut)
	}
	return timedOut
}
