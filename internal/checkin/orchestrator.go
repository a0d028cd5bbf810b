// Package checkin coordinates the decoder, the backend check-in call and the
// per-session result state for one operator station.
package checkin

import (
	"context"
	"errors"
	"sync"

	"symposium/internal/model"
)

// State is the orchestrator's explicit page state. A single enum replaces
// the scannerActive/isProcessing/result boolean combinations so ambiguous
// states cannot be expressed.
type State int

const (
	// StateIdle: scanner live, waiting for a decode.
	StateIdle State = iota
	// StateProcessing: one check-in request in flight. Further decodes are
	// ignored until the operator resets.
	StateProcessing
	// StateResult: outcome shown; only an explicit reset returns to idle.
	StateResult
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateResult:
		return "result"
	}
	return "unknown"
}

// ErrScanIgnored is returned for decodes arriving while a scan is being
// processed or a result is still on screen. The scan has no side effects.
var ErrScanIgnored = errors.New("scan ignored")

// ErrNoEventSelected is returned for session-mode scans before an event has
// been chosen. No backend call is made; the caller shows the selector.
var ErrNoEventSelected = errors.New("no event selected")

// ErrClosed is returned after Close; late responses are discarded rather
// than applied.
var ErrClosed = errors.New("orchestrator closed")

// Backend performs the actual check-in call. Satisfied by *api.Client.
type Backend interface {
	CheckIn(ctx context.Context, qr string, typ model.CheckInType, eventID string) model.CheckInResponse
}

// historyCap bounds the recent-scans list; newest entry first.
const historyCap = 10

// Orchestrator owns the scan state machine for one station page. The mutex
// is the station's only concurrency control: the decoder goroutine delivers
// scans while operator actions (reset, event selection) arrive from the main
// loop.
type Orchestrator struct {
	mode    model.CheckInType
	backend Backend
	metrics *Metrics

	mu       sync.Mutex
	state    State
	selected *model.Event
	stats    Stats
	history  []model.CheckInResponse
	result   *model.CheckInResponse
	closed   bool
}

// New creates an orchestrator for the given check-in mode. metrics may be
// nil when no registry is wired (tests).
func New(mode model.CheckInType, backend Backend, metrics *Metrics) *Orchestrator {
	return &Orchestrator{
		mode:    mode,
		backend: backend,
		metrics: metrics,
		state:   StateIdle,
	}
}

// HandleScan runs one decoded payload through the state machine. It is safe
// to call from the decoder goroutine. A scan is counted the moment it is
// accepted, before the network call resolves, and every accepted scan ends
// in StateResult with exactly one outcome counter incremented.
func (o *Orchestrator) HandleScan(ctx context.Context, qr string) (model.CheckInResponse, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return model.CheckInResponse{}, ErrClosed
	}
	if o.state != StateIdle {
		o.mu.Unlock()
		return model.CheckInResponse{}, ErrScanIgnored
	}
	var eventID string
	if o.mode == model.CheckInSession {
		if o.selected == nil {
			o.mu.Unlock()
			return model.CheckInResponse{}, ErrNoEventSelected
		}
		eventID = o.selected.ID
	}
	o.state = StateProcessing
	o.stats.Total++
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.Attempts.Inc()
	}

	resp := o.callBackend(ctx, qr, eventID)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		// The page unmounted while the request was in flight; discard.
		return model.CheckInResponse{}, ErrClosed
	}

	outcome := ClassifyOutcome(resp)
	switch outcome {
	case OutcomeSuccess:
		o.stats.Successful++
	case OutcomeAlreadyCheckedIn:
		o.stats.AlreadyCheckedIn++
	case OutcomeFailed:
		o.stats.Failed++
	}
	if o.metrics != nil {
		o.metrics.Scans.WithLabelValues(string(outcome)).Inc()
	}

	o.history = append([]model.CheckInResponse{resp}, o.history...)
	if len(o.history) > historyCap {
		o.history = o.history[:historyCap]
	}
	o.result = &resp
	o.state = StateResult
	return resp, nil
}

// callBackend issues exactly one check-in request and converts anything
// unexpected into a failed outcome so the state machine always reaches a
// terminal, resettable state.
func (o *Orchestrator) callBackend(ctx context.Context, qr, eventID string) (resp model.CheckInResponse) {
	defer func() {
		if r := recover(); r != nil {
			resp = model.CheckInResponse{Success: false, Message: "Check-in failed"}
		}
	}()
	return o.backend.CheckIn(ctx, qr, o.mode, eventID)
}

// Reset is the operator's "scan next" action, the only transition out of
// StateResult. Resets while processing are ignored.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateResult {
		return
	}
	o.result = nil
	o.state = StateIdle
}

// SelectEvent chooses the session event and zeroes all counters, the recent
// history and any shown result. The explicit "change event" action goes
// through here as well.
func (o *Orchestrator) SelectEvent(ev model.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	cp := ev
	o.selected = &cp
	o.stats = Stats{}
	o.history = nil
	o.result = nil
	o.state = StateIdle
}

// ClearEvent returns the page to the event-selection sub-view.
func (o *Orchestrator) ClearEvent() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.selected = nil
	o.result = nil
	o.state = StateIdle
}

// SelectedEvent returns a copy of the chosen event, or nil.
func (o *Orchestrator) SelectedEvent() *model.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected == nil {
		return nil
	}
	cp := *o.selected
	return &cp
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot returns the counters, result and history for presentation and
// the station's stats endpoint.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	hist := make([]model.CheckInResponse, len(o.history))
	copy(hist, o.history)
	var res *model.CheckInResponse
	if o.result != nil {
		cp := *o.result
		res = &cp
	}
	return Snapshot{
		State:   o.state,
		Stats:   o.stats,
		Result:  res,
		History: hist,
	}
}

// Close marks the orchestrator unmounted. In-flight responses arriving
// afterwards are dropped instead of mutating counters.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}
