package withdrawal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an event is applied from a state
	// the transition table does not declare for it. This is an error, not a
	// silent no-op: a mismatched event means the caller is out of date.
	ErrInvalidTransition = errors.New("event not allowed from current state")

	// ErrGuardRejected is returned when the (state, event) pair is declared
	// but its guard evaluated false.
	ErrGuardRejected = errors.New("transition guard rejected")
)

// Event names a withdrawal lifecycle command.
type Event string

const (
	EventAccept   Event = "accept"
	EventCancel   Event = "cancel"
	EventReject   Event = "reject"
	EventProcess  Event = "process"
	EventLoad     Event = "load"
	EventDispatch Event = "dispatch"
	EventSuccess  Event = "success"
	EventSkip     Event = "skip"
	EventFail     Event = "fail"
	EventErr      Event = "err"
)

// Events is the full declared event set.
var Events = []Event{
	EventAccept, EventCancel, EventReject, EventProcess, EventLoad,
	EventDispatch, EventSuccess, EventSkip, EventFail, EventErr,
}

// Guard decides whether a declared transition may fire for a particular
// withdrawal. Guards must be pure: side effects belong to the service layer.
type Guard func(w *Withdrawal) bool

// Transition is one row of the state machine table.
type Transition struct {
	From  []State
	To    State
	Guard Guard
}

// Machine is the withdrawal state machine: a declared transition table,
// validated once at construction. Any (state, event) pair not in the table
// is rejected at apply time.
type Machine struct {
	table map[Event]Transition
}

func guardTxIDForCrypto(w *Withdrawal) bool { return w.IsFiat() || w.TxID != "" }
func guardLoad(w *Withdrawal) bool          { return w.IsCrypto() && w.TxID != "" }

// NewMachine builds the withdrawal state machine and validates the table:
// every state and event must be declared, and no completed state may have an
// outgoing transition.
func NewMachine() (*Machine, error) {
	m := &Machine{table: map[Event]Transition{
		EventAccept:   {From: []State{StatePrepared}, To: StateAccepted},
		EventCancel:   {From: []State{StatePrepared, StateAccepted}, To: StateCanceled},
		EventReject:   {From: []State{StateToReject, StateAccepted, StateConfirming}, To: StateRejected},
		EventProcess:  {From: []State{StateAccepted, StateSkipped, StateErrored}, To: StateProcessing},
		EventLoad:     {From: []State{StateAccepted}, To: StateConfirming, Guard: guardLoad},
		EventDispatch: {From: []State{StateProcessing}, To: StateConfirming, Guard: guardTxIDForCrypto},
		EventSuccess:  {From: []State{StateConfirming, StateErrored}, To: StateSucceed, Guard: guardTxIDForCrypto},
		EventSkip:     {From: []State{StateProcessing}, To: StateSkipped},
		EventFail:     {From: []State{StateProcessing, StateConfirming, StateSkipped, StateErrored}, To: StateFailed},
		EventErr:      {From: []State{StateProcessing}, To: StateErrored},
	}}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Machine) validate() error {
	known := make(map[State]bool, len(States))
	for _, s := range States {
		known[s] = true
	}
	declared := make(map[Event]bool, len(Events))
	for _, e := range Events {
		declared[e] = true
	}
	for event, t := range m.table {
		if !declared[event] {
			return fmt.Errorf("transition table declares unknown event %q", event)
		}
		if !known[t.To] {
			return fmt.Errorf("event %q targets unknown state %q", event, t.To)
		}
		if len(t.From) == 0 {
			return fmt.Errorf("event %q has no source states", event)
		}
		for _, from := range t.From {
			if !known[from] {
				return fmt.Errorf("event %q departs unknown state %q", event, from)
			}
			if from.IsCompleted() {
				return fmt.Errorf("event %q departs completed state %q", event, from)
			}
		}
	}
	for _, e := range Events {
		if _, ok := m.table[e]; !ok {
			return fmt.Errorf("event %q missing from transition table", e)
		}
	}
	return nil
}

// Next evaluates the table for (w.State, event) and returns the destination
// state. It does not mutate w; the caller applies the state under its own
// transaction together with the event's ledger side effects.
func (m *Machine) Next(w *Withdrawal, event Event) (State, error) {
	t, ok := m.table[event]
	if !ok {
		return "", fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, event)
	}
	allowed := false
	for _, from := range t.From {
		if w.State == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("%w: %q from %q", ErrInvalidTransition, event, w.State)
	}
	if t.Guard != nil && !t.Guard(w) {
		return "", fmt.Errorf("%w: %q from %q", ErrGuardRejected, event, w.State)
	}
	return t.To, nil
}
