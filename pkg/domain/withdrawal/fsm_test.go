package withdrawal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWithdrawal(t *testing.T, state State, transferType TransferType) *Withdrawal {
	t.Helper()
	w := &Withdrawal{State: state, TransferType: transferType}
	return w
}

func TestNewMachine_TableIsValid(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestMachine_HappyPathCrypto(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)

	w := newTestWithdrawal(t, StatePrepared, TransferCrypto)
	steps := []struct {
		event Event
		want  State
	}{
		{EventAccept, StateAccepted},
		{EventProcess, StateProcessing},
		{EventDispatch, StateConfirming},
		{EventSuccess, StateSucceed},
	}
	w.TxID = "0xabc"
	for _, s := range steps {
		next, err := m.Next(w, s.event)
		require.NoError(t, err, "event %s from %s", s.event, w.State)
		assert.Equal(t, s.want, next)
		w.State = next
	}
}

func TestMachine_InvalidTransitionIsError(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)

	w := newTestWithdrawal(t, StatePrepared, TransferCrypto)
	_, err = m.Next(w, EventSuccess)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Completed states have no outgoing transitions at all.
	for _, terminal := range CompletedStates {
		w.State = terminal
		for _, event := range Events {
			_, err := m.Next(w, event)
			assert.ErrorIs(t, err, ErrInvalidTransition,
				"event %s from terminal %s", event, terminal)
		}
	}
}

func TestMachine_DoubleProcessRejected(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)

	w := newTestWithdrawal(t, StateAccepted, TransferCrypto)
	next, err := m.Next(w, EventProcess)
	require.NoError(t, err)
	w.State = next

	_, err = m.Next(w, EventProcess)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachine_LoadGuard(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)

	// Crypto without txid: declared but rejected by the guard.
	w := newTestWithdrawal(t, StateAccepted, TransferCrypto)
	_, err = m.Next(w, EventLoad)
	assert.ErrorIs(t, err, ErrGuardRejected)

	// Fiat never loads, even with a txid recorded.
	w = newTestWithdrawal(t, StateAccepted, TransferFiat)
	w.TxID = "0xabc"
	_, err = m.Next(w, EventLoad)
	assert.ErrorIs(t, err, ErrGuardRejected)

	// Crypto with txid skips straight to confirming.
	w = newTestWithdrawal(t, StateAccepted, TransferCrypto)
	w.TxID = "0xabc"
	next, err := m.Next(w, EventLoad)
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, next)
}

func TestMachine_DispatchGuard(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)

	// Crypto needs the broadcast txid before confirming.
	w := newTestWithdrawal(t, StateProcessing, TransferCrypto)
	_, err = m.Next(w, EventDispatch)
	assert.ErrorIs(t, err, ErrGuardRejected)

	w.TxID = "0xabc"
	next, err := m.Next(w, EventDispatch)
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, next)

	// Fiat passes without one.
	w = newTestWithdrawal(t, StateProcessing, TransferFiat)
	next, err = m.Next(w, EventDispatch)
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, next)
}

func TestMachine_SuccessGuard(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)

	w := newTestWithdrawal(t, StateConfirming, TransferCrypto)
	_, err = m.Next(w, EventSuccess)
	assert.ErrorIs(t, err, ErrGuardRejected)

	w.TxID = "0xabc"
	next, err := m.Next(w, EventSuccess)
	require.NoError(t, err)
	assert.Equal(t, StateSucceed, next)
}

func TestMachine_RecoveryPaths(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)

	// err parks the withdrawal, process retries it.
	w := newTestWithdrawal(t, StateProcessing, TransferCrypto)
	next, err := m.Next(w, EventErr)
	require.NoError(t, err)
	assert.Equal(t, StateErrored, next)
	w.State = next

	next, err = m.Next(w, EventProcess)
	require.NoError(t, err)
	assert.Equal(t, StateProcessing, next)

	// skip parks it too, and fail is reachable from there.
	w.State = StateProcessing
	next, err = m.Next(w, EventSkip)
	require.NoError(t, err)
	assert.Equal(t, StateSkipped, next)
	w.State = next

	next, err = m.Next(w, EventFail)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, next)
}

func TestMachine_CancelSources(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)

	for _, from := range []State{StatePrepared, StateAccepted} {
		w := newTestWithdrawal(t, from, TransferFiat)
		next, err := m.Next(w, EventCancel)
		require.NoError(t, err)
		assert.Equal(t, StateCanceled, next)
	}

	w := newTestWithdrawal(t, StateProcessing, TransferFiat)
	_, err = m.Next(w, EventCancel)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachine_NextDoesNotMutate(t *testing.T) {
	m, err := NewMachine()
	require.NoError(t, err)

	w := newTestWithdrawal(t, StatePrepared, TransferFiat)
	_, err = m.Next(w, EventAccept)
	require.NoError(t, err)
	assert.Equal(t, StatePrepared, w.State)
}
