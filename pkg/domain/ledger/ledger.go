// Package ledger models the double-entry accounts the withdrawal lifecycle
// posts against: per-member liability accounts (main and locked) plus the
// exchange-wide asset and revenue accounts. Balances mutate only through the
// transfer engine in pkg/service/ledger.
package ledger

import (
	"errors"
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientBalance is returned when a debit or transfer would take
	// an account below zero.
	ErrInsufficientBalance = errors.New("insufficient account balance")

	// ErrAccountNotFound is returned when the requested ledger account does
	// not exist.
	ErrAccountNotFound = errors.New("ledger account not found")

	// ErrAmountNotPositive is returned when a ledger operation is invoked
	// with a zero or negative amount.
	ErrAmountNotPositive = errors.New("ledger amount must be positive")
)

// Scope classifies an account in double-entry terms.
type Scope string

const (
	// ScopeLiability accounts hold funds owed to members.
	ScopeLiability Scope = "liability"
	// ScopeAsset accounts hold exchange reserves.
	ScopeAsset Scope = "asset"
	// ScopeRevenue accounts accumulate collected fees.
	ScopeRevenue Scope = "revenue"
)

// Kind is the sub-account of a liability account. Asset and revenue
// accounts only ever use KindMain.
type Kind string

const (
	// KindMain is the spendable sub-account.
	KindMain Kind = "main"
	// KindLocked holds funds reserved pending settlement.
	KindLocked Kind = "locked"
)

// Account is one ledger account row. MemberID is nil for the exchange-wide
// asset and revenue accounts.
type Account struct {
	ID        uuid.UUID
	MemberID  *uuid.UUID
	Currency  currency.Code
	Scope     Scope
	Kind      Kind
	Balance   decimal.Decimal
	UpdatedAt time.Time
}

// Entry records one applied ledger operation. The (ReferenceID, Event, Code)
// triple is unique: re-recording the same triple is the engine's idempotency
// signal and leaves balances untouched.
type Entry struct {
	ID          uuid.UUID
	ReferenceID uuid.UUID
	Event       string
	Code        string
	Currency    currency.Code
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	CreatedAt   time.Time
}

// Debit decreases the balance, failing if it would go negative.
func (a *Account) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Credit increases the balance.
func (a *Account) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}
