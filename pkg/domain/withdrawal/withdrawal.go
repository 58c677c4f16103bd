// Package withdrawal contains the withdrawal aggregate: the entity itself,
// its lifecycle states and the guarded transition table that governs them.
//
// A withdrawal is created once in state "prepared" and from then on is
// mutated only by state-machine events. Rows are never deleted; together
// with the append-only error log they form the audit trail.
package withdrawal

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrMemberRequired is returned when a withdrawal is built without an owner.
	ErrMemberRequired = errors.New("member id is required")

	// ErrCurrencyRequired is returned when a withdrawal is built without a currency.
	ErrCurrencyRequired = errors.New("currency is required")

	// ErrMissingRID is returned when neither an explicit recipient id nor a
	// beneficiary-derived one is available at creation.
	ErrMissingRID = errors.New("recipient id is required")

	// ErrAmountNotPositive is returned when the requested amount is zero or negative.
	ErrAmountNotPositive = errors.New("amount must be positive")

	// ErrNegativeFee is returned when the fee is negative.
	ErrNegativeFee = errors.New("fee must not be negative")

	// ErrBeneficiaryInactive is returned when the attached beneficiary is not
	// active and the withdrawal is not already completed.
	ErrBeneficiaryInactive = errors.New("beneficiary not active")

	// ErrBelowMinimum is returned when sum is below the currency's minimum
	// withdrawable amount.
	ErrBelowMinimum = errors.New("sum is below minimum withdraw amount")

	// ErrTxIDTaken is returned when the blockchain transaction id is already
	// recorded for another withdrawal of the same currency.
	ErrTxIDTaken = errors.New("txid already taken for currency")

	// ErrInvalidBlockNumber is returned for a negative block number.
	ErrInvalidBlockNumber = errors.New("block number must not be negative")

	// ErrNotFound is returned when a withdrawal does not exist.
	ErrNotFound = errors.New("withdrawal not found")
)

// State is a lifecycle state of a withdrawal.
type State string

const (
	StatePrepared   State = "prepared"
	StateAccepted   State = "accepted"
	StateToReject   State = "to_reject"
	StateRejected   State = "rejected"
	StateSkipped    State = "skipped"
	StateProcessing State = "processing"
	StateConfirming State = "confirming"
	StateSucceed    State = "succeed"
	StateCanceled   State = "canceled"
	StateFailed     State = "failed"
	StateErrored    State = "errored"
)

// States is the full declared state set. The transition table is validated
// against it at startup.
var States = []State{
	StatePrepared, StateAccepted, StateToReject, StateRejected, StateSkipped,
	StateProcessing, StateConfirming, StateSucceed, StateCanceled,
	StateFailed, StateErrored,
}

// CompletedStates are terminal: once entered, no further transitions occur.
var CompletedStates = []State{StateSucceed, StateRejected, StateCanceled, StateFailed}

// SucceedProcessingStates are the states counted toward limit windows:
// everything in flight or already succeeded.
var SucceedProcessingStates = []State{
	StateAccepted, StateSkipped, StateProcessing,
	StateErrored, StateConfirming, StateSucceed,
}

// IsCompleted reports whether s is terminal.
func (s State) IsCompleted() bool {
	for _, c := range CompletedStates {
		if s == c {
			return true
		}
	}
	return false
}

// TransferType tells whether a withdrawal settles via fiat rails or a
// blockchain broadcast. The numeric codes match the persisted enum.
type TransferType int

const (
	TransferFiat   TransferType = 100
	TransferCrypto TransferType = 200
)

func (t TransferType) String() string {
	switch t {
	case TransferFiat:
		return "fiat"
	case TransferCrypto:
		return "crypto"
	}
	return "unknown"
}

// ParseTransferType maps the wire representation back to a TransferType.
func ParseTransferType(s string) (TransferType, error) {
	switch s {
	case "fiat":
		return TransferFiat, nil
	case "crypto":
		return TransferCrypto, nil
	}
	return 0, errors.New("unknown transfer type: " + s)
}

// ErrorEntry is one record of the append-only processing error log.
type ErrorEntry struct {
	Class   string `json:"class"`
	Message string `json:"message"`
}

// Withdrawal is the aggregate root of the withdrawal lifecycle.
//
// Invariants:
//   - Sum == Amount + Fee, at creation and forever after.
//   - State is always a member of States.
//   - TxID, once set, is unique per currency.
//   - A completed withdrawal never transitions again.
type Withdrawal struct {
	ID            uuid.UUID
	MemberID      uuid.UUID
	CurrencyID    currency.Code
	BeneficiaryID *uuid.UUID
	RID           string
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	Sum           decimal.Decimal
	TxID          string
	BlockNumber   *int64
	TransferType  TransferType
	TID           string
	State         State
	Note          string
	ErrorLog      []ErrorEntry
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// IsCrypto reports whether the withdrawal is broadcast on-chain.
func (w *Withdrawal) IsCrypto() bool { return w.TransferType == TransferCrypto }

// IsFiat reports whether the withdrawal settles over fiat rails.
func (w *Withdrawal) IsFiat() bool { return w.TransferType == TransferFiat }

// IsCompleted reports whether the withdrawal reached a terminal state.
func (w *Withdrawal) IsCompleted() bool { return w.State.IsCompleted() }

// RecordError appends a structured processing error to the log. The log is
// append-only; entries are never rewritten or removed.
func (w *Withdrawal) RecordError(class, message string) {
	w.ErrorLog = append(w.ErrorLog, ErrorEntry{Class: class, Message: message})
}

// MarkCompleted stamps CompletedAt the first time a terminal state is entered.
func (w *Withdrawal) MarkCompleted(now time.Time) {
	if w.CompletedAt == nil {
		t := now
		w.CompletedAt = &t
	}
}

// Builder constructs valid withdrawals. Only Build enforces the creation
// invariants, so hydration from storage goes through it as well.
type Builder struct {
	id            uuid.UUID
	memberID      uuid.UUID
	currencyID    currency.Code
	beneficiaryID *uuid.UUID
	rid           string
	amount        decimal.Decimal
	fee           decimal.Decimal
	transferType  TransferType
	tid           string
	note          string
	createdAt     time.Time
}

// New creates a Builder with a fresh id, tid and creation time.
func New() *Builder {
	id := uuid.New()
	return &Builder{
		id:        id,
		tid:       NewTID(id),
		createdAt: time.Now().UTC(),
	}
}

func (b *Builder) WithID(id uuid.UUID) *Builder                { b.id = id; return b }
func (b *Builder) WithMemberID(id uuid.UUID) *Builder          { b.memberID = id; return b }
func (b *Builder) WithCurrency(c currency.Code) *Builder       { b.currencyID = c; return b }
func (b *Builder) WithBeneficiaryID(id *uuid.UUID) *Builder    { b.beneficiaryID = id; return b }
func (b *Builder) WithRID(rid string) *Builder                 { b.rid = rid; return b }
func (b *Builder) WithAmount(a decimal.Decimal) *Builder       { b.amount = a; return b }
func (b *Builder) WithFee(f decimal.Decimal) *Builder          { b.fee = f; return b }
func (b *Builder) WithTransferType(t TransferType) *Builder    { b.transferType = t; return b }
func (b *Builder) WithTID(tid string) *Builder                 { b.tid = tid; return b }
func (b *Builder) WithNote(note string) *Builder               { b.note = note; return b }
func (b *Builder) WithCreatedAt(t time.Time) *Builder          { b.createdAt = t; return b }

// Build validates the creation invariants and returns the withdrawal in the
// initial "prepared" state with Sum = Amount + Fee.
func (b *Builder) Build() (*Withdrawal, error) {
	if b.memberID == uuid.Nil {
		return nil, ErrMemberRequired
	}
	if b.currencyID == "" {
		return nil, ErrCurrencyRequired
	}
	if b.rid == "" {
		return nil, ErrMissingRID
	}
	if !b.amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	if b.fee.IsNegative() {
		return nil, ErrNegativeFee
	}
	if b.transferType != TransferFiat && b.transferType != TransferCrypto {
		return nil, errors.New("transfer type is required")
	}
	return &Withdrawal{
		ID:            b.id,
		MemberID:      b.memberID,
		CurrencyID:    b.currencyID,
		BeneficiaryID: b.beneficiaryID,
		RID:           b.rid,
		Amount:        b.amount,
		Fee:           b.fee,
		Sum:           b.amount.Add(b.fee),
		TransferType:  b.transferType,
		TID:           b.tid,
		State:         StatePrepared,
		Note:          b.note,
		CreatedAt:     b.createdAt,
		UpdatedAt:     b.createdAt,
	}, nil
}

// NewTID derives the correlation id published with lifecycle events. It is
// stable for the life of the withdrawal.
func NewTID(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return "TID" + strings.ToUpper(hex[:16])
}
