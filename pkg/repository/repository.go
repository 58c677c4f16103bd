// Package repository defines the data-access ports consumed by the service
// layer. Implementations live in infra/repository; tests substitute
// in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/ledger"
	"github.com/amirasaad/exchange/pkg/domain/limits"
	"github.com/amirasaad/exchange/pkg/domain/member"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalRepository persists withdrawals. Withdrawals are append-only:
// there is no delete.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *withdrawal.Withdrawal) error
	Get(ctx context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error)
	// GetForUpdate loads the withdrawal under an exclusive row lock held
	// until the surrounding unit of work commits.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error)
	Update(ctx context.Context, w *withdrawal.Withdrawal) error
	// SumByMemberSince totals the `sum` column of the member's withdrawals
	// in the given states created after the cutoff.
	SumByMemberSince(ctx context.Context, memberID uuid.UUID, states []withdrawal.State, since time.Time) (decimal.Decimal, error)
	// TxIDExists reports whether another withdrawal of the same currency
	// already carries the transaction id.
	TxIDExists(ctx context.Context, code currency.Code, txid string, exclude uuid.UUID) (bool, error)
}

// AccountQuery identifies a ledger account. MemberID is nil for the
// exchange-wide asset and revenue accounts.
type AccountQuery struct {
	MemberID *uuid.UUID
	Currency currency.Code
	Scope    ledger.Scope
	Kind     ledger.Kind
}

// LedgerRepository persists ledger accounts and entries.
type LedgerRepository interface {
	// AccountForUpdate loads the account under an exclusive row lock,
	// creating a zero-balance row first if none exists.
	AccountForUpdate(ctx context.Context, q AccountQuery) (*ledger.Account, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	CreateEntry(ctx context.Context, e *ledger.Entry) error
	// EntryExists reports whether the (reference, event, code) triple was
	// already recorded; the transfer engine uses it as its idempotency check.
	EntryExists(ctx context.Context, referenceID uuid.UUID, event, code string) (bool, error)
	// EntriesByReference returns all entries recorded for a reference,
	// oldest first.
	EntriesByReference(ctx context.Context, referenceID uuid.UUID) ([]*ledger.Entry, error)
}

// LimitRepository persists withdraw-limit rows and serves the resolver's
// read path.
type LimitRepository interface {
	// Matching returns the rows where every dimension either equals the
	// query value or holds the wildcard sentinel.
	Matching(ctx context.Context, kycLevel, group string, code currency.Code) ([]limits.Limit, error)
	Create(ctx context.Context, l *limits.Limit) error
	Update(ctx context.Context, l *limits.Limit) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*limits.Limit, error)
	List(ctx context.Context) ([]limits.Limit, error)
}

// MemberRepository reads members and their beneficiaries.
type MemberRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*member.Member, error)
	GetBeneficiary(ctx context.Context, id uuid.UUID) (*member.Beneficiary, error)
}

// CurrencyRepository reads the currency catalog.
type CurrencyRepository interface {
	Get(ctx context.Context, code currency.Code) (*currency.Currency, error)
}

// UnitOfWork provides a transaction boundary and repository access bound to
// it. Repositories obtained inside Do share one database transaction, so a
// state transition and its ledger side effects commit or roll back together.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error
	Withdrawals() WithdrawalRepository
	Ledger() LedgerRepository
	Limits() LimitRepository
	Members() MemberRepository
	Currencies() CurrencyRepository
}
