// Package ledger implements the transfer engine: the only code path that
// mutates ledger balances. Every operation runs inside the caller's unit of
// work and records an entry keyed by (reference, event, code); re-invoking
// an operation for a triple already recorded is a no-op success, which keeps
// the engine safe under redelivery.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/ledger"
	"github.com/amirasaad/exchange/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine posts debits, credits and transfers against ledger accounts.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// TransferParams moves an amount between two liability sub-accounts of the
// same member and currency.
type TransferParams struct {
	Amount    decimal.Decimal
	Currency  currency.Code
	Reference uuid.UUID
	Event     string
	FromKind  ledger.Kind
	ToKind    ledger.Kind
	MemberID  uuid.UUID
}

// DebitParams decreases one account's balance.
type DebitParams struct {
	Amount    decimal.Decimal
	Currency  currency.Code
	Reference uuid.UUID
	Event     string
	Scope     ledger.Scope
	Kind      ledger.Kind
	MemberID  *uuid.UUID
}

// CreditParams increases a revenue or asset account.
type CreditParams struct {
	Amount    decimal.Decimal
	Currency  currency.Code
	Reference uuid.UUID
	Event     string
	Scope     ledger.Scope
	MemberID  *uuid.UUID
}

// Transfer debits the member's FromKind liability sub-account and credits
// the ToKind one. It fails with ledger.ErrInsufficientBalance when the
// source balance is short.
func (e *Engine) Transfer(ctx context.Context, uow repository.UnitOfWork, p TransferParams) error {
	if !p.Amount.IsPositive() {
		return ledger.ErrAmountNotPositive
	}
	code := fmt.Sprintf("liability:%s:%s", p.FromKind, p.ToKind)
	applied, err := e.alreadyApplied(ctx, uow, p.Reference, p.Event, code)
	if err != nil || applied {
		return err
	}

	repo := uow.Ledger()
	// Lock order is fixed by kind name so concurrent settlements of the
	// same member/currency cannot deadlock.
	first, second := p.FromKind, p.ToKind
	if second < first {
		first, second = second, first
	}
	accounts := map[ledger.Kind]*ledger.Account{}
	for _, kind := range []ledger.Kind{first, second} {
		acc, err := repo.AccountForUpdate(ctx, repository.AccountQuery{
			MemberID: &p.MemberID,
			Currency: p.Currency,
			Scope:    ledger.ScopeLiability,
			Kind:     kind,
		})
		if err != nil {
			return fmt.Errorf("load %s/%s account: %w", ledger.ScopeLiability, kind, err)
		}
		accounts[kind] = acc
	}

	from, to := accounts[p.FromKind], accounts[p.ToKind]
	if err := from.Debit(p.Amount); err != nil {
		return err
	}
	if err := to.Credit(p.Amount); err != nil {
		return err
	}
	if err := repo.UpdateBalance(ctx, from.ID, from.Balance); err != nil {
		return err
	}
	if err := repo.UpdateBalance(ctx, to.ID, to.Balance); err != nil {
		return err
	}
	return e.record(ctx, uow, p.Reference, p.Event, code, p.Currency, p.Amount, p.Amount)
}

// Debit decreases the balance of the addressed account.
func (e *Engine) Debit(ctx context.Context, uow repository.UnitOfWork, p DebitParams) error {
	if !p.Amount.IsPositive() {
		return ledger.ErrAmountNotPositive
	}
	code := fmt.Sprintf("%s:%s:debit", p.Scope, p.Kind)
	applied, err := e.alreadyApplied(ctx, uow, p.Reference, p.Event, code)
	if err != nil || applied {
		return err
	}

	repo := uow.Ledger()
	acc, err := repo.AccountForUpdate(ctx, repository.AccountQuery{
		MemberID: p.MemberID,
		Currency: p.Currency,
		Scope:    p.Scope,
		Kind:     p.Kind,
	})
	if err != nil {
		return fmt.Errorf("load %s/%s account: %w", p.Scope, p.Kind, err)
	}
	// Asset accounts may run negative: the exchange's on-chain reserves are
	// tracked elsewhere, the ledger only mirrors the movement.
	if p.Scope == ledger.ScopeAsset {
		acc.Balance = acc.Balance.Sub(p.Amount)
	} else if err := acc.Debit(p.Amount); err != nil {
		return err
	}
	if err := repo.UpdateBalance(ctx, acc.ID, acc.Balance); err != nil {
		return err
	}
	return e.record(ctx, uow, p.Reference, p.Event, code, p.Currency, p.Amount, decimal.Zero)
}

// Credit increases a revenue or asset account.
func (e *Engine) Credit(ctx context.Context, uow repository.UnitOfWork, p CreditParams) error {
	if !p.Amount.IsPositive() {
		return ledger.ErrAmountNotPositive
	}
	code := fmt.Sprintf("%s:main:credit", p.Scope)
	applied, err := e.alreadyApplied(ctx, uow, p.Reference, p.Event, code)
	if err != nil || applied {
		return err
	}

	repo := uow.Ledger()
	acc, err := repo.AccountForUpdate(ctx, repository.AccountQuery{
		MemberID: p.MemberID,
		Currency: p.Currency,
		Scope:    p.Scope,
		Kind:     ledger.KindMain,
	})
	if err != nil {
		return fmt.Errorf("load %s account: %w", p.Scope, err)
	}
	if err := acc.Credit(p.Amount); err != nil {
		return err
	}
	if err := repo.UpdateBalance(ctx, acc.ID, acc.Balance); err != nil {
		return err
	}
	return e.record(ctx, uow, p.Reference, p.Event, code, p.Currency, decimal.Zero, p.Amount)
}

func (e *Engine) alreadyApplied(
	ctx context.Context,
	uow repository.UnitOfWork,
	reference uuid.UUID,
	event, code string,
) (bool, error) {
	exists, err := uow.Ledger().EntryExists(ctx, reference, event, code)
	if err != nil {
		return false, fmt.Errorf("check ledger entry: %w", err)
	}
	if exists {
		e.logger.Warn("ledger operation already applied, skipping",
			"reference", reference, "event", event, "code", code)
	}
	return exists, nil
}

func (e *Engine) record(
	ctx context.Context,
	uow repository.UnitOfWork,
	reference uuid.UUID,
	event, code string,
	cur currency.Code,
	debit, credit decimal.Decimal,
) error {
	entry := &ledger.Entry{
		ID:          uuid.New(),
		ReferenceID: reference,
		Event:       event,
		Code:        code,
		Currency:    cur,
		Debit:       debit,
		Credit:      credit,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uow.Ledger().CreateEntry(ctx, entry); err != nil {
		return fmt.Errorf("record ledger entry: %w", err)
	}
	return nil
}
