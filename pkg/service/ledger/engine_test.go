package ledger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/exchange/internal/fixtures"
	"github.com/amirasaad/exchange/pkg/domain/ledger"
	"github.com/amirasaad/exchange/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mainQuery(memberID *uuid.UUID) repository.AccountQuery {
	return repository.AccountQuery{
		MemberID: memberID,
		Currency: "btc",
		Scope:    ledger.ScopeLiability,
		Kind:     ledger.KindMain,
	}
}

func lockedQuery(memberID *uuid.UUID) repository.AccountQuery {
	return repository.AccountQuery{
		MemberID: memberID,
		Currency: "btc",
		Scope:    ledger.ScopeLiability,
		Kind:     ledger.KindLocked,
	}
}

func TestEngine_Transfer(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	memberID := uuid.New()
	uow.SeedBalance(mainQuery(&memberID), decimal.NewFromInt(10))

	e := newTestEngine()
	ref := uuid.New()
	err := e.Transfer(context.Background(), uow, TransferParams{
		Amount:    decimal.NewFromInt(3),
		Currency:  "btc",
		Reference: ref,
		Event:     "accept",
		FromKind:  ledger.KindMain,
		ToKind:    ledger.KindLocked,
		MemberID:  memberID,
	})
	require.NoError(t, err)

	assert.True(t, uow.Balance(mainQuery(&memberID)).Equal(decimal.NewFromInt(7)))
	assert.True(t, uow.Balance(lockedQuery(&memberID)).Equal(decimal.NewFromInt(3)))

	entries := uow.Entries(ref)
	require.Len(t, entries, 1)
	assert.Equal(t, "liability:main:locked", entries[0].Code)
	assert.Equal(t, "accept", entries[0].Event)
}

func TestEngine_Transfer_Idempotent(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	memberID := uuid.New()
	uow.SeedBalance(mainQuery(&memberID), decimal.NewFromInt(10))

	e := newTestEngine()
	ref := uuid.New()
	p := TransferParams{
		Amount:    decimal.NewFromInt(3),
		Currency:  "btc",
		Reference: ref,
		Event:     "accept",
		FromKind:  ledger.KindMain,
		ToKind:    ledger.KindLocked,
		MemberID:  memberID,
	}
	require.NoError(t, e.Transfer(context.Background(), uow, p))
	// Redelivery of the same (reference, event, code) moves nothing.
	require.NoError(t, e.Transfer(context.Background(), uow, p))

	assert.True(t, uow.Balance(mainQuery(&memberID)).Equal(decimal.NewFromInt(7)))
	assert.True(t, uow.Balance(lockedQuery(&memberID)).Equal(decimal.NewFromInt(3)))
	assert.Len(t, uow.Entries(ref), 1)
}

func TestEngine_Transfer_InsufficientBalance(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	memberID := uuid.New()
	uow.SeedBalance(mainQuery(&memberID), decimal.NewFromInt(1))

	e := newTestEngine()
	err := e.Transfer(context.Background(), uow, TransferParams{
		Amount:    decimal.NewFromInt(3),
		Currency:  "btc",
		Reference: uuid.New(),
		Event:     "accept",
		FromKind:  ledger.KindMain,
		ToKind:    ledger.KindLocked,
		MemberID:  memberID,
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestEngine_Transfer_RejectsNonPositiveAmount(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	e := newTestEngine()
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		err := e.Transfer(context.Background(), uow, TransferParams{
			Amount:    amount,
			Currency:  "btc",
			Reference: uuid.New(),
			Event:     "accept",
			FromKind:  ledger.KindMain,
			ToKind:    ledger.KindLocked,
			MemberID:  uuid.New(),
		})
		assert.ErrorIs(t, err, ledger.ErrAmountNotPositive)
	}
}

func TestEngine_Debit_LiabilityCannotGoNegative(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	memberID := uuid.New()
	uow.SeedBalance(lockedQuery(&memberID), decimal.NewFromInt(2))

	e := newTestEngine()
	err := e.Debit(context.Background(), uow, DebitParams{
		Amount:    decimal.NewFromInt(5),
		Currency:  "btc",
		Reference: uuid.New(),
		Event:     "success",
		Scope:     ledger.ScopeLiability,
		Kind:      ledger.KindLocked,
		MemberID:  &memberID,
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestEngine_Debit_AssetMayRunNegative(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	e := newTestEngine()
	q := repository.AccountQuery{
		Currency: "btc",
		Scope:    ledger.ScopeAsset,
		Kind:     ledger.KindMain,
	}

	err := e.Debit(context.Background(), uow, DebitParams{
		Amount:    decimal.NewFromInt(5),
		Currency:  "btc",
		Reference: uuid.New(),
		Event:     "success",
		Scope:     ledger.ScopeAsset,
		Kind:      ledger.KindMain,
	})
	require.NoError(t, err)
	assert.True(t, uow.Balance(q).Equal(decimal.NewFromInt(-5)))
}

func TestEngine_Credit_Revenue(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	e := newTestEngine()
	ref := uuid.New()
	q := repository.AccountQuery{
		Currency: "btc",
		Scope:    ledger.ScopeRevenue,
		Kind:     ledger.KindMain,
	}

	err := e.Credit(context.Background(), uow, CreditParams{
		Amount:    decimal.NewFromFloat(0.001),
		Currency:  "btc",
		Reference: ref,
		Event:     "success",
		Scope:     ledger.ScopeRevenue,
	})
	require.NoError(t, err)
	assert.True(t, uow.Balance(q).Equal(decimal.NewFromFloat(0.001)))

	entries := uow.Entries(ref)
	require.Len(t, entries, 1)
	assert.Equal(t, "revenue:main:credit", entries[0].Code)
	assert.True(t, entries[0].Credit.Equal(decimal.NewFromFloat(0.001)))
	assert.True(t, entries[0].Debit.IsZero())
}

func TestEngine_DistinctCodesUnderOneReference(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	memberID := uuid.New()
	uow.SeedBalance(lockedQuery(&memberID), decimal.NewFromInt(5))

	e := newTestEngine()
	ref := uuid.New()
	ctx := context.Background()

	require.NoError(t, e.Debit(ctx, uow, DebitParams{
		Amount: decimal.NewFromInt(5), Currency: "btc", Reference: ref,
		Event: "success", Scope: ledger.ScopeLiability, Kind: ledger.KindLocked,
		MemberID: &memberID,
	}))
	require.NoError(t, e.Credit(ctx, uow, CreditParams{
		Amount: decimal.NewFromInt(1), Currency: "btc", Reference: ref,
		Event: "success", Scope: ledger.ScopeRevenue,
	}))
	require.NoError(t, e.Debit(ctx, uow, DebitParams{
		Amount: decimal.NewFromInt(4), Currency: "btc", Reference: ref,
		Event: "success", Scope: ledger.ScopeAsset, Kind: ledger.KindMain,
	}))

	// Three codes, one reference: the settlement leg set.
	assert.Len(t, uow.Entries(ref), 3)
}
