package limits

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/exchange/internal/fixtures"
	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/limits"
	"github.com/amirasaad/exchange/pkg/domain/member"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *Resolver {
	return NewResolver(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolver_Resolve_MostSpecificWins(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	d100 := decimal.NewFromInt(100)
	uow.SeedLimit(limits.Limit{ID: 1, KYCLevel: limits.Any, Group: limits.Any, CurrencyID: currency.Any, Limit24H: d100})
	uow.SeedLimit(limits.Limit{ID: 2, KYCLevel: limits.Any, Group: limits.Any, CurrencyID: "btc", Limit24H: d100.Mul(decimal.NewFromInt(2))})
	uow.SeedLimit(limits.Limit{ID: 3, KYCLevel: limits.Any, Group: "vip", CurrencyID: "btc", Limit24H: d100.Mul(decimal.NewFromInt(3))})
	uow.SeedLimit(limits.Limit{ID: 4, KYCLevel: "2", Group: limits.Any, CurrencyID: currency.Any, Limit24H: d100.Mul(decimal.NewFromInt(4))})

	r := newTestResolver()

	// An exact kyc match outweighs exact group plus currency.
	got, err := r.Resolve(context.Background(), uow.Limits(), "2", "vip", "btc")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.ID)

	// Without a kyc match, group beats currency.
	got, err = r.Resolve(context.Background(), uow.Limits(), "1", "vip", "btc")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)

	// Neither kyc nor group: the currency row.
	got, err = r.Resolve(context.Background(), uow.Limits(), "1", "standard", "btc")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)

	// Nothing specific at all: the global wildcard.
	got, err = r.Resolve(context.Background(), uow.Limits(), "1", "standard", "eth")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func TestResolver_Resolve_TieBreaksOnLowestID(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	uow.SeedLimit(limits.Limit{ID: 9, KYCLevel: limits.Any, Group: limits.Any, CurrencyID: currency.Any})
	uow.SeedLimit(limits.Limit{ID: 4, KYCLevel: limits.Any, Group: limits.Any, CurrencyID: currency.Any})

	r := newTestResolver()
	got, err := r.Resolve(context.Background(), uow.Limits(), "1", "standard", "eth")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.ID)
}

func TestResolver_Resolve_ZeroDefaultWhenUnconfigured(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	r := newTestResolver()

	got, err := r.Resolve(context.Background(), uow.Limits(), "2", "vip", "btc")
	require.NoError(t, err)
	assert.Zero(t, got.ID)
	assert.True(t, got.Limit24H.IsZero())
	assert.True(t, got.Limit1Month.IsZero())
}

func TestResolver_Resolve_NormalizesGroup(t *testing.T) {
	uow := fixtures.NewMemoryUoW()
	uow.SeedLimit(limits.Limit{ID: 1, KYCLevel: limits.Any, Group: "vip", CurrencyID: currency.Any})

	r := newTestResolver()
	got, err := r.Resolve(context.Background(), uow.Limits(), "1", "  VIP  ", "btc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func seedWindowFixture(t *testing.T) (*fixtures.MemoryUoW, *member.Member, *currency.Currency) {
	t.Helper()
	uow := fixtures.NewMemoryUoW()
	m := &member.Member{ID: uuid.New(), UID: "ID001", KYCLevel: "2", Group: "vip"}
	cur := &currency.Currency{
		Code:  "btc",
		Kind:  currency.KindCoin,
		Price: decimal.NewFromInt(10000),
	}
	uow.SeedMember(*m)
	uow.SeedCurrency(*cur)
	return uow, m, cur
}

func TestResolver_Verify_24HourWindow(t *testing.T) {
	uow, m, cur := seedWindowFixture(t)
	// Caps in quote currency: 10000 per day, 100000 per month. At a price
	// of 10000, that is 1 btc per day and 10 per month.
	uow.SeedLimit(limits.Limit{
		ID: 1, KYCLevel: limits.Any, Group: limits.Any, CurrencyID: currency.Any,
		Limit24H:    decimal.NewFromInt(10000),
		Limit1Month: decimal.NewFromInt(100000),
	})

	now := time.Now().UTC()
	// 0.7 btc already in flight inside the 24h window.
	uow.SeedWithdrawal(withdrawal.Withdrawal{
		ID: uuid.New(), MemberID: m.ID, CurrencyID: cur.Code,
		Sum: decimal.NewFromFloat(0.7), State: withdrawal.StateAccepted,
		CreatedAt: now.Add(-time.Hour),
	})

	r := newTestResolver()
	err := r.Verify(context.Background(), uow, m, cur, decimal.NewFromFloat(0.4), now)
	assert.ErrorIs(t, err, limits.ErrLimit24HExceeded)

	err = r.Verify(context.Background(), uow, m, cur, decimal.NewFromFloat(0.3), now)
	assert.NoError(t, err)
}

func TestResolver_Verify_1MonthWindow(t *testing.T) {
	uow, m, cur := seedWindowFixture(t)
	uow.SeedLimit(limits.Limit{
		ID: 1, KYCLevel: limits.Any, Group: limits.Any, CurrencyID: currency.Any,
		Limit24H:    decimal.NewFromInt(10000),
		Limit1Month: decimal.NewFromInt(50000),
	})

	now := time.Now().UTC()
	// 4.8 btc succeeded ten days ago: outside the 24h window, inside the
	// monthly one.
	uow.SeedWithdrawal(withdrawal.Withdrawal{
		ID: uuid.New(), MemberID: m.ID, CurrencyID: cur.Code,
		Sum: decimal.NewFromFloat(4.8), State: withdrawal.StateSucceed,
		CreatedAt: now.AddDate(0, 0, -10),
	})

	r := newTestResolver()
	err := r.Verify(context.Background(), uow, m, cur, decimal.NewFromFloat(0.5), now)
	assert.ErrorIs(t, err, limits.ErrLimit1MonthExceeded)

	err = r.Verify(context.Background(), uow, m, cur, decimal.NewFromFloat(0.2), now)
	assert.NoError(t, err)
}

func TestResolver_Verify_IgnoresCompletedFailures(t *testing.T) {
	uow, m, cur := seedWindowFixture(t)
	uow.SeedLimit(limits.Limit{
		ID: 1, KYCLevel: limits.Any, Group: limits.Any, CurrencyID: currency.Any,
		Limit24H:    decimal.NewFromInt(10000),
		Limit1Month: decimal.NewFromInt(100000),
	})

	now := time.Now().UTC()
	// Canceled and failed withdrawals never count toward the windows.
	for _, state := range []withdrawal.State{withdrawal.StateCanceled, withdrawal.StateFailed, withdrawal.StateRejected} {
		uow.SeedWithdrawal(withdrawal.Withdrawal{
			ID: uuid.New(), MemberID: m.ID, CurrencyID: cur.Code,
			Sum: decimal.NewFromInt(5), State: state,
			CreatedAt: now.Add(-time.Hour),
		})
	}

	r := newTestResolver()
	err := r.Verify(context.Background(), uow, m, cur, decimal.NewFromFloat(0.9), now)
	assert.NoError(t, err)
}

func TestResolver_Verify_ZeroDefaultBlocksEverything(t *testing.T) {
	uow, m, cur := seedWindowFixture(t)
	r := newTestResolver()

	err := r.Verify(context.Background(), uow, m, cur, decimal.NewFromFloat(0.0001), time.Now().UTC())
	assert.ErrorIs(t, err, limits.ErrLimit24HExceeded)
}
