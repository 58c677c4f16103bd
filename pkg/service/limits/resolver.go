// Package limits resolves the effective withdraw limit for a withdrawal and
// enforces the trailing 24-hour and 1-month windows before funds are locked.
package limits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/limits"
	"github.com/amirasaad/exchange/pkg/domain/member"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	"github.com/amirasaad/exchange/pkg/repository"
	"github.com/shopspring/decimal"
)

// Resolver selects the most specific withdraw limit for a
// (kyc level, group, currency) query and verifies window caps.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve picks the matching row with the greatest specificity weight.
// Equal weights are broken by lowest row id. When nothing matches it
// returns the zero-limit default without persisting anything.
func (r *Resolver) Resolve(
	ctx context.Context,
	repo repository.LimitRepository,
	kycLevel, group string,
	code currency.Code,
) (limits.Limit, error) {
	group = limits.NormalizeGroup(group)
	rows, err := repo.Matching(ctx, kycLevel, group, code)
	if err != nil {
		return limits.Limit{}, fmt.Errorf("resolve withdraw limit: %w", err)
	}
	var best limits.Limit
	found := false
	for _, row := range rows {
		// Repositories already filter; re-check to stay correct with
		// coarser implementations.
		if !row.Matches(kycLevel, group, code) {
			continue
		}
		if !found {
			best, found = row, true
			continue
		}
		if row.Weight() > best.Weight() ||
			(row.Weight() == best.Weight() && row.ID < best.ID) {
			best = row
		}
	}
	if !found {
		r.logger.Debug("no withdraw limit configured, using zero default",
			"kyc_level", kycLevel, "group", group, "currency", code)
		return limits.Limit{CurrencyID: currency.Any, Group: limits.Any, KYCLevel: limits.Any}, nil
	}
	return best, nil
}

// Verify enforces both windows for a candidate withdrawal of the given sum.
// Limits are configured in the quote currency, so the caps are converted
// into the withdrawal's currency using its current price. The candidate's
// sum is counted together with every succeeding-or-in-flight withdrawal the
// member created inside each trailing window.
func (r *Resolver) Verify(
	ctx context.Context,
	uow repository.UnitOfWork,
	m *member.Member,
	cur *currency.Currency,
	sum decimal.Decimal,
	now time.Time,
) error {
	lim, err := r.Resolve(ctx, uow.Limits(), m.KYCLevel, m.Group, cur.Code)
	if err != nil {
		return err
	}
	cap24 := lim.Limit24H.Mul(cur.Price)
	cap1M := lim.Limit1Month.Mul(cur.Price)

	sum24, err := uow.Withdrawals().SumByMemberSince(
		ctx, m.ID, withdrawal.SucceedProcessingStates, now.Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("sum 24h withdrawals: %w", err)
	}
	if sum24.Add(sum).GreaterThan(cap24) {
		return limits.ErrLimit24HExceeded
	}

	sum1M, err := uow.Withdrawals().SumByMemberSince(
		ctx, m.ID, withdrawal.SucceedProcessingStates, now.AddDate(0, -1, 0))
	if err != nil {
		return fmt.Errorf("sum 1 month withdrawals: %w", err)
	}
	if sum1M.Add(sum).GreaterThan(cap1M) {
		return limits.ErrLimit1MonthExceeded
	}
	return nil
}
