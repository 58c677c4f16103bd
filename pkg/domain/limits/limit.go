// Package limits models tiered withdraw limits. Each row caps the trailing
// 24-hour and 1-month withdrawal volume for a (kyc level, member group,
// currency) segment; any dimension may hold the wildcard sentinel "any".
package limits

import (
	"errors"
	"strings"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/shopspring/decimal"
)

// Any is the wildcard value for the kyc level and group dimensions.
const Any = "any"

var (
	// ErrLimit24HExceeded is returned when a withdrawal would breach the
	// trailing 24-hour cap.
	ErrLimit24HExceeded = errors.New("24h withdraw limit exceeded")

	// ErrLimit1MonthExceeded is returned when a withdrawal would breach the
	// trailing 1-month cap.
	ErrLimit1MonthExceeded = errors.New("1 month withdraw limit exceeded")

	// ErrDuplicate is returned when a row for the exact
	// (currency, group, kyc level) triple already exists.
	ErrDuplicate = errors.New("withdraw limit already exists for triple")

	// ErrNotFound is returned when a withdraw limit row does not exist.
	ErrNotFound = errors.New("withdraw limit not found")
)

// Limit is one withdraw-limit row. The zero value is the default returned
// when no row matches a query: both caps are zero, so nothing may be
// withdrawn until an operator configures a limit.
type Limit struct {
	ID          int64
	CurrencyID  currency.Code
	Group       string
	KYCLevel    string
	Limit24H    decimal.Decimal
	Limit1Month decimal.Decimal
}

// Weight scores how specifically the row matches a (kycLevel, group,
// currency) query. An exact kyc level match outweighs any group match, and
// an exact group match outweighs any currency match; wildcards score zero.
func (l Limit) Weight() int {
	w := 0
	if l.KYCLevel != Any {
		w += 100
	}
	if l.Group != Any {
		w += 10
	}
	if l.CurrencyID != currency.Any {
		w += 1
	}
	return w
}

// Matches reports whether the row applies to the query: each dimension must
// either match exactly or be the wildcard.
func (l Limit) Matches(kycLevel, group string, code currency.Code) bool {
	if l.KYCLevel != Any && l.KYCLevel != kycLevel {
		return false
	}
	if l.Group != Any && l.Group != group {
		return false
	}
	if l.CurrencyID != currency.Any && l.CurrencyID != code {
		return false
	}
	return true
}

// NormalizeGroup canonicalizes a member group for storage and lookup.
func NormalizeGroup(group string) string {
	g := strings.ToLower(strings.TrimSpace(group))
	if g == "" {
		return Any
	}
	return g
}
