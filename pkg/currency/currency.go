// Package currency defines the currency catalog consumed by the withdrawal
// core. The catalog itself is managed elsewhere; this package only models the
// read side: code, kind, quote price and the minimum withdrawable amount.
package currency

import (
	"errors"
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a currency code is not present in the catalog.
	ErrNotFound = errors.New("currency not found")

	// ErrInvalidCode is returned when a currency code does not match the
	// expected format.
	ErrInvalidCode = errors.New("invalid currency code")
)

// Code identifies a currency in the catalog (e.g. "btc", "usd").
type Code string

func (c Code) String() string { return string(c) }

// Any is the wildcard sentinel used by withdraw limits to match every
// currency at zero specificity weight.
const Any Code = "any"

// Kind distinguishes blockchain currencies from fiat ones. It drives the
// default transfer type of a withdrawal.
type Kind string

const (
	KindCoin Kind = "coin"
	KindFiat Kind = "fiat"
)

// Currency is a catalog row. Price is the quote-currency price used to
// convert withdraw limits into the withdrawal's own currency.
type Currency struct {
	Code              Code
	Kind              Kind
	Price             decimal.Decimal
	MinWithdrawAmount decimal.Decimal
	Precision         int
}

// IsCoin reports whether withdrawals in this currency are broadcast
// on-chain.
func (c *Currency) IsCoin() bool { return c.Kind == KindCoin }

// IsFiat reports whether withdrawals in this currency settle off-chain.
func (c *Currency) IsFiat() bool { return c.Kind == KindFiat }

var codeRe = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

// IsValidCodeFormat reports whether s is a well-formed currency code:
// lowercase alphanumeric, at most ten characters.
func IsValidCodeFormat(s string) bool {
	return codeRe.MatchString(s)
}
