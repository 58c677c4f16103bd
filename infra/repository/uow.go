package repository

import (
	"context"

	currencyrepo "github.com/amirasaad/exchange/infra/repository/currency"
	ledgerrepo "github.com/amirasaad/exchange/infra/repository/ledger"
	limitrepo "github.com/amirasaad/exchange/infra/repository/limit"
	memberrepo "github.com/amirasaad/exchange/infra/repository/member"
	withdrawalrepo "github.com/amirasaad/exchange/infra/repository/withdrawal"
	"github.com/amirasaad/exchange/pkg/repository"
	"gorm.io/gorm"
)

// UoW binds the repositories to one gorm session. Inside Do the session is
// a database transaction, so a state transition and its ledger postings
// commit or roll back together.
type UoW struct {
	db *gorm.DB
}

// NewUoW creates a UoW over the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs fn inside one database transaction, handing it a UoW whose
// repositories share that transaction.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: tx})
	})
}

func (u *UoW) Withdrawals() repository.WithdrawalRepository { return withdrawalrepo.New(u.db) }
func (u *UoW) Ledger() repository.LedgerRepository          { return ledgerrepo.New(u.db) }
func (u *UoW) Limits() repository.LimitRepository           { return limitrepo.New(u.db) }
func (u *UoW) Members() repository.MemberRepository         { return memberrepo.New(u.db) }
func (u *UoW) Currencies() repository.CurrencyRepository    { return currencyrepo.New(u.db) }
