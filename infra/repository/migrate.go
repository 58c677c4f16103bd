package repository

import (
	currencyrepo "github.com/amirasaad/exchange/infra/repository/currency"
	ledgerrepo "github.com/amirasaad/exchange/infra/repository/ledger"
	limitrepo "github.com/amirasaad/exchange/infra/repository/limit"
	memberrepo "github.com/amirasaad/exchange/infra/repository/member"
	withdrawalrepo "github.com/amirasaad/exchange/infra/repository/withdrawal"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every persistence model,
// including the unique indexes the core relies on: txid per currency,
// one limit row per triple, one ledger entry per (reference, event, code).
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&memberrepo.Member{},
		&memberrepo.Beneficiary{},
		&currencyrepo.Currency{},
		&withdrawalrepo.Withdrawal{},
		&ledgerrepo.Account{},
		&ledgerrepo.Entry{},
		&limitrepo.WithdrawLimit{},
	)
}
