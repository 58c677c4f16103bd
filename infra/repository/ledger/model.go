package ledger

import (
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the persistence model of one ledger account. Exchange-wide
// asset and revenue accounts store the nil UUID as owner so the composite
// unique index still applies to them.
type Account struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MemberID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_accounts_owner,priority:1"`
	CurrencyID string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_ledger_accounts_owner,priority:2"`
	Scope      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_ledger_accounts_owner,priority:3"`
	Kind       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_ledger_accounts_owner,priority:4"`
	Balance    decimal.Decimal `gorm:"type:numeric(32,16);not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Account) TableName() string { return "ledger_accounts" }

// Entry is the persistence model of one applied ledger operation. The
// composite unique index is the transfer engine's idempotency barrier.
type Entry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReferenceID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_ledger_entries_op,priority:1"`
	Event       string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_ledger_entries_op,priority:2"`
	Code        string    `gorm:"type:varchar(60);not null;uniqueIndex:idx_ledger_entries_op,priority:3"`
	CurrencyID  string    `gorm:"type:varchar(10);not null"`
	Debit       decimal.Decimal `gorm:"type:numeric(32,16);not null"`
	Credit      decimal.Decimal `gorm:"type:numeric(32,16);not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (Entry) TableName() string { return "ledger_entries" }

func accountToDomain(m *Account) *ledger.Account {
	var memberID *uuid.UUID
	if m.MemberID != uuid.Nil {
		id := m.MemberID
		memberID = &id
	}
	return &ledger.Account{
		ID:        m.ID,
		MemberID:  memberID,
		Currency:  currency.Code(m.CurrencyID),
		Scope:     ledger.Scope(m.Scope),
		Kind:      ledger.Kind(m.Kind),
		Balance:   m.Balance,
		UpdatedAt: m.UpdatedAt,
	}
}

func entryToModel(e *ledger.Entry) *Entry {
	return &Entry{
		ID:          e.ID,
		ReferenceID: e.ReferenceID,
		Event:       e.Event,
		Code:        e.Code,
		CurrencyID:  e.Currency.String(),
		Debit:       e.Debit,
		Credit:      e.Credit,
		CreatedAt:   e.CreatedAt,
	}
}

func entryToDomain(m *Entry) *ledger.Entry {
	return &ledger.Entry{
		ID:          m.ID,
		ReferenceID: m.ReferenceID,
		Event:       m.Event,
		Code:        m.Code,
		Currency:    currency.Code(m.CurrencyID),
		Debit:       m.Debit,
		Credit:      m.Credit,
		CreatedAt:   m.CreatedAt,
	}
}
