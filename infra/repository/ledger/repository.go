package ledger

import (
	"context"
	"errors"

	"github.com/amirasaad/exchange/infra/repository/gormerr"
	"github.com/amirasaad/exchange/pkg/domain/ledger"
	repo "github.com/amirasaad/exchange/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// New creates a gorm-backed ledger repository.
func New(db *gorm.DB) repo.LedgerRepository {
	return &repository{db: db}
}

func ownerID(q repo.AccountQuery) uuid.UUID {
	if q.MemberID != nil {
		return *q.MemberID
	}
	return uuid.Nil
}

// AccountForUpdate locks the account row for the rest of the transaction,
// creating a zero-balance row first when the account has never been touched.
func (r *repository) AccountForUpdate(ctx context.Context, q repo.AccountQuery) (*ledger.Account, error) {
	load := func() (*Account, error) {
		var m Account
		err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("member_id = ? AND currency_id = ? AND scope = ? AND kind = ?",
				ownerID(q), q.Currency.String(), string(q.Scope), string(q.Kind)).
			First(&m).Error
		if err != nil {
			return nil, err
		}
		return &m, nil
	}

	m, err := load()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		create := &Account{
			ID:         uuid.New(),
			MemberID:   ownerID(q),
			CurrencyID: q.Currency.String(),
			Scope:      string(q.Scope),
			Kind:       string(q.Kind),
			Balance:    decimal.Zero,
		}
		// A concurrent creator may win the unique index race; either way
		// the follow-up locked load returns the surviving row.
		if err := r.db.WithContext(ctx).Create(create).Error; err != nil && !gormerr.IsDuplicated(err) {
			return nil, err
		}
		m, err = load()
	}
	if err != nil {
		return nil, gormerr.MapNotFound(err, ledger.ErrAccountNotFound)
	}
	return accountToDomain(m), nil
}

func (r *repository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Update("balance", balance).Error
}

func (r *repository) CreateEntry(ctx context.Context, e *ledger.Entry) error {
	return r.db.WithContext(ctx).Create(entryToModel(e)).Error
}

func (r *repository) EntryExists(ctx context.Context, referenceID uuid.UUID, event, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Entry{}).
		Where("reference_id = ? AND event = ? AND code = ?", referenceID, event, code).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) EntriesByReference(ctx context.Context, referenceID uuid.UUID) ([]*ledger.Entry, error) {
	var rows []Entry
	err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]*ledger.Entry, 0, len(rows))
	for i := range rows {
		result = append(result, entryToDomain(&rows[i]))
	}
	return result, nil
}
