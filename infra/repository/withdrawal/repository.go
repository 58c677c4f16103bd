package withdrawal

import (
	"context"
	"time"

	"github.com/amirasaad/exchange/infra/repository/gormerr"
	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	repo "github.com/amirasaad/exchange/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// New creates a gorm-backed withdrawal repository.
func New(db *gorm.DB) repo.WithdrawalRepository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, w *withdrawal.Withdrawal) error {
	err := r.db.WithContext(ctx).Create(toModel(w)).Error
	if gormerr.IsDuplicated(err) {
		return withdrawal.ErrTxIDTaken
	}
	return err
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error) {
	var m Withdrawal
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, gormerr.MapNotFound(err, withdrawal.ErrNotFound)
	}
	return toDomain(&m), nil
}

// GetForUpdate holds the row lock until the surrounding transaction
// commits, serializing concurrent events on one withdrawal.
func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error) {
	var m Withdrawal
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, gormerr.MapNotFound(err, withdrawal.ErrNotFound)
	}
	return toDomain(&m), nil
}

func (r *repository) Update(ctx context.Context, w *withdrawal.Withdrawal) error {
	err := r.db.WithContext(ctx).Save(toModel(w)).Error
	if gormerr.IsDuplicated(err) {
		return withdrawal.ErrTxIDTaken
	}
	return err
}

func (r *repository) SumByMemberSince(
	ctx context.Context,
	memberID uuid.UUID,
	states []withdrawal.State,
	since time.Time,
) (decimal.Decimal, error) {
	stateNames := make([]string, len(states))
	for i, s := range states {
		stateNames[i] = string(s)
	}
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&Withdrawal{}).
		Where("member_id = ? AND state IN ? AND created_at > ?", memberID, stateNames, since).
		Select("COALESCE(SUM(sum), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) TxIDExists(
	ctx context.Context,
	code currency.Code,
	txid string,
	exclude uuid.UUID,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Withdrawal{}).
		Where("currency_id = ? AND txid = ? AND id <> ?", code.String(), txid, exclude).
		Count(&count).Error
	return count > 0, err
}
