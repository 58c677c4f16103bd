package limit

import (
	"context"

	"github.com/amirasaad/exchange/infra/repository/gormerr"
	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/limits"
	repo "github.com/amirasaad/exchange/pkg/repository"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a gorm-backed withdraw-limit repository.
func New(db *gorm.DB) repo.LimitRepository {
	return &repository{db: db}
}

// Matching mirrors the resolver's candidate rule: each dimension matches
// exactly or holds the wildcard.
func (r *repository) Matching(
	ctx context.Context,
	kycLevel, group string,
	code currency.Code,
) ([]limits.Limit, error) {
	var rows []WithdrawLimit
	err := r.db.WithContext(ctx).
		Where("kyc_level IN ? AND member_group IN ? AND currency_id IN ?",
			[]string{kycLevel, limits.Any},
			[]string{limits.NormalizeGroup(group), limits.Any},
			[]string{code.String(), currency.Any.String()}).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]limits.Limit, 0, len(rows))
	for i := range rows {
		result = append(result, toDomain(&rows[i]))
	}
	return result, nil
}

func (r *repository) Create(ctx context.Context, l *limits.Limit) error {
	m := toModel(l)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if gormerr.IsDuplicated(err) {
			return limits.ErrDuplicate
		}
		return err
	}
	l.ID = m.ID
	l.Group = m.MemberGroup
	return nil
}

func (r *repository) Update(ctx context.Context, l *limits.Limit) error {
	err := r.db.WithContext(ctx).Save(toModel(l)).Error
	if gormerr.IsDuplicated(err) {
		return limits.ErrDuplicate
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&WithdrawLimit{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return limits.ErrNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id int64) (*limits.Limit, error) {
	var m WithdrawLimit
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, gormerr.MapNotFound(err, limits.ErrNotFound)
	}
	l := toDomain(&m)
	return &l, nil
}

func (r *repository) List(ctx context.Context) ([]limits.Limit, error) {
	var rows []WithdrawLimit
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]limits.Limit, 0, len(rows))
	for i := range rows {
		result = append(result, toDomain(&rows[i]))
	}
	return result, nil
}
