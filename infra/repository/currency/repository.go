package currency

import (
	"context"
	"time"

	"github.com/amirasaad/exchange/infra/repository/gormerr"
	"github.com/amirasaad/exchange/pkg/currency"
	repo "github.com/amirasaad/exchange/pkg/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Currency is the catalog row. The withdrawal core only reads it; catalog
// administration lives outside this service.
type Currency struct {
	Code              string `gorm:"type:varchar(10);primaryKey"`
	Kind              string `gorm:"type:varchar(10);not null"`
	Price             decimal.Decimal `gorm:"type:numeric(32,16);not null;default:0"`
	MinWithdrawAmount decimal.Decimal `gorm:"type:numeric(32,16);not null;default:0"`
	Precision         int    `gorm:"not null;default:8"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (Currency) TableName() string { return "currencies" }

type repository struct {
	db *gorm.DB
}

// New creates a gorm-backed currency catalog reader.
func New(db *gorm.DB) repo.CurrencyRepository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, code currency.Code) (*currency.Currency, error) {
	var m Currency
	if err := r.db.WithContext(ctx).First(&m, "code = ?", code.String()).Error; err != nil {
		return nil, gormerr.MapNotFound(err, currency.ErrNotFound)
	}
	return &currency.Currency{
		Code:              currency.Code(m.Code),
		Kind:              currency.Kind(m.Kind),
		Price:             m.Price,
		MinWithdrawAmount: m.MinWithdrawAmount,
		Precision:         m.Precision,
	}, nil
}
