package limit

import (
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/limits"
	"github.com/shopspring/decimal"
)

// WithdrawLimit is the persistence model of one limit row. Exactly one row
// may exist per (currency, group, kyc level) triple.
type WithdrawLimit struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	CurrencyID  string `gorm:"type:varchar(20);not null;default:'any';index;uniqueIndex:idx_withdraw_limits_triple,priority:1"`
	MemberGroup string `gorm:"type:varchar(32);not null;default:'any';index;uniqueIndex:idx_withdraw_limits_triple,priority:2"`
	KYCLevel    string `gorm:"column:kyc_level;type:varchar(32);not null;default:'any';index;uniqueIndex:idx_withdraw_limits_triple,priority:3"`
	Limit24H    decimal.Decimal `gorm:"column:limit_24_hour;type:numeric(32,16);not null;default:0"`
	Limit1Month decimal.Decimal `gorm:"column:limit_1_month;type:numeric(32,16);not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (WithdrawLimit) TableName() string { return "withdraw_limits" }

func toModel(l *limits.Limit) *WithdrawLimit {
	return &WithdrawLimit{
		ID:          l.ID,
		CurrencyID:  l.CurrencyID.String(),
		MemberGroup: limits.NormalizeGroup(l.Group),
		KYCLevel:    l.KYCLevel,
		Limit24H:    l.Limit24H,
		Limit1Month: l.Limit1Month,
	}
}

func toDomain(m *WithdrawLimit) limits.Limit {
	return limits.Limit{
		ID:          m.ID,
		CurrencyID:  currency.Code(m.CurrencyID),
		Group:       m.MemberGroup,
		KYCLevel:    m.KYCLevel,
		Limit24H:    m.Limit24H,
		Limit1Month: m.Limit1Month,
	}
}
