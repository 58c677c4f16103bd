package withdrawal

import (
	"time"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Withdrawal is the persistence model. Rows are never deleted; together
// with the JSON error log they form the audit trail.
type Withdrawal struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	MemberID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	BeneficiaryID *uuid.UUID `gorm:"type:uuid"`
	CurrencyID    string     `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_withdraws_currency_txid,priority:1"`
	Amount        decimal.Decimal `gorm:"type:numeric(32,16);not null"`
	Fee           decimal.Decimal `gorm:"type:numeric(32,16);not null"`
	Sum           decimal.Decimal `gorm:"type:numeric(32,16);not null"`
	TxID          *string    `gorm:"column:txid;type:varchar(128);uniqueIndex:idx_withdraws_currency_txid,priority:2"`
	BlockNumber   *int64
	TransferType  int    `gorm:"not null"`
	TID           string `gorm:"column:tid;type:varchar(64);not null;index"`
	RID           string `gorm:"column:rid;type:varchar(256);not null"`
	State         string `gorm:"type:varchar(30);not null;index"`
	Note          string `gorm:"type:varchar(256)"`
	ErrorLog      []withdrawal.ErrorEntry `gorm:"serializer:json"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
	CompletedAt   *time.Time
}

// TableName matches the ledger schema.
func (Withdrawal) TableName() string { return "withdraws" }

func toModel(w *withdrawal.Withdrawal) *Withdrawal {
	var txid *string
	if w.TxID != "" {
		t := w.TxID
		txid = &t
	}
	return &Withdrawal{
		ID:            w.ID,
		MemberID:      w.MemberID,
		BeneficiaryID: w.BeneficiaryID,
		CurrencyID:    w.CurrencyID.String(),
		Amount:        w.Amount,
		Fee:           w.Fee,
		Sum:           w.Sum,
		TxID:          txid,
		BlockNumber:   w.BlockNumber,
		TransferType:  int(w.TransferType),
		TID:           w.TID,
		RID:           w.RID,
		State:         string(w.State),
		Note:          w.Note,
		ErrorLog:      w.ErrorLog,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
		CompletedAt:   w.CompletedAt,
	}
}

func toDomain(m *Withdrawal) *withdrawal.Withdrawal {
	txid := ""
	if m.TxID != nil {
		txid = *m.TxID
	}
	return &withdrawal.Withdrawal{
		ID:            m.ID,
		MemberID:      m.MemberID,
		BeneficiaryID: m.BeneficiaryID,
		CurrencyID:    currency.Code(m.CurrencyID),
		Amount:        m.Amount,
		Fee:           m.Fee,
		Sum:           m.Sum,
		TxID:          txid,
		BlockNumber:   m.BlockNumber,
		TransferType:  withdrawal.TransferType(m.TransferType),
		TID:           m.TID,
		RID:           m.RID,
		State:         withdrawal.State(m.State),
		Note:          m.Note,
		ErrorLog:      m.ErrorLog,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CompletedAt:   m.CompletedAt,
	}
}
