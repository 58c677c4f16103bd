package webapi

import (
	"time"

	"github.com/amirasaad/exchange/pkg/domain/limits"
	"github.com/amirasaad/exchange/pkg/domain/withdrawal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateWithdrawRequest is the creation payload. Either rid or
// beneficiary_id must carry a usable recipient.
type CreateWithdrawRequest struct {
	MemberID      uuid.UUID       `json:"member_id" validate:"required"`
	Currency      string          `json:"currency" validate:"required,lowercase"`
	BeneficiaryID *uuid.UUID      `json:"beneficiary_id"`
	RID           string          `json:"rid"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Fee           decimal.Decimal `json:"fee"`
	Note          string          `json:"note" validate:"max=256"`
}

// WithdrawActionRequest applies one lifecycle event to a withdrawal.
type WithdrawActionRequest struct {
	Action       string `json:"action" validate:"required,oneof=accept cancel reject process load dispatch success skip fail err"`
	TxID         string `json:"txid"`
	BlockNumber  *int64 `json:"block_number"`
	ErrorClass   string `json:"error_class"`
	ErrorMessage string `json:"error_message"`
}

// WithdrawResponse is the read model returned by the API.
type WithdrawResponse struct {
	ID            uuid.UUID              `json:"id"`
	TID           string                 `json:"tid"`
	MemberID      uuid.UUID              `json:"member_id"`
	Currency      string                 `json:"currency"`
	BeneficiaryID *uuid.UUID             `json:"beneficiary_id,omitempty"`
	RID           string                 `json:"rid"`
	Amount        decimal.Decimal        `json:"amount"`
	Fee           decimal.Decimal        `json:"fee"`
	Sum           decimal.Decimal        `json:"sum"`
	TransferType  string                 `json:"transfer_type"`
	State         string                 `json:"state"`
	TxID          string                 `json:"blockchain_txid,omitempty"`
	BlockNumber   *int64                 `json:"block_number,omitempty"`
	Note          string                 `json:"note,omitempty"`
	ErrorLog      []withdrawal.ErrorEntry `json:"error,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
}

func toWithdrawResponse(w *withdrawal.Withdrawal) WithdrawResponse {
	return WithdrawResponse{
		ID:            w.ID,
		TID:           w.TID,
		MemberID:      w.MemberID,
		Currency:      w.CurrencyID.String(),
		BeneficiaryID: w.BeneficiaryID,
		RID:           w.RID,
		Amount:        w.Amount,
		Fee:           w.Fee,
		Sum:           w.Sum,
		TransferType:  w.TransferType.String(),
		State:         string(w.State),
		TxID:          w.TxID,
		BlockNumber:   w.BlockNumber,
		Note:          w.Note,
		ErrorLog:      w.ErrorLog,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
		CompletedAt:   w.CompletedAt,
	}
}

// WithdrawLimitRequest creates or replaces a limit row. Wildcards are
// expressed with the literal "any".
type WithdrawLimitRequest struct {
	Currency    string          `json:"currency_id" validate:"required"`
	Group       string          `json:"group" validate:"required"`
	KYCLevel    string          `json:"kyc_level" validate:"required"`
	Limit24H    decimal.Decimal `json:"limit_24_hour" validate:"required"`
	Limit1Month decimal.Decimal `json:"limit_1_month" validate:"required"`
}

// WithdrawLimitResponse is the admin read model of a limit row.
type WithdrawLimitResponse struct {
	ID          int64           `json:"id"`
	Currency    string          `json:"currency_id"`
	Group       string          `json:"group"`
	KYCLevel    string          `json:"kyc_level"`
	Limit24H    decimal.Decimal `json:"limit_24_hour"`
	Limit1Month decimal.Decimal `json:"limit_1_month"`
}

func toLimitResponse(l limits.Limit) WithdrawLimitResponse {
	return WithdrawLimitResponse{
		ID:          l.ID,
		Currency:    l.CurrencyID.String(),
		Group:       l.Group,
		KYCLevel:    l.KYCLevel,
		Limit24H:    l.Limit24H,
		Limit1Month: l.Limit1Month,
	}
}
