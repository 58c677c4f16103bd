// Package events defines the lifecycle events published to the notification
// and audit bus on withdrawal creation and on every state change.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is anything the bus can carry.
type Event interface {
	Type() string
}

const (
	// TypeWithdrawalCreated is published once, right after creation commits.
	TypeWithdrawalCreated = "withdraw.created"
	// TypeWithdrawalUpdated is published after every committed state change.
	TypeWithdrawalUpdated = "withdraw.updated"
)

// WithdrawalChanged is the audit payload for both creation and updates.
type WithdrawalChanged struct {
	TID         string          `json:"tid"`
	MemberUID   string          `json:"uid"`
	RID         string          `json:"rid"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	State       string          `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	TxID        string          `json:"blockchain_txid,omitempty"`

	Kind string `json:"-"` // TypeWithdrawalCreated or TypeWithdrawalUpdated
}

func (e WithdrawalChanged) Type() string { return e.Kind }
