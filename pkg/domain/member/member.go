// Package member models the exchange member as seen by the withdrawal core:
// identity plus the segmentation dimensions used for limit resolution.
package member

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a member does not exist.
var ErrNotFound = errors.New("member not found")

// Member is the read model of an exchange member.
type Member struct {
	ID       uuid.UUID
	UID      string
	Email    string
	KYCLevel string
	Group    string
}

// Beneficiary is a pre-registered withdrawal destination. Withdrawals may
// derive their recipient id from an active beneficiary.
type Beneficiary struct {
	ID       uuid.UUID
	MemberID uuid.UUID
	Currency string
	RID      string
	Active   bool
}

// ErrBeneficiaryNotFound is returned when a beneficiary does not exist.
var ErrBeneficiaryNotFound = errors.New("beneficiary not found")
