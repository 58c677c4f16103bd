package member

import (
	"context"
	"time"

	"github.com/amirasaad/exchange/infra/repository/gormerr"
	"github.com/amirasaad/exchange/pkg/domain/member"
	repo "github.com/amirasaad/exchange/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member is the read model row of an exchange member.
type Member struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UID       string    `gorm:"column:uid;type:varchar(32);not null;uniqueIndex"`
	Email     string    `gorm:"type:varchar(255);not null"`
	KYCLevel  string    `gorm:"column:kyc_level;type:varchar(32);not null;default:'any'"`
	MemberGroup string  `gorm:"type:varchar(32);not null;default:'any'"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Member) TableName() string { return "members" }

// Beneficiary is a pre-registered withdrawal destination row.
type Beneficiary struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MemberID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CurrencyID string    `gorm:"type:varchar(10);not null"`
	RID        string    `gorm:"column:rid;type:varchar(256);not null"`
	Active     bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Beneficiary) TableName() string { return "beneficiaries" }

type repository struct {
	db *gorm.DB
}

// New creates a gorm-backed member repository.
func New(db *gorm.DB) repo.MemberRepository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	var m Member
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, gormerr.MapNotFound(err, member.ErrNotFound)
	}
	return &member.Member{
		ID:       m.ID,
		UID:      m.UID,
		Email:    m.Email,
		KYCLevel: m.KYCLevel,
		Group:    m.MemberGroup,
	}, nil
}

func (r *repository) GetBeneficiary(ctx context.Context, id uuid.UUID) (*member.Beneficiary, error) {
	var b Beneficiary
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, gormerr.MapNotFound(err, member.ErrBeneficiaryNotFound)
	}
	return &member.Beneficiary{
		ID:       b.ID,
		MemberID: b.MemberID,
		Currency: b.CurrencyID,
		RID:      b.RID,
		Active:   b.Active,
	}, nil
}
