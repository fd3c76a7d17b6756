package model

import (
	"time"

	"gorm.io/gorm"
)

type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "pending"
	VerificationApproved  VerificationStatus = "approved"
	VerificationRejected  VerificationStatus = "rejected"
	VerificationSuspended VerificationStatus = "suspended"
)

type BusinessType string

const (
	BusinessTypeIndependent BusinessType = "independent" // solo professional
	BusinessTypeBusiness    BusinessType = "business"    // registered company with staff
)

type IdentityStatus string

const (
	IdentityNotStarted    IdentityStatus = "not_started"
	IdentityRequiresInput IdentityStatus = "requires_input"
	IdentityProcessing    IdentityStatus = "processing"
	IdentityVerified      IdentityStatus = "verified"
	IdentityCanceled      IdentityStatus = "canceled"
)

// BusinessProfile is the onboarding subject. SetupStep is the persisted cursor
// into the onboarding steps (see OnboardingStep).
type BusinessProfile struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	BusinessName string       `gorm:"not null" json:"business_name"`
	BusinessType BusinessType `gorm:"type:varchar(20);not null;default:'independent'" json:"business_type"`
	ContactEmail string       `gorm:"not null;index" json:"contact_email"`
	ContactPhone string       `gorm:"type:varchar(30)" json:"contact_phone"`
	Website      string       `json:"website,omitempty"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`
	AddressLine  string       `json:"address_line"`
	City         string       `json:"city"`
	State        string       `gorm:"type:varchar(50)" json:"state"`
	PostalCode   string       `gorm:"type:varchar(20)" json:"postal_code"`

	EligibleCategoryIDs    StringList `json:"eligible_category_ids"`
	EligibleSubcategoryIDs StringList `json:"eligible_subcategory_ids"`

	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"verification_status"`
	SetupStep          int                `gorm:"not null;default:0" json:"setup_step"`
	SetupCompleted     bool               `gorm:"not null;default:false" json:"setup_completed"`
	IsActive           bool               `gorm:"not null;default:true;index" json:"is_active"`

	// identity verification through the external identity provider
	IdentityVerificationID     string         `json:"identity_verification_id,omitempty"`
	IdentityVerificationStatus IdentityStatus `gorm:"type:varchar(20);not null;default:'not_started'" json:"identity_verification_status"`
	IdentityVerifiedAt         *time.Time     `json:"identity_verified_at,omitempty"`

	ApplicationSubmittedAt *time.Time `json:"application_submitted_at,omitempty"`
	ApplicationApprovedAt  *time.Time `json:"application_approved_at,omitempty"`

	StripeAccountID string `json:"stripe_account_id,omitempty"`
	PayoutsEnabled  bool   `gorm:"not null;default:false" json:"payouts_enabled"`

	BusinessHours        BusinessHours `json:"business_hours,omitempty"`
	SubmittedForReviewAt *time.Time    `json:"submitted_for_review_at,omitempty"`

	ModeratedBy     string     `json:"moderated_by,omitempty"`
	ModeratedAt     *time.Time `json:"moderated_at,omitempty"`
	ModerationNotes string     `gorm:"type:text" json:"moderation_notes,omitempty"`

	Version   int            `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BusinessProfile) TableName() string {
	return "business_profiles"
}

// ApplicationApproved reports whether phase 2 of onboarding is unlocked.
func (b *BusinessProfile) ApplicationApproved() bool {
	return b.ApplicationApprovedAt != nil
}
