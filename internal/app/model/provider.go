package model

import (
	"time"

	"gorm.io/gorm"
)

type ProviderRole string

const (
	RoleOwner      ProviderRole = "owner"
	RoleDispatcher ProviderRole = "dispatcher"
	RoleProvider   ProviderRole = "provider"
)

func (r ProviderRole) Valid() bool {
	switch r {
	case RoleOwner, RoleDispatcher, RoleProvider:
		return true
	}
	return false
}

type BackgroundCheckStatus string

const (
	BackgroundCheckNotStarted BackgroundCheckStatus = "not_started"
	BackgroundCheckPending    BackgroundCheckStatus = "pending"
	BackgroundCheckPassed     BackgroundCheckStatus = "passed"
	BackgroundCheckFailed     BackgroundCheckStatus = "failed"
)

// Provider links an identity-provider user to a business with a role.
type Provider struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	BusinessID uint   `gorm:"not null;index" json:"business_id"`
	UserID     string `gorm:"not null;index" json:"user_id"` // identity-provider subject
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `gorm:"index" json:"email"`

	ProviderRole          ProviderRole          `gorm:"type:varchar(20);not null;default:'provider'" json:"provider_role"`
	IsActive              bool                  `gorm:"not null;default:true" json:"is_active"`
	VerificationStatus    VerificationStatus    `gorm:"type:varchar(20);not null;default:'pending'" json:"verification_status"`
	BackgroundCheckStatus BackgroundCheckStatus `gorm:"type:varchar(20);not null;default:'not_started'" json:"background_check_status"`

	Business *BusinessProfile `gorm:"foreignKey:BusinessID" json:"business,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Provider) TableName() string {
	return "providers"
}
