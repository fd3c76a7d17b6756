package model

import (
	"time"

	"gorm.io/gorm"
)

// MinFeaturedRating is the lowest overall rating a featured review may carry.
const MinFeaturedRating = 4

type Review struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	BookingID     uint   `gorm:"not null;uniqueIndex" json:"booking_id"`
	BusinessID    uint   `gorm:"not null;index" json:"business_id"`
	ProviderID    *uint  `gorm:"index" json:"provider_id,omitempty"`
	CustomerID    string `gorm:"not null;index" json:"customer_id"`
	OverallRating int    `gorm:"not null;check:chk_reviews_rating,overall_rating >= 1 AND overall_rating <= 5" json:"overall_rating"`
	Comment       string `gorm:"type:text" json:"comment"`
	IsApproved    bool   `gorm:"not null;default:false" json:"is_approved"`
	IsFeatured    bool   `gorm:"not null;default:false" json:"is_featured"`

	ModeratedBy     string     `json:"moderated_by,omitempty"`
	ModeratedAt     *time.Time `json:"moderated_at,omitempty"`
	ModerationNotes string     `gorm:"type:text" json:"moderation_notes,omitempty"`
	Version         int        `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

// Featureable reports whether the review may be featured.
func (r *Review) Featureable() bool {
	return r.IsApproved && r.OverallRating >= MinFeaturedRating
}
