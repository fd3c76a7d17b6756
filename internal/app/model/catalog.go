package model

import (
	"time"
)

// Service is a catalog entry; MinPrice floors every business price for it.
type Service struct {
	ID                     uint    `gorm:"primarykey" json:"id"`
	Name                   string  `gorm:"not null;uniqueIndex" json:"name"`
	CategoryID             string  `gorm:"type:varchar(64);index" json:"category_id"`
	SubcategoryID          string  `gorm:"type:varchar(64)" json:"subcategory_id,omitempty"`
	MinPrice               float64 `gorm:"type:decimal(10,2);not null;default:0" json:"min_price"`
	DefaultDurationMinutes int     `gorm:"not null;default:60" json:"default_duration_minutes"`
	IsActive               bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Service) TableName() string {
	return "services"
}

type Addon struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	ServiceID    uint    `gorm:"not null;index" json:"service_id"`
	Name         string  `gorm:"not null" json:"name"`
	DefaultPrice float64 `gorm:"type:decimal(10,2);not null;default:0" json:"default_price"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Addon) TableName() string {
	return "addons"
}

type DeliveryType string

const (
	DeliveryBusinessLocation DeliveryType = "business_location"
	DeliveryCustomerLocation DeliveryType = "customer_location"
	DeliveryVirtual          DeliveryType = "virtual"
	DeliveryBothLocations    DeliveryType = "both_locations"
)

func (d DeliveryType) Valid() bool {
	switch d {
	case DeliveryBusinessLocation, DeliveryCustomerLocation, DeliveryVirtual, DeliveryBothLocations:
		return true
	}
	return false
}

// BusinessService is a business's offering of a catalog service.
type BusinessService struct {
	ID                      uint         `gorm:"primarykey" json:"id"`
	BusinessID              uint         `gorm:"not null;uniqueIndex:idx_business_service" json:"business_id"`
	ServiceID               uint         `gorm:"not null;uniqueIndex:idx_business_service" json:"service_id"`
	BusinessPrice           float64      `gorm:"type:decimal(10,2);not null" json:"business_price"`
	BusinessDurationMinutes int          `gorm:"not null;default:0" json:"business_duration_minutes"`
	DeliveryType            DeliveryType `gorm:"type:varchar(30);not null;default:'business_location'" json:"delivery_type"`
	IsActive                bool         `gorm:"not null;default:true" json:"is_active"`
	Version                 int          `gorm:"not null;default:1" json:"version"`

	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BusinessService) TableName() string {
	return "business_services"
}

type BusinessAddon struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	BusinessID  uint    `gorm:"not null;uniqueIndex:idx_business_addon" json:"business_id"`
	AddonID     uint    `gorm:"not null;uniqueIndex:idx_business_addon" json:"addon_id"`
	CustomPrice float64 `gorm:"type:decimal(10,2);not null;default:0" json:"custom_price"`
	IsAvailable bool    `gorm:"not null;default:false" json:"is_available"`

	Addon *Addon `gorm:"foreignKey:AddonID" json:"addon,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BusinessAddon) TableName() string {
	return "business_addons"
}
