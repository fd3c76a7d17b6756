package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
)

// OfferingInput creates or updates a business service. Nil fields are left
// unchanged on update.
type OfferingInput struct {
	ServiceID               uint
	BusinessPrice           *float64
	BusinessDurationMinutes *int
	DeliveryType            *model.DeliveryType
	IsActive                *bool
	Version                 *int
}

type AddonInput struct {
	CustomPrice float64
	IsAvailable bool
}

// BusinessCatalogService manages a business's priced services and addons.
type BusinessCatalogService interface {
	ListServices(ctx context.Context, businessID uint) ([]model.BusinessService, error)
	CreateService(ctx context.Context, businessID uint, input OfferingInput) (*model.BusinessService, error)
	UpdateService(ctx context.Context, businessID, id uint, input OfferingInput) (*model.BusinessService, error)
	DeleteService(ctx context.Context, businessID, id uint) error
	ListAddons(ctx context.Context, businessID uint) ([]model.BusinessAddon, error)
	UpdateAddon(ctx context.Context, businessID, addonID uint, input AddonInput) (*model.BusinessAddon, error)
}

type businessCatalogService struct {
	catalogRepo  repository.CatalogRepository
	offeringRepo repository.BusinessServiceRepository
}

func NewBusinessCatalogService(catalogRepo repository.CatalogRepository, offeringRepo repository.BusinessServiceRepository) BusinessCatalogService {
	return &businessCatalogService{
		catalogRepo:  catalogRepo,
		offeringRepo: offeringRepo,
	}
}

// formatPrice drops cents for whole-dollar amounts.
func formatPrice(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("$%.0f", p)
	}
	return fmt.Sprintf("$%.2f", p)
}

// validateOffering enforces the catalog floor and a positive duration.
func validateOffering(svc model.Service, price float64, durationMinutes int) error {
	if price < svc.MinPrice {
		return ErrPriceBelowMinimum.WithMessage("must be at least %s", formatPrice(svc.MinPrice)).
			WithDetails(map[string]interface{}{
				"service_id":     svc.ID,
				"min_price":      svc.MinPrice,
				"business_price": price,
			})
	}
	if durationMinutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

func (s *businessCatalogService) ListServices(ctx context.Context, businessID uint) ([]model.BusinessService, error) {
	return s.offeringRepo.ListByBusiness(ctx, businessID, false)
}

func (s *businessCatalogService) catalogService(ctx context.Context, id uint) (*model.Service, error) {
	svc, err := s.catalogRepo.FindServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

func (s *businessCatalogService) CreateService(ctx context.Context, businessID uint, input OfferingInput) (*model.BusinessService, error) {
	if input.BusinessPrice == nil {
		return nil, ErrInvalidInput.WithDetails(map[string]string{"business_price": "required"})
	}

	svc, err := s.catalogService(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrServiceNotFound
	}

	duration := svc.DefaultDurationMinutes
	if input.BusinessDurationMinutes != nil {
		duration = *input.BusinessDurationMinutes
	}
	if err := validateOffering(*svc, *input.BusinessPrice, duration); err != nil {
		logger.Warn("Business service rejected by pricing rules", map[string]interface{}{
			"business_id":    businessID,
			"service_id":     svc.ID,
			"business_price": *input.BusinessPrice,
			"min_price":      svc.MinPrice,
		})
		return nil, err
	}

	delivery := model.DeliveryBusinessLocation
	if input.DeliveryType != nil {
		delivery = *input.DeliveryType
	}
	if !delivery.Valid() {
		return nil, ErrInvalidInput.WithMessage("Invalid delivery type %q", delivery)
	}

	offering := &model.BusinessService{
		BusinessID:              businessID,
		ServiceID:               svc.ID,
		BusinessPrice:           *input.BusinessPrice,
		BusinessDurationMinutes: duration,
		DeliveryType:            delivery,
		IsActive:                true,
	}
	if err := s.offeringRepo.Create(ctx, offering); err != nil {
		return nil, err
	}

	logger.Info("Business service created", map[string]interface{}{
		"business_id":         businessID,
		"business_service_id": offering.ID,
	})
	return s.offeringRepo.FindByID(ctx, businessID, offering.ID)
}

// UpdateService applies a partial update. The price floor is checked against
// the values the row will have afterwards.
func (s *businessCatalogService) UpdateService(ctx context.Context, businessID, id uint, input OfferingInput) (*model.BusinessService, error) {
	current, err := s.offeringRepo.FindByID(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	svc := current.Service
	if svc == nil {
		if svc, err = s.catalogService(ctx, current.ServiceID); err != nil {
			return nil, err
		}
	}

	fields := map[string]interface{}{}
	price, duration := current.BusinessPrice, current.BusinessDurationMinutes
	if input.BusinessPrice != nil {
		price = *input.BusinessPrice
		fields["business_price"] = price
	}
	if input.BusinessDurationMinutes != nil {
		duration = *input.BusinessDurationMinutes
		fields["business_duration_minutes"] = duration
	}
	if input.DeliveryType != nil {
		if !input.DeliveryType.Valid() {
			return nil, ErrInvalidInput.WithMessage("Invalid delivery type %q", *input.DeliveryType)
		}
		fields["delivery_type"] = *input.DeliveryType
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}
	if err := validateOffering(*svc, price, duration); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return current, nil
	}

	rows, err := s.offeringRepo.Update(ctx, businessID, id, input.Version, fields)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if _, err := s.offeringRepo.FindByID(ctx, businessID, id); errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, ErrVersionStale
	}
	return s.offeringRepo.FindByID(ctx, businessID, id)
}

func (s *businessCatalogService) DeleteService(ctx context.Context, businessID, id uint) error {
	if err := s.offeringRepo.Delete(ctx, businessID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrServiceNotFound
		}
		return err
	}
	logger.Info("Business service deleted", map[string]interface{}{
		"business_id":         businessID,
		"business_service_id": id,
	})
	return nil
}

func (s *businessCatalogService) ListAddons(ctx context.Context, businessID uint) ([]model.BusinessAddon, error) {
	return s.offeringRepo.ListAddons(ctx, businessID)
}

// UpdateAddon sets the business's price and availability for a catalog addon.
func (s *businessCatalogService) UpdateAddon(ctx context.Context, businessID, addonID uint, input AddonInput) (*model.BusinessAddon, error) {
	if input.IsAvailable && input.CustomPrice <= 0 {
		return nil, ErrInvalidAddonPrice
	}
	if input.CustomPrice < 0 {
		return nil, ErrInvalidInput.WithMessage("Price cannot be negative")
	}

	if _, err := s.catalogRepo.FindAddonByID(ctx, addonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddonNotFound
		}
		return nil, err
	}

	addon := &model.BusinessAddon{
		BusinessID:  businessID,
		AddonID:     addonID,
		CustomPrice: input.CustomPrice,
		IsAvailable: input.IsAvailable,
	}
	if err := s.offeringRepo.UpsertAddon(ctx, addon); err != nil {
		return nil, err
	}
	return s.offeringRepo.FindAddon(ctx, businessID, addonID)
}
