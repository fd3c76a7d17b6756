package repository

import (
	"context"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProviderRepository interface {
	Create(ctx context.Context, provider *model.Provider) error
	FindActiveByUserID(ctx context.Context, userID string) (*model.Provider, error)
	FindByID(ctx context.Context, businessID, id uint) (*model.Provider, error)
	ListByBusiness(ctx context.Context, businessID uint, includeInactive bool) ([]model.Provider, error)
	UpdateRole(ctx context.Context, businessID, id uint, role model.ProviderRole) error
	Deactivate(ctx context.Context, businessID, id uint) error
	CountActiveOwners(ctx context.Context, businessID uint) (int64, error)
}

type providerRepository struct {
	db *gorm.DB
}

func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) Create(ctx context.Context, provider *model.Provider) error {
	if err := r.db.WithContext(ctx).Create(provider).Error; err != nil {
		logger.Error("Failed to create provider in database", err, map[string]interface{}{
			"business_id": provider.BusinessID,
			"user_id":     provider.UserID,
		})
		return err
	}
	return nil
}

// FindActiveByUserID resolves a session subject to its active provider record.
// A subject linked to an inactive business does not count.
func (r *providerRepository) FindActiveByUserID(ctx context.Context, userID string) (*model.Provider, error) {
	logger.Debug("Finding active provider by user in database", map[string]interface{}{
		"user_id": userID,
	})

	var provider model.Provider
	err := r.db.WithContext(ctx).
		Joins("JOIN business_profiles ON business_profiles.id = providers.business_id AND business_profiles.deleted_at IS NULL").
		Where("providers.user_id = ? AND providers.is_active = ? AND business_profiles.is_active = ?", userID, true, true).
		Order("providers.id ASC").
		First(&provider).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find provider by user in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	return &provider, nil
}

func (r *providerRepository) FindByID(ctx context.Context, businessID, id uint) (*model.Provider, error) {
	var provider model.Provider
	if err := r.db.WithContext(ctx).Where("business_id = ?", businessID).First(&provider, id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) ListByBusiness(ctx context.Context, businessID uint, includeInactive bool) ([]model.Provider, error) {
	query := r.db.WithContext(ctx).Where("business_id = ?", businessID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var providers []model.Provider
	if err := query.Order("provider_role ASC, last_name ASC, first_name ASC").Find(&providers).Error; err != nil {
		logger.Error("Failed to list providers in database", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) UpdateRole(ctx context.Context, businessID, id uint, role model.ProviderRole) error {
	result := r.db.WithContext(ctx).Model(&model.Provider{}).
		Where("id = ? AND business_id = ?", id, businessID).
		Update("provider_role", role)
	if result.Error != nil {
		logger.Error("Failed to update provider role in database", result.Error, map[string]interface{}{
			"provider_id": id,
			"role":        role,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *providerRepository) Deactivate(ctx context.Context, businessID, id uint) error {
	result := r.db.WithContext(ctx).Model(&model.Provider{}).
		Where("id = ? AND business_id = ?", id, businessID).
		Update("is_active", false)
	if result.Error != nil {
		logger.Error("Failed to deactivate provider in database", result.Error, map[string]interface{}{
			"provider_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *providerRepository) CountActiveOwners(ctx context.Context, businessID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Provider{}).
		Where("business_id = ? AND provider_role = ? AND is_active = ?", businessID, model.RoleOwner, true).
		Count(&count).Error
	return count, err
}
