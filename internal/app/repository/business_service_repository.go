package repository

import (
	"context"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BusinessServiceRepository interface {
	Create(ctx context.Context, svc *model.BusinessService) error
	FindByID(ctx context.Context, businessID, id uint) (*model.BusinessService, error)
	ListByBusiness(ctx context.Context, businessID uint, activeOnly bool) ([]model.BusinessService, error)
	Update(ctx context.Context, businessID, id uint, expectedVersion *int, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, businessID, id uint) error
	ReplaceSelection(ctx context.Context, businessID uint, services []model.BusinessService) error

	FindAddon(ctx context.Context, businessID, addonID uint) (*model.BusinessAddon, error)
	UpsertAddon(ctx context.Context, addon *model.BusinessAddon) error
	ListAddons(ctx context.Context, businessID uint) ([]model.BusinessAddon, error)
}

type businessServiceRepository struct {
	db *gorm.DB
}

func NewBusinessServiceRepository(db *gorm.DB) BusinessServiceRepository {
	return &businessServiceRepository{db: db}
}

func (r *businessServiceRepository) Create(ctx context.Context, svc *model.BusinessService) error {
	logger.Debug("Creating business service in database", map[string]interface{}{
		"business_id":    svc.BusinessID,
		"service_id":     svc.ServiceID,
		"business_price": svc.BusinessPrice,
	})

	if err := r.db.WithContext(ctx).Create(svc).Error; err != nil {
		logger.Error("Failed to create business service in database", err, map[string]interface{}{
			"business_id": svc.BusinessID,
			"service_id":  svc.ServiceID,
		})
		return err
	}
	return nil
}

func (r *businessServiceRepository) FindByID(ctx context.Context, businessID, id uint) (*model.BusinessService, error) {
	var svc model.BusinessService
	err := r.db.WithContext(ctx).Preload("Service").
		Where("business_id = ?", businessID).
		First(&svc, id).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *businessServiceRepository) ListByBusiness(ctx context.Context, businessID uint, activeOnly bool) ([]model.BusinessService, error) {
	query := r.db.WithContext(ctx).Preload("Service").Where("business_id = ?", businessID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var services []model.BusinessService
	if err := query.Order("id ASC").Find(&services).Error; err != nil {
		logger.Error("Failed to list business services in database", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}
	return services, nil
}

func (r *businessServiceRepository) Update(ctx context.Context, businessID, id uint, expectedVersion *int, fields map[string]interface{}) (int64, error) {
	result := versionedUpdate(r.db.WithContext(ctx).Where("business_id = ?", businessID), &model.BusinessService{}, id, expectedVersion, fields)
	if result.Error != nil {
		logger.Error("Failed to update business service in database", result.Error, map[string]interface{}{
			"business_service_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *businessServiceRepository) Delete(ctx context.Context, businessID, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ? AND business_id = ?", id, businessID).Delete(&model.BusinessService{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceSelection makes services the complete active offering of the
// business. Rows for services no longer selected are removed.
func (r *businessServiceRepository) ReplaceSelection(ctx context.Context, businessID uint, services []model.BusinessService) error {
	logger.Debug("Replacing business service selection in database", map[string]interface{}{
		"business_id": businessID,
		"count":       len(services),
	})

	keep := make([]uint, 0, len(services))
	for i := range services {
		services[i].BusinessID = businessID
		services[i].IsActive = true
		keep = append(keep, services[i].ServiceID)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("business_id = ?", businessID)
		if len(keep) > 0 {
			del = del.Where("service_id NOT IN ?", keep)
		}
		if err := del.Delete(&model.BusinessService{}).Error; err != nil {
			return err
		}
		if len(services) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "business_id"}, {Name: "service_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"business_price":            gorm.Expr("excluded.business_price"),
				"business_duration_minutes": gorm.Expr("excluded.business_duration_minutes"),
				"delivery_type":             gorm.Expr("excluded.delivery_type"),
				"is_active":                 true,
				"version":                   gorm.Expr("business_services.version + 1"),
				"updated_at":                gorm.Expr("excluded.updated_at"),
			}),
		}).Create(&services).Error
	})
	if err != nil {
		logger.Error("Failed to replace business service selection in database", err, map[string]interface{}{
			"business_id": businessID,
		})
		return err
	}
	return nil
}

func (r *businessServiceRepository) FindAddon(ctx context.Context, businessID, addonID uint) (*model.BusinessAddon, error) {
	var addon model.BusinessAddon
	err := r.db.WithContext(ctx).Preload("Addon").
		Where("business_id = ? AND addon_id = ?", businessID, addonID).
		First(&addon).Error
	if err != nil {
		return nil, err
	}
	return &addon, nil
}

// UpsertAddon stores the business's price and availability for a catalog addon.
func (r *businessServiceRepository) UpsertAddon(ctx context.Context, addon *model.BusinessAddon) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "business_id"}, {Name: "addon_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"custom_price", "is_available", "updated_at"}),
	}).Create(addon).Error
	if err != nil {
		logger.Error("Failed to upsert business addon in database", err, map[string]interface{}{
			"business_id": addon.BusinessID,
			"addon_id":    addon.AddonID,
		})
	}
	return err
}

func (r *businessServiceRepository) ListAddons(ctx context.Context, businessID uint) ([]model.BusinessAddon, error) {
	var addons []model.BusinessAddon
	err := r.db.WithContext(ctx).Preload("Addon").
		Where("business_id = ?", businessID).
		Order("id ASC").
		Find(&addons).Error
	return addons, err
}
