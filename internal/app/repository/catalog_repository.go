package repository

import (
	"context"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository interface {
	FindServiceByID(ctx context.Context, id uint) (*model.Service, error)
	FindServicesByIDs(ctx context.Context, ids []uint) (map[uint]model.Service, error)
	FindAddonByID(ctx context.Context, id uint) (*model.Addon, error)
	ListServices(ctx context.Context, activeOnly bool) ([]model.Service, error)
	UpsertService(ctx context.Context, service *model.Service) error
	UpsertAddon(ctx context.Context, addon *model.Addon) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindServiceByID(ctx context.Context, id uint) (*model.Service, error) {
	var service model.Service
	if err := r.db.WithContext(ctx).First(&service, id).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *catalogRepository) FindServicesByIDs(ctx context.Context, ids []uint) (map[uint]model.Service, error) {
	out := make(map[uint]model.Service, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var services []model.Service
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&services).Error; err != nil {
		logger.Error("Failed to find catalog services in database", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	for _, s := range services {
		out[s.ID] = s
	}
	return out, nil
}

func (r *catalogRepository) FindAddonByID(ctx context.Context, id uint) (*model.Addon, error) {
	var addon model.Addon
	if err := r.db.WithContext(ctx).First(&addon, id).Error; err != nil {
		return nil, err
	}
	return &addon, nil
}

func (r *catalogRepository) ListServices(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	query := r.db.WithContext(ctx).Order("category_id ASC, name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var services []model.Service
	if err := query.Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

// UpsertService inserts or refreshes a catalog service keyed by name.
func (r *catalogRepository) UpsertService(ctx context.Context, service *model.Service) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"category_id", "subcategory_id", "min_price", "default_duration_minutes", "is_active", "updated_at"}),
	}).Create(service).Error
	if err != nil {
		logger.Error("Failed to upsert catalog service", err, map[string]interface{}{
			"name": service.Name,
		})
		return err
	}
	if service.ID == 0 {
		return r.db.WithContext(ctx).Where("name = ?", service.Name).First(service).Error
	}
	return nil
}

// UpsertAddon inserts an addon unless one with the same name exists for the service.
func (r *catalogRepository) UpsertAddon(ctx context.Context, addon *model.Addon) error {
	var existing model.Addon
	err := r.db.WithContext(ctx).Where("service_id = ? AND name = ?", addon.ServiceID, addon.Name).First(&existing).Error
	switch {
	case err == nil:
		addon.ID = existing.ID
		return r.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
			"default_price": addon.DefaultPrice,
			"is_active":     addon.IsActive,
		}).Error
	case err == gorm.ErrRecordNotFound:
		return r.db.WithContext(ctx).Create(addon).Error
	default:
		logger.Error("Failed to upsert catalog addon", err, map[string]interface{}{
			"service_id": addon.ServiceID,
			"name":       addon.Name,
		})
		return err
	}
}
