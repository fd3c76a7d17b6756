package repository

import (
	"context"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
)

type BusinessFilter struct {
	Status         model.VerificationStatus
	SetupCompleted *bool
	Page           Page
}

type BusinessRepository interface {
	CreateWithOwner(ctx context.Context, business *model.BusinessProfile, owner *model.Provider) error
	FindByID(ctx context.Context, id uint) (*model.BusinessProfile, error)
	FindActiveByID(ctx context.Context, id uint) (*model.BusinessProfile, error)
	List(ctx context.Context, filter BusinessFilter) ([]model.BusinessProfile, int64, error)
	SaveStep(ctx context.Context, id uint, step model.OnboardingStep, fields map[string]interface{}) error
	Moderate(ctx context.Context, id uint, expectedVersion *int, fields map[string]interface{}) (int64, error)
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

// CreateWithOwner inserts the business and its owner provider together.
func (r *businessRepository) CreateWithOwner(ctx context.Context, business *model.BusinessProfile, owner *model.Provider) error {
	logger.Debug("Creating business with owner in database", map[string]interface{}{
		"business_name": business.BusinessName,
		"user_id":       owner.UserID,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(business).Error; err != nil {
			return err
		}
		owner.BusinessID = business.ID
		owner.ProviderRole = model.RoleOwner
		return tx.Create(owner).Error
	})
	if err != nil {
		logger.Error("Failed to create business with owner in database", err, map[string]interface{}{
			"business_name": business.BusinessName,
			"user_id":       owner.UserID,
		})
		return err
	}

	logger.Debug("Business created in database", map[string]interface{}{
		"business_id": business.ID,
		"provider_id": owner.ID,
	})
	return nil
}

func (r *businessRepository) FindByID(ctx context.Context, id uint) (*model.BusinessProfile, error) {
	var business model.BusinessProfile
	if err := r.db.WithContext(ctx).First(&business, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find business in database", err, map[string]interface{}{
				"business_id": id,
			})
		}
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) FindActiveByID(ctx context.Context, id uint) (*model.BusinessProfile, error) {
	var business model.BusinessProfile
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&business, id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// List 관리자 심사 목록 조회
func (r *businessRepository) List(ctx context.Context, filter BusinessFilter) ([]model.BusinessProfile, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).Model(&model.BusinessProfile{})
	if filter.Status != "" {
		query = query.Where("verification_status = ?", filter.Status)
	}
	if filter.SetupCompleted != nil {
		query = query.Where("setup_completed = ?", *filter.SetupCompleted)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count businesses", err, nil)
		return nil, 0, err
	}

	var businesses []model.BusinessProfile
	err := query.Order("submitted_for_review_at DESC, created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&businesses).Error
	if err != nil {
		logger.Error("Failed to list businesses", err, nil)
		return nil, 0, err
	}

	return businesses, total, nil
}

// SaveStep writes one step's fields and advances the cursor to step without
// ever moving it backwards. The cursor change and the fields land in one
// statement.
func (r *businessRepository) SaveStep(ctx context.Context, id uint, step model.OnboardingStep, fields map[string]interface{}) error {
	logger.Debug("Saving onboarding step in database", map[string]interface{}{
		"business_id": id,
		"step":        step.String(),
	})

	updates := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["setup_step"] = gorm.Expr("CASE WHEN setup_step < ? THEN ? ELSE setup_step END", int(step), int(step))
	updates["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).Model(&model.BusinessProfile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to save onboarding step in database", result.Error, map[string]interface{}{
			"business_id": id,
			"step":        step.String(),
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Onboarding step saved in database", map[string]interface{}{
		"business_id": id,
		"step":        step.String(),
	})
	return nil
}

// Moderate stamps a moderation change; zero rows means missing or stale.
func (r *businessRepository) Moderate(ctx context.Context, id uint, expectedVersion *int, fields map[string]interface{}) (int64, error) {
	result := versionedUpdate(r.db.WithContext(ctx), &model.BusinessProfile{}, id, expectedVersion, fields)
	if result.Error != nil {
		logger.Error("Failed to moderate business in database", result.Error, map[string]interface{}{
			"business_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
