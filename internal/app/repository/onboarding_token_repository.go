package repository

import (
	"context"
	"time"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
)

type OnboardingTokenRepository interface {
	Replace(ctx context.Context, token *model.OnboardingToken) error
	FindByID(ctx context.Context, id string) (*model.OnboardingToken, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
	RevokeForBusiness(ctx context.Context, businessID uint, at time.Time) error
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

type onboardingTokenRepository struct {
	db *gorm.DB
}

func NewOnboardingTokenRepository(db *gorm.DB) OnboardingTokenRepository {
	return &onboardingTokenRepository{db: db}
}

// Replace revokes every live token of the business and stores token, so at
// most one link per business opens the gate.
func (r *onboardingTokenRepository) Replace(ctx context.Context, token *model.OnboardingToken) error {
	logger.Debug("Replacing onboarding token in database", map[string]interface{}{
		"business_id": token.BusinessID,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.OnboardingToken{}).
			Where("business_id = ? AND revoked_at IS NULL", token.BusinessID).
			Update("revoked_at", token.CreatedAt).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		logger.Error("Failed to replace onboarding token in database", err, map[string]interface{}{
			"business_id": token.BusinessID,
		})
		return err
	}

	logger.Debug("Onboarding token stored in database", map[string]interface{}{
		"token_id":    token.ID,
		"business_id": token.BusinessID,
		"expires_at":  token.ExpiresAt,
	})
	return nil
}

func (r *onboardingTokenRepository) FindByID(ctx context.Context, id string) (*model.OnboardingToken, error) {
	var token model.OnboardingToken
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *onboardingTokenRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.OnboardingToken{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (r *onboardingTokenRepository) RevokeForBusiness(ctx context.Context, businessID uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.OnboardingToken{}).
		Where("business_id = ? AND revoked_at IS NULL", businessID).
		Update("revoked_at", at).Error; err != nil {
		logger.Error("Failed to revoke onboarding tokens in database", err, map[string]interface{}{
			"business_id": businessID,
		})
		return err
	}
	return nil
}

// DeleteStale removes expired and revoked tokens.
func (r *onboardingTokenRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	logger.Debug("Deleting stale onboarding tokens from database")

	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", now).
		Delete(&model.OnboardingToken{})
	if result.Error != nil {
		logger.Error("Failed to delete stale onboarding tokens from database", result.Error, nil)
		return 0, result.Error
	}

	logger.Debug("Stale onboarding tokens deleted from database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
