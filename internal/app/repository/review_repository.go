package repository

import (
	"context"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewFilter struct {
	BusinessID uint
	Approved   *bool
	Featured   *bool
	Page       Page
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id uint) (*model.Review, error)
	List(ctx context.Context, filter ReviewFilter) ([]model.Review, int64, error)
	Moderate(ctx context.Context, id uint, expectedVersion *int, fields map[string]interface{}) (int64, error)
	Feature(ctx context.Context, id uint, expectedVersion *int, fields map[string]interface{}) (int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create 리뷰 생성
func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// FindByID ID로 리뷰 조회
func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// List 리뷰 목록 조회
func (r *reviewRepository) List(ctx context.Context, filter ReviewFilter) ([]model.Review, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).Model(&model.Review{})
	if filter.BusinessID != 0 {
		query = query.Where("business_id = ?", filter.BusinessID)
	}
	if filter.Approved != nil {
		query = query.Where("is_approved = ?", *filter.Approved)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}

	// 전체 개수
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []model.Review
	err := query.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// Moderate applies approve/reject style changes with the audit stamp.
func (r *reviewRepository) Moderate(ctx context.Context, id uint, expectedVersion *int, fields map[string]interface{}) (int64, error) {
	result := versionedUpdate(r.db.WithContext(ctx), &model.Review{}, id, expectedVersion, fields)
	if result.Error != nil {
		logger.Error("Failed to moderate review in database", result.Error, map[string]interface{}{
			"review_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Feature is Moderate restricted to reviews that may be featured; the rule is
// part of the statement so a concurrent unapprove cannot slip through.
func (r *reviewRepository) Feature(ctx context.Context, id uint, expectedVersion *int, fields map[string]interface{}) (int64, error) {
	scoped := r.db.WithContext(ctx).Where("is_approved = ? AND overall_rating >= ?", true, model.MinFeaturedRating)
	result := versionedUpdate(scoped, &model.Review{}, id, expectedVersion, fields)
	if result.Error != nil {
		logger.Error("Failed to feature review in database", result.Error, map[string]interface{}{
			"review_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
