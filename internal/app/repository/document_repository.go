package repository

import (
	"context"
	"time"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.BusinessDocument) error
	FindByID(ctx context.Context, id uint) (*model.BusinessDocument, error)
	ListByBusiness(ctx context.Context, businessID uint) ([]model.BusinessDocument, error)
	Delete(ctx context.Context, businessID, id uint) error
	SetVerification(ctx context.Context, id uint, status model.DocumentStatus, verifiedBy, reason string, at time.Time) (int64, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.BusinessDocument) error {
	logger.Debug("Creating business document in database", map[string]interface{}{
		"business_id":   doc.BusinessID,
		"document_type": doc.DocumentType,
	})

	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		logger.Error("Failed to create business document in database", err, map[string]interface{}{
			"business_id":   doc.BusinessID,
			"document_type": doc.DocumentType,
		})
		return err
	}

	logger.Debug("Business document created in database", map[string]interface{}{
		"document_id": doc.ID,
		"business_id": doc.BusinessID,
	})
	return nil
}

func (r *documentRepository) FindByID(ctx context.Context, id uint) (*model.BusinessDocument, error) {
	var doc model.BusinessDocument
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByBusiness(ctx context.Context, businessID uint) ([]model.BusinessDocument, error) {
	var docs []model.BusinessDocument
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at ASC, id ASC").
		Find(&docs).Error
	if err != nil {
		logger.Error("Failed to list business documents in database", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) Delete(ctx context.Context, businessID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", id, businessID).
		Delete(&model.BusinessDocument{})
	if result.Error != nil {
		logger.Error("Failed to delete business document in database", result.Error, map[string]interface{}{
			"document_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetVerification records an admin decision on a document in one statement.
func (r *documentRepository) SetVerification(ctx context.Context, id uint, status model.DocumentStatus, verifiedBy, reason string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.BusinessDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"verification_status": status,
			"verified_by":         verifiedBy,
			"verified_at":         at,
			"rejection_reason":    reason,
		})
	if result.Error != nil {
		logger.Error("Failed to set document verification in database", result.Error, map[string]interface{}{
			"document_id": id,
			"status":      status,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
