package db

import (
	"fmt"
	"strings"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.BusinessProfile{},
		&model.Provider{},
		&model.BusinessDocument{},
		&model.Service{},
		&model.Addon{},
		&model.BusinessService{},
		&model.BusinessAddon{},
		&model.Booking{},
		&model.Review{},
		&model.OnboardingToken{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	if instance == nil {
		return ErrNotInitialized
	}
	return migrate(instance)
}

func migrate(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}
	if err := ensureSingleDocumentIndex(conn); err != nil {
		logger.Error("Failed to create document index", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SingleDocumentIndex enforces the duplicate-type rule in the store so that
// concurrent uploads cannot both insert a live row of a single-upload type.
const SingleDocumentIndex = "idx_business_documents_single_type"

func ensureSingleDocumentIndex(conn *gorm.DB) error {
	types := model.SingleUploadDocumentTypes()
	quoted := make([]string, len(types))
	for i, t := range types {
		quoted[i] = "'" + string(t) + "'"
	}
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON business_documents (business_id, document_type) "+
			"WHERE document_type IN (%s) AND verification_status <> '%s' AND deleted_at IS NULL",
		SingleDocumentIndex, strings.Join(quoted, ", "), model.DocumentRejected,
	)
	return conn.Exec(stmt).Error
}
