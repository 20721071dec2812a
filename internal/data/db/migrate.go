package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/clearform/assurance-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(

		// Document lifecycle
		&types.Document{},
		&types.Action{},

		// Trigger rule library
		&types.TriggerRule{},

		// Issued artifacts
		&types.RenderedArtifact{},
		&types.DefencePack{},
		&types.EvidenceFile{},
	); err != nil {
		return err
	}

	// AutoMigrate cannot express a partial unique index. This one
	// enforces at most one draft row per document family. Both
	// Postgres and sqlite accept the same syntax.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_document_single_draft
		ON "document" (base_document_id)
		WHERE issue_status = 'draft'
	`).Error; err != nil {
		return fmt.Errorf("failed to create single-draft index: %w", err)
	}

	return nil
}
