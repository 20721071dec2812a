package packs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type RenderedArtifactRepo interface {
	// Upsert replaces the artifact record for a document; re-rendering an
	// issued document overwrites the registry entry, never duplicates it.
	Upsert(dbc dbctx.Context, row *types.RenderedArtifact) error
	GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (*types.RenderedArtifact, error)
}

type renderedArtifactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRenderedArtifactRepo(gdb *gorm.DB, baseLog *logger.Logger) RenderedArtifactRepo {
	return &renderedArtifactRepo{db: gdb, log: baseLog.With("repo", "RenderedArtifactRepo")}
}

func (r *renderedArtifactRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *renderedArtifactRepo) Upsert(dbc dbctx.Context, row *types.RenderedArtifact) error {
	if row == nil {
		return nil
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "document_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"storage_key",
				"content_type",
				"checksum",
				"size_bytes",
				"rendered_at",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *renderedArtifactRepo) GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (*types.RenderedArtifact, error) {
	var rows []*types.RenderedArtifact
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}
