package evidence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type EvidenceFileRepo interface {
	Create(dbc dbctx.Context, rows []*types.EvidenceFile) error
	ListByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.EvidenceFile, error)
}

type evidenceFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvidenceFileRepo(gdb *gorm.DB, baseLog *logger.Logger) EvidenceFileRepo {
	return &evidenceFileRepo{db: gdb, log: baseLog.With("repo", "EvidenceFileRepo")}
}

func (r *evidenceFileRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *evidenceFileRepo) Create(dbc dbctx.Context, rows []*types.EvidenceFile) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if row.UploadedAt.IsZero() {
			row.UploadedAt = now
		}
	}
	return r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *evidenceFileRepo) ListByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.EvidenceFile, error) {
	var rows []*types.EvidenceFile
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("uploaded_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
