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

type DefencePackRepo interface {
	// CreateIfAbsent persists the pack guarded by the unique document_id
	// index. When a concurrent builder won the race, created is false and
	// the caller re-reads the existing record.
	CreateIfAbsent(dbc dbctx.Context, row *types.DefencePack) (created bool, err error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DefencePack, error)
	GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (*types.DefencePack, error)
}

type defencePackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDefencePackRepo(gdb *gorm.DB, baseLog *logger.Logger) DefencePackRepo {
	return &defencePackRepo{db: gdb, log: baseLog.With("repo", "DefencePackRepo")}
}

func (r *defencePackRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *defencePackRepo) CreateIfAbsent(dbc dbctx.Context, row *types.DefencePack) (bool, error) {
	if row == nil {
		return false, nil
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	res := r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *defencePackRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DefencePack, error) {
	var rows []*types.DefencePack
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

func (r *defencePackRepo) GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (*types.DefencePack, error) {
	var rows []*types.DefencePack
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
