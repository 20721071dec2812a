package library

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type TriggerRuleRepo interface {
	// Upsert writes library entries keyed by (module, factor) so repeated
	// seeding converges instead of duplicating.
	Upsert(dbc dbctx.Context, rows []*types.TriggerRule) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TriggerRule, error)
	ListActive(dbc dbctx.Context) ([]*types.TriggerRule, error)
	SetActive(dbc dbctx.Context, id uuid.UUID, active bool) error
}

type triggerRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTriggerRuleRepo(gdb *gorm.DB, baseLog *logger.Logger) TriggerRuleRepo {
	return &triggerRuleRepo{db: gdb, log: baseLog.With("repo", "TriggerRuleRepo")}
}

func (r *triggerRuleRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *triggerRuleRepo) Upsert(dbc dbctx.Context, rows []*types.TriggerRule) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "source_module_key"}, {Name: "source_factor_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"trigger_rating_threshold",
				"title",
				"default_text",
				"default_priority",
				"active",
				"updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *triggerRuleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TriggerRule, error) {
	var rows []*types.TriggerRule
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

func (r *triggerRuleRepo) ListActive(dbc dbctx.Context) ([]*types.TriggerRule, error) {
	var rows []*types.TriggerRule
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("active = ?", true).
		Order("source_module_key ASC, source_factor_key ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *triggerRuleRepo) SetActive(dbc dbctx.Context, id uuid.UUID, active bool) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.TriggerRule{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     active,
			"updated_at": time.Now().UTC(),
		}).Error
}
