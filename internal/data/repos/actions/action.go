package actions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type ActionRepo interface {
	Create(dbc dbctx.Context, rows []*types.Action) error
	// CreateIfAbsent inserts an auto action guarded by the unique
	// (document_id, trigger_key) index; a concurrent duplicate is a no-op.
	CreateIfAbsent(dbc dbctx.Context, row *types.Action) (created bool, err error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Action, error)
	GetByTriggerKey(dbc dbctx.Context, documentID uuid.UUID, triggerKey string) (*types.Action, error)
	ListByDocumentID(dbc dbctx.Context, documentID uuid.UUID, includeSuppressed bool) ([]*types.Action, error)
	ListCarryable(dbc dbctx.Context, documentID uuid.UUID) ([]*types.Action, error)
	ListLineage(dbc dbctx.Context, rootID uuid.UUID) ([]*types.Action, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]interface{}) error
	CloseLineage(dbc dbctx.Context, rootID uuid.UUID, closedBy uuid.UUID, at time.Time, notes string) ([]uuid.UUID, error)
	HardDelete(dbc dbctx.Context, id uuid.UUID) error
	SetSuppressed(dbc dbctx.Context, id uuid.UUID, suppressed bool) error
}

type actionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActionRepo(gdb *gorm.DB, baseLog *logger.Logger) ActionRepo {
	return &actionRepo{db: gdb, log: baseLog.With("repo", "ActionRepo")}
}

func (r *actionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *actionRepo) Create(dbc dbctx.Context, rows []*types.Action) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if row.UpdatedAt.IsZero() {
			row.UpdatedAt = now
		}
	}
	return r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *actionRepo) CreateIfAbsent(dbc dbctx.Context, row *types.Action) (bool, error) {
	if row == nil {
		return false, nil
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	res := r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "trigger_key"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *actionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Action, error) {
	var rows []*types.Action
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

func (r *actionRepo) GetByTriggerKey(dbc dbctx.Context, documentID uuid.UUID, triggerKey string) (*types.Action, error) {
	var rows []*types.Action
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("document_id = ? AND trigger_key = ?", documentID, triggerKey).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

func (r *actionRepo) ListByDocumentID(dbc dbctx.Context, documentID uuid.UUID, includeSuppressed bool) ([]*types.Action, error) {
	q := r.handle(dbc).WithContext(dbc.Ctx).
		Where("document_id = ?", documentID)
	if !includeSuppressed {
		q = q.Where("is_suppressed = ?", false)
	}
	var rows []*types.Action
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCarryable returns the actions that travel to the next version:
// open, in progress or deferred, and not suppressed.
func (r *actionRepo) ListCarryable(dbc dbctx.Context, documentID uuid.UUID) ([]*types.Action, error) {
	var rows []*types.Action
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("document_id = ? AND is_suppressed = ? AND status IN ?",
			documentID, false,
			[]string{types.ActionStatusOpen, types.ActionStatusInProgress, types.ActionStatusDeferred}).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLineage returns every copy of one logical item across all
// versions: the root row itself plus every row pointing at it.
func (r *actionRepo) ListLineage(dbc dbctx.Context, rootID uuid.UUID) ([]*types.Action, error) {
	var rows []*types.Action
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ? OR origin_action_id = ?", rootID, rootID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *actionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Action{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// CloseLineage closes every copy sharing the root in one statement and
// reports which rows changed. Already-closed copies keep their original
// closure stamp.
func (r *actionRepo) CloseLineage(dbc dbctx.Context, rootID uuid.UUID, closedBy uuid.UUID, at time.Time, notes string) ([]uuid.UUID, error) {
	t := r.handle(dbc).WithContext(dbc.Ctx)

	var ids []uuid.UUID
	if err := t.Model(&types.Action{}).
		Where("(id = ? OR origin_action_id = ?) AND status <> ?",
			rootID, rootID, types.ActionStatusClosed).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if err := t.Model(&types.Action{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":        types.ActionStatusClosed,
			"closed_at":     at,
			"closed_by":     closedBy,
			"closure_notes": notes,
			"updated_at":    at,
		}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *actionRepo) HardDelete(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Action{}).Error
}

func (r *actionRepo) SetSuppressed(dbc dbctx.Context, id uuid.UUID, suppressed bool) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Action{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_suppressed": suppressed,
			"updated_at":    time.Now().UTC(),
		}).Error
}
