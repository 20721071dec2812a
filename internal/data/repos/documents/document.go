package documents

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clearform/assurance-backend/internal/data/db"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, row *types.Document) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	GetFamily(dbc dbctx.Context, baseID uuid.UUID) ([]*types.Document, error)
	GetDraft(dbc dbctx.Context, baseID uuid.UUID) (*types.Document, error)
	GetCurrentIssued(dbc dbctx.Context, baseID uuid.UUID) (*types.Document, error)
	MaxVersionNumber(dbc dbctx.Context, baseID uuid.UUID) (int, error)
	LockFamily(dbc dbctx.Context, baseID uuid.UUID) error
	ListLatest(dbc dbctx.Context) ([]*types.Document, error)
	UpdateDraftFields(dbc dbctx.Context, id uuid.UUID, fields map[string]interface{}) error
	MarkIssued(dbc dbctx.Context, id uuid.UUID, issuedBy uuid.UUID, at time.Time) error
	MarkSuperseded(dbc dbctx.Context, id uuid.UUID, supersededBy uuid.UUID, at time.Time) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(gdb *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: gdb, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *documentRepo) Create(dbc dbctx.Context, row *types.Document) error {
	if row == nil {
		return nil
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return classifyCreateErr(err)
	}
	return nil
}

// classifyCreateErr maps constraint violations onto the business errors
// they stand for. The single-draft partial index rejects a second draft
// in a family; the (family, version) index catches two writers assigning
// the same version number.
func classifyCreateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "idx_document_single_draft" {
			return types.ErrDraftAlreadyExists
		}
		return types.ErrConcurrencyConflict
	}
	if db.IsUniqueViolation(err) {
		return types.ErrDraftAlreadyExists
	}
	return err
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	var rows []*types.Document
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

func (r *documentRepo) GetFamily(dbc dbctx.Context, baseID uuid.UUID) ([]*types.Document, error) {
	var rows []*types.Document
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("base_document_id = ?", baseID).
		Order("version_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *documentRepo) GetDraft(dbc dbctx.Context, baseID uuid.UUID) (*types.Document, error) {
	var rows []*types.Document
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("base_document_id = ? AND issue_status = ?", baseID, types.IssueStatusDraft).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

// GetCurrentIssued resolves "current" by query: the unique issued,
// non-superseded row for the family. There is deliberately no stored
// current-version pointer.
func (r *documentRepo) GetCurrentIssued(dbc dbctx.Context, baseID uuid.UUID) (*types.Document, error) {
	var rows []*types.Document
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("base_document_id = ? AND issue_status = ?", baseID, types.IssueStatusIssued).
		Order("version_number DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

func (r *documentRepo) MaxVersionNumber(dbc dbctx.Context, baseID uuid.UUID) (int, error) {
	var max *int
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Document{}).
		Where("base_document_id = ?", baseID).
		Select("MAX(version_number)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// LockFamily serializes writers on one document family for the duration
// of the surrounding transaction. Readers are unaffected.
func (r *documentRepo) LockFamily(dbc dbctx.Context, baseID uuid.UUID) error {
	t := r.handle(dbc).WithContext(dbc.Ctx)
	if t.Dialector.Name() == "postgres" {
		t = t.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ids []uuid.UUID
	return t.Model(&types.Document{}).
		Where("base_document_id = ?", baseID).
		Order("version_number ASC").
		Pluck("id", &ids).Error
}

func (r *documentRepo) ListLatest(dbc dbctx.Context) ([]*types.Document, error) {
	var rows []*types.Document
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Raw(`
			SELECT d.* FROM "document" d
			JOIN (
				SELECT base_document_id, MAX(version_number) AS max_version
				FROM "document"
				GROUP BY base_document_id
			) latest
			ON d.base_document_id = latest.base_document_id
			AND d.version_number = latest.max_version
			ORDER BY d.updated_at DESC
		`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateDraftFields writes content fields on a draft. The status guard in
// the WHERE clause plus the model hook plus the service check give three
// independent layers rejecting writes against locked rows.
func (r *documentRepo) UpdateDraftFields(dbc dbctx.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	res := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Document{}).
		Where("id = ? AND issue_status = ?", id, types.IssueStatusDraft).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		doc, err := r.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return types.ErrDocumentLocked
		}
		return types.ErrConcurrencyConflict
	}
	return nil
}

func (r *documentRepo) MarkIssued(dbc dbctx.Context, id uuid.UUID, issuedBy uuid.UUID, at time.Time) error {
	res := types.AllowStatusTransition(r.handle(dbc).WithContext(dbc.Ctx)).
		Model(&types.Document{}).
		Where("id = ? AND issue_status = ?", id, types.IssueStatusDraft).
		Updates(map[string]interface{}{
			"issue_status": types.IssueStatusIssued,
			"issue_date":   at,
			"issued_by":    issuedBy,
			"updated_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		doc, err := r.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return types.ErrDocumentLocked
		}
		return types.ErrConcurrencyConflict
	}
	return nil
}

func (r *documentRepo) MarkSuperseded(dbc dbctx.Context, id uuid.UUID, supersededBy uuid.UUID, at time.Time) error {
	res := types.AllowStatusTransition(r.handle(dbc).WithContext(dbc.Ctx)).
		Model(&types.Document{}).
		Where("id = ? AND issue_status = ?", id, types.IssueStatusIssued).
		Updates(map[string]interface{}{
			"issue_status":              types.IssueStatusSuperseded,
			"superseded_by_document_id": supersededBy,
			"superseded_date":           at,
			"updated_at":                at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Someone else superseded it first, or it was never issued.
		return types.ErrConcurrencyConflict
	}
	return nil
}
