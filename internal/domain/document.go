package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	IssueStatusDraft      = "draft"
	IssueStatusIssued     = "issued"
	IssueStatusSuperseded = "superseded"
)

// Document is one version of an assessment. All versions of one logical
// assessment share a BaseDocumentID (the family key); at most one row per
// family may be a draft, and issued/superseded rows never change outside
// the status-transition fields.
type Document struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BaseDocumentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_document_family_version,priority:1" json:"base_document_id"`
	VersionNumber  int       `gorm:"column:version_number;not null;uniqueIndex:idx_document_family_version,priority:2" json:"version_number"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Reference   string `gorm:"column:reference" json:"reference,omitempty"`
	IssueStatus string `gorm:"column:issue_status;not null;default:'draft';index" json:"issue_status"`

	// Content modules keyed by module key; written by the external forms,
	// inspected by the issue validator, copied on new-version creation.
	Modules datatypes.JSON `gorm:"column:modules;type:jsonb" json:"modules,omitempty"`

	// Derived per-version fields. Reset to defaults on new-version creation
	// so they always reflect the version they belong to.
	ExecutiveSummary string `gorm:"column:executive_summary;type:text" json:"executive_summary,omitempty"`

	IssueDate *time.Time `gorm:"column:issue_date" json:"issue_date,omitempty"`
	IssuedBy  *uuid.UUID `gorm:"type:uuid;column:issued_by" json:"issued_by,omitempty"`

	SupersededByDocumentID *uuid.UUID `gorm:"type:uuid;column:superseded_by_document_id" json:"superseded_by_document_id,omitempty"`
	SupersededDate         *time.Time `gorm:"column:superseded_date" json:"superseded_date,omitempty"`

	CreatedBy uuid.UUID `gorm:"type:uuid;column:created_by" json:"created_by"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string { return "document" }

// IsLocked reports whether the row is immutable (issued or superseded).
func (d *Document) IsLocked() bool {
	return d.IssueStatus == IssueStatusIssued || d.IssueStatus == IssueStatusSuperseded
}
