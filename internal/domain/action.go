package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionStatusOpen          = "open"
	ActionStatusInProgress    = "in_progress"
	ActionStatusDeferred      = "deferred"
	ActionStatusClosed        = "closed"
	ActionStatusNotApplicable = "not_applicable"

	ActionSourceAuto   = "auto"
	ActionSourceManual = "manual"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Action is a recommendation or remediation item tied to one document
// version. Carried copies of the same logical finding share an
// OriginActionID lineage root; closing any copy closes the whole lineage.
type Action struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_action_trigger_key,priority:1" json:"document_id"`

	// SourceDocumentID is the version that first created this logical item;
	// it is preserved unchanged across carry-forwards.
	SourceDocumentID uuid.UUID `gorm:"type:uuid;not null" json:"source_document_id"`
	// OriginActionID is the lineage root shared by every carried copy.
	// Nil on a first-generation action (its own id is the root).
	OriginActionID *uuid.UUID `gorm:"type:uuid;index" json:"origin_action_id,omitempty"`
	// CarriedFromDocumentID is the immediate predecessor version, kept for
	// traceability only.
	CarriedFromDocumentID *uuid.UUID `gorm:"type:uuid" json:"carried_from_document_id,omitempty"`

	Reference      string `gorm:"column:reference" json:"reference,omitempty"`
	Description    string `gorm:"column:description;type:text;not null" json:"description"`
	Recommendation string `gorm:"column:recommendation;type:text" json:"recommendation,omitempty"`
	Priority       string `gorm:"column:priority;not null;default:'medium'" json:"priority"`
	Status         string `gorm:"column:status;not null;default:'open';index" json:"status"`
	Owner          string `gorm:"column:owner" json:"owner,omitempty"`
	DueDate        *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`

	SourceType string     `gorm:"column:source_type;not null;default:'manual'" json:"source_type"`
	LibraryID  *uuid.UUID `gorm:"type:uuid;column:library_id" json:"library_id,omitempty"`
	// TriggerKey is the deterministic identity of one (document, rule)
	// pairing for auto-created actions; unique per document.
	TriggerKey *string `gorm:"column:trigger_key;uniqueIndex:idx_action_trigger_key,priority:2" json:"trigger_key,omitempty"`
	// IsSuppressed marks an auto action the user deleted; it is kept so the
	// trigger engine never resurrects it.
	IsSuppressed bool `gorm:"column:is_suppressed;not null;default:false" json:"is_suppressed"`

	ClosedAt     *time.Time `gorm:"column:closed_at" json:"closed_at,omitempty"`
	ClosedBy     *uuid.UUID `gorm:"type:uuid;column:closed_by" json:"closed_by,omitempty"`
	ClosureNotes string     `gorm:"column:closure_notes;type:text" json:"closure_notes,omitempty"`

	CreatedBy uuid.UUID `gorm:"type:uuid;column:created_by" json:"created_by"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Action) TableName() string { return "action" }

// LineageRoot resolves the id shared by every carried copy of this item.
func (a *Action) LineageRoot() uuid.UUID {
	if a.OriginActionID != nil && *a.OriginActionID != uuid.Nil {
		return *a.OriginActionID
	}
	return a.ID
}

// IsCarryable reports whether the action travels to the next version.
func (a *Action) IsCarryable() bool {
	switch a.Status {
	case ActionStatusOpen, ActionStatusInProgress, ActionStatusDeferred:
		return true
	default:
		return false
	}
}
