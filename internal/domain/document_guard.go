package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// statusTransitionKey marks a statement as a legal status transition
// (issue/supersede), which is the only write allowed on a locked row.
const statusTransitionKey = "assurance:status_transition"

// AllowStatusTransition marks the chain so the lock guard lets the
// status-transition fields through.
func AllowStatusTransition(tx *gorm.DB) *gorm.DB {
	return tx.Set(statusTransitionKey, true)
}

// BeforeUpdate rejects writes against issued/superseded rows at the
// data-access layer, independent of the service-level checks.
func (d *Document) BeforeUpdate(tx *gorm.DB) error {
	if _, ok := tx.Get(statusTransitionKey); ok {
		return nil
	}
	return d.rejectIfLocked(tx)
}

// BeforeDelete rejects deletion of issued/superseded rows; packs keep
// referencing them forever.
func (d *Document) BeforeDelete(tx *gorm.DB) error {
	return d.rejectIfLocked(tx)
}

func (d *Document) rejectIfLocked(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		return nil
	}
	var statuses []string
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&Document{}).
		Where("id = ?", d.ID).
		Limit(1).
		Pluck("issue_status", &statuses).Error
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return nil
	}
	switch statuses[0] {
	case IssueStatusIssued, IssueStatusSuperseded:
		return ErrDocumentLocked
	default:
		return nil
	}
}
