package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Business errors are surfaced verbatim to callers; nothing in this core
// retries automatically.
var (
	// ErrNotFound is returned for stale or unknown references.
	ErrNotFound = errors.New("not found")
	// ErrDraftAlreadyExists means the family already has a mutable draft.
	ErrDraftAlreadyExists = errors.New("a draft already exists for this document family")
	// ErrDocumentLocked means the target row is issued or superseded and
	// may not be edited.
	ErrDocumentLocked = errors.New("document is issued and locked against edits")
	// ErrDocumentNotIssued means an operation that requires an issued
	// version was invoked against a draft or superseded row.
	ErrDocumentNotIssued = errors.New("document is not issued")
	// ErrRenderedArtifactMissing means no rendered artifact exists yet for
	// the document, so a defence pack cannot be assembled.
	ErrRenderedArtifactMissing = errors.New("no rendered artifact exists for this document")
	// ErrConcurrencyConflict means two writers raced; the caller should
	// re-read current state and retry the whole operation.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	// ErrDependencyUnavailable means a collaborator (render, storage,
	// evidence) failed; no partial state was persisted.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrValidationFailed is the sentinel matched by ValidationError.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError reports why a document cannot be issued. It matches
// ErrValidationFailed under errors.Is so callers can branch on the class
// while still seeing the reasons.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Reasons) == 0 {
		return ErrValidationFailed.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Reasons, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }
