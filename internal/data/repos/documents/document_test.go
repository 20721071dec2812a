package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clearform/assurance-backend/internal/data/repos/testutil"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
)

func TestDocumentRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	baseID := uuid.New()
	v1 := testutil.SeedDocument(t, ctx, tx, baseID, 1, types.IssueStatusDraft)

	got, err := repo.GetByID(dbc, v1.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.BaseDocumentID != baseID || got.VersionNumber != 1 {
		t.Fatalf("GetByID: unexpected row %+v", got)
	}

	if _, err := repo.GetByID(dbc, uuid.New()); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}

	draft, err := repo.GetDraft(dbc, baseID)
	if err != nil || draft.ID != v1.ID {
		t.Fatalf("GetDraft: err=%v", err)
	}

	if err := repo.UpdateDraftFields(dbc, v1.ID, map[string]interface{}{
		"title": "Fire Safety Assessment (rev)",
	}); err != nil {
		t.Fatalf("UpdateDraftFields: %v", err)
	}

	issuer := uuid.New()
	issuedAt := time.Now().UTC()
	if err := repo.MarkIssued(dbc, v1.ID, issuer, issuedAt); err != nil {
		t.Fatalf("MarkIssued: %v", err)
	}

	cur, err := repo.GetCurrentIssued(dbc, baseID)
	if err != nil || cur.ID != v1.ID {
		t.Fatalf("GetCurrentIssued: err=%v", err)
	}
	if cur.IssuedBy == nil || *cur.IssuedBy != issuer {
		t.Fatalf("GetCurrentIssued: issued_by not recorded")
	}

	// Issued rows reject content edits.
	err = repo.UpdateDraftFields(dbc, v1.ID, map[string]interface{}{"title": "late edit"})
	if !errors.Is(err, types.ErrDocumentLocked) {
		t.Fatalf("UpdateDraftFields on issued: want ErrDocumentLocked, got %v", err)
	}

	// Re-issuing an already issued row is a conflict surfaced as locked.
	err = repo.MarkIssued(dbc, v1.ID, issuer, time.Now().UTC())
	if !errors.Is(err, types.ErrDocumentLocked) {
		t.Fatalf("MarkIssued twice: want ErrDocumentLocked, got %v", err)
	}

	v2 := testutil.SeedDocument(t, ctx, tx, baseID, 2, types.IssueStatusDraft)
	if n, err := repo.MaxVersionNumber(dbc, baseID); err != nil || n != 2 {
		t.Fatalf("MaxVersionNumber: n=%d err=%v", n, err)
	}

	if err := repo.MarkSuperseded(dbc, v1.ID, v2.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkSuperseded: %v", err)
	}
	if err := repo.MarkSuperseded(dbc, v1.ID, v2.ID, time.Now().UTC()); !errors.Is(err, types.ErrConcurrencyConflict) {
		t.Fatalf("MarkSuperseded twice: want ErrConcurrencyConflict, got %v", err)
	}

	if _, err := repo.GetCurrentIssued(dbc, baseID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("GetCurrentIssued after supersede: want ErrNotFound, got %v", err)
	}

	fam, err := repo.GetFamily(dbc, baseID)
	if err != nil || len(fam) != 2 {
		t.Fatalf("GetFamily: err=%v len=%d", err, len(fam))
	}
	if fam[0].VersionNumber != 1 || fam[1].VersionNumber != 2 {
		t.Fatalf("GetFamily: wrong order")
	}

	if err := repo.LockFamily(dbc, baseID); err != nil {
		t.Fatalf("LockFamily: %v", err)
	}
}

func TestDocumentRepoSingleDraft(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	baseID := uuid.New()
	testutil.SeedDocument(t, ctx, tx, baseID, 1, types.IssueStatusIssued)
	testutil.SeedDocument(t, ctx, tx, baseID, 2, types.IssueStatusDraft)

	// Second draft in the same family violates the partial unique index.
	// Keep this the last statement: the violation aborts the test tx.
	err := repo.Create(dbc, &types.Document{
		ID:             uuid.New(),
		BaseDocumentID: baseID,
		VersionNumber:  3,
		Title:          "another draft",
		IssueStatus:    types.IssueStatusDraft,
		CreatedBy:      uuid.New(),
	})
	if !errors.Is(err, types.ErrDraftAlreadyExists) {
		t.Fatalf("Create second draft: want ErrDraftAlreadyExists, got %v", err)
	}
}

func TestDocumentRepoListLatest(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	famA := uuid.New()
	testutil.SeedDocument(t, ctx, tx, famA, 1, types.IssueStatusSuperseded)
	a2 := testutil.SeedDocument(t, ctx, tx, famA, 2, types.IssueStatusIssued)

	famB := uuid.New()
	b1 := testutil.SeedDocument(t, ctx, tx, famB, 1, types.IssueStatusDraft)

	rows, err := repo.ListLatest(dbc)
	if err != nil {
		t.Fatalf("ListLatest: %v", err)
	}
	seen := map[uuid.UUID]int{}
	for _, row := range rows {
		seen[row.ID] = row.VersionNumber
	}
	if seen[a2.ID] != 2 {
		t.Fatalf("ListLatest: missing latest of family A")
	}
	if seen[b1.ID] != 1 {
		t.Fatalf("ListLatest: missing latest of family B")
	}
}
