package actions

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

func TestActionRepoCreateIfAbsent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewActionRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, uuid.New(), 1, types.IssueStatusDraft)
	key := "f00dfeed"

	first := &types.Action{
		ID:               uuid.New(),
		DocumentID:       doc.ID,
		SourceDocumentID: doc.ID,
		Description:      "auto item",
		Priority:         types.PriorityHigh,
		Status:           types.ActionStatusOpen,
		SourceType:       types.ActionSourceAuto,
		TriggerKey:       &key,
		CreatedBy:        uuid.New(),
	}
	created, err := repo.CreateIfAbsent(dbc, first)
	if err != nil || !created {
		t.Fatalf("CreateIfAbsent first: created=%v err=%v", created, err)
	}

	dup := &types.Action{
		ID:               uuid.New(),
		DocumentID:       doc.ID,
		SourceDocumentID: doc.ID,
		Description:      "auto item again",
		Priority:         types.PriorityHigh,
		Status:           types.ActionStatusOpen,
		SourceType:       types.ActionSourceAuto,
		TriggerKey:       &key,
		CreatedBy:        uuid.New(),
	}
	created, err = repo.CreateIfAbsent(dbc, dup)
	if err != nil {
		t.Fatalf("CreateIfAbsent duplicate: %v", err)
	}
	if created {
		t.Fatalf("CreateIfAbsent duplicate: expected no-op")
	}

	got, err := repo.GetByTriggerKey(dbc, doc.ID, key)
	if err != nil {
		t.Fatalf("GetByTriggerKey: %v", err)
	}
	if got.ID != first.ID || got.Description != "auto item" {
		t.Fatalf("GetByTriggerKey: original row lost")
	}
}

func TestActionRepoListing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewActionRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, uuid.New(), 1, types.IssueStatusDraft)

	open := testutil.SeedAction(t, ctx, tx, doc.ID, types.ActionStatusOpen)
	inProg := testutil.SeedAction(t, ctx, tx, doc.ID, types.ActionStatusInProgress)
	deferred := testutil.SeedAction(t, ctx, tx, doc.ID, types.ActionStatusDeferred)
	closed := testutil.SeedAction(t, ctx, tx, doc.ID, types.ActionStatusClosed)
	na := testutil.SeedAction(t, ctx, tx, doc.ID, types.ActionStatusNotApplicable)

	suppressed := testutil.SeedAutoAction(t, ctx, tx, doc.ID, "cafebabe")
	if err := repo.SetSuppressed(dbc, suppressed.ID, true); err != nil {
		t.Fatalf("SetSuppressed: %v", err)
	}

	rows, err := repo.ListByDocumentID(dbc, doc.ID, false)
	if err != nil {
		t.Fatalf("ListByDocumentID: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("ListByDocumentID visible: want 5, got %d", len(rows))
	}

	rows, err = repo.ListByDocumentID(dbc, doc.ID, true)
	if err != nil || len(rows) != 6 {
		t.Fatalf("ListByDocumentID all: err=%v len=%d", err, len(rows))
	}

	carry, err := repo.ListCarryable(dbc, doc.ID)
	if err != nil {
		t.Fatalf("ListCarryable: %v", err)
	}
	want := map[uuid.UUID]bool{open.ID: true, inProg.ID: true, deferred.ID: true}
	if len(carry) != len(want) {
		t.Fatalf("ListCarryable: want %d, got %d", len(want), len(carry))
	}
	for _, a := range carry {
		if !want[a.ID] {
			t.Fatalf("ListCarryable: unexpected action %s (%s)", a.ID, a.Status)
		}
	}
	_ = closed
	_ = na
}

func TestActionRepoCloseLineage(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewActionRepo(db, testutil.Logger(t))

	baseID := uuid.New()
	v1 := testutil.SeedDocument(t, ctx, tx, baseID, 1, types.IssueStatusIssued)
	v2 := testutil.SeedDocument(t, ctx, tx, baseID, 2, types.IssueStatusDraft)

	root := testutil.SeedAction(t, ctx, tx, v1.ID, types.ActionStatusOpen)
	carried := &types.Action{
		ID:                    uuid.New(),
		DocumentID:            v2.ID,
		SourceDocumentID:      root.SourceDocumentID,
		OriginActionID:        testutil.PtrUUID(root.ID),
		CarriedFromDocumentID: testutil.PtrUUID(v1.ID),
		Description:           root.Description,
		Priority:              root.Priority,
		Status:                types.ActionStatusOpen,
		SourceType:            root.SourceType,
		CreatedBy:             root.CreatedBy,
	}
	if err := repo.Create(dbc, []*types.Action{carried}); err != nil {
		t.Fatalf("Create carried: %v", err)
	}

	lineage, err := repo.ListLineage(dbc, root.ID)
	if err != nil || len(lineage) != 2 {
		t.Fatalf("ListLineage: err=%v len=%d", err, len(lineage))
	}

	closer := uuid.New()
	changed, err := repo.CloseLineage(dbc, root.ID, closer, time.Now().UTC(), "remediated on site")
	if err != nil {
		t.Fatalf("CloseLineage: %v", err)
	}
	if len(changed) != 2 {
		t.Fatalf("CloseLineage: want 2 rows changed, got %d", len(changed))
	}

	for _, id := range []uuid.UUID{root.ID, carried.ID} {
		got, err := repo.GetByID(dbc, id)
		if err != nil {
			t.Fatalf("GetByID %s: %v", id, err)
		}
		if got.Status != types.ActionStatusClosed || got.ClosedAt == nil || got.ClosedBy == nil {
			t.Fatalf("action %s not closed: %+v", id, got)
		}
	}

	// A second close is a no-op.
	changed, err = repo.CloseLineage(dbc, root.ID, closer, time.Now().UTC(), "again")
	if err != nil || len(changed) != 0 {
		t.Fatalf("CloseLineage repeat: err=%v changed=%d", err, len(changed))
	}
}

func TestActionRepoHardDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewActionRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, uuid.New(), 1, types.IssueStatusDraft)
	a := testutil.SeedAction(t, ctx, tx, doc.ID, types.ActionStatusOpen)

	if err := repo.HardDelete(dbc, a.ID); err != nil {
		t.Fatalf("HardDelete: %v", err)
	}
	if _, err := repo.GetByID(dbc, a.ID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("GetByID after delete: want ErrNotFound, got %v", err)
	}
}
