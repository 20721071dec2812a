package evidence

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/clearform/assurance-backend/internal/data/repos/testutil"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
)

func TestEvidenceFileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewEvidenceFileRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, ctx, tx, uuid.New(), 1, types.IssueStatusDraft)
	other := testutil.SeedDocument(t, ctx, tx, uuid.New(), 1, types.IssueStatusDraft)

	rows := []*types.EvidenceFile{
		{
			ID:          uuid.New(),
			DocumentID:  doc.ID,
			FileName:    "alarm-test-certificate.pdf",
			ContentType: "application/pdf",
			SizeBytes:   1024,
			UploadedBy:  uuid.New(),
		},
		{
			ID:          uuid.New(),
			DocumentID:  doc.ID,
			FileName:    "extinguisher-service-record.pdf",
			ContentType: "application/pdf",
			SizeBytes:   2048,
			UploadedBy:  uuid.New(),
		},
	}
	if err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}
	testutil.SeedEvidenceFile(t, ctx, tx, other.ID, "unrelated.pdf")

	got, err := repo.ListByDocumentID(dbc, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocumentID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByDocumentID: want 2, got %d", len(got))
	}
	for _, ev := range got {
		if ev.UploadedAt.IsZero() {
			t.Fatalf("ListByDocumentID: uploaded_at not stamped")
		}
	}
}
