package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/clearform/assurance-backend/internal/domain"
)

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, baseID uuid.UUID, version int, status string) *types.Document {
	tb.Helper()
	doc := &types.Document{
		ID:             uuid.New(),
		BaseDocumentID: baseID,
		VersionNumber:  version,
		Title:          "Fire Safety Assessment",
		Reference:      "FSA-001",
		IssueStatus:    status,
		Modules:        datatypes.JSON([]byte(`{}`)),
		CreatedBy:      uuid.New(),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if status == types.IssueStatusIssued || status == types.IssueStatusSuperseded {
		now := time.Now().UTC()
		by := uuid.New()
		doc.IssueDate = &now
		doc.IssuedBy = &by
	}
	if err := tx.WithContext(ctx).Create(doc).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return doc
}

func SeedAction(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID uuid.UUID, status string) *types.Action {
	tb.Helper()
	a := &types.Action{
		ID:               uuid.New(),
		DocumentID:       documentID,
		SourceDocumentID: documentID,
		Description:      "Install emergency lighting on stairwell",
		Recommendation:   "Fit maintained luminaires at each landing",
		Priority:         types.PriorityMedium,
		Status:           status,
		SourceType:       types.ActionSourceManual,
		CreatedBy:        uuid.New(),
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed action: %v", err)
	}
	return a
}

func SeedAutoAction(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID uuid.UUID, triggerKey string) *types.Action {
	tb.Helper()
	a := &types.Action{
		ID:               uuid.New(),
		DocumentID:       documentID,
		SourceDocumentID: documentID,
		Description:      "Review means of escape provision",
		Priority:         types.PriorityHigh,
		Status:           types.ActionStatusOpen,
		SourceType:       types.ActionSourceAuto,
		TriggerKey:       &triggerKey,
		CreatedBy:        uuid.New(),
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed auto action: %v", err)
	}
	return a
}

func SeedTriggerRule(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleKey, factorKey string, threshold int) *types.TriggerRule {
	tb.Helper()
	r := &types.TriggerRule{
		ID:                     uuid.New(),
		SourceModuleKey:        moduleKey,
		SourceFactorKey:        factorKey,
		TriggerRatingThreshold: threshold,
		Title:                  "Rated below acceptable",
		DefaultText:            "Remediate the deficiency identified during assessment",
		DefaultPriority:        types.PriorityMedium,
		Active:                 true,
		CreatedAt:              time.Now().UTC(),
		UpdatedAt:              time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed trigger rule: %v", err)
	}
	return r
}

func SeedRenderedArtifact(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID uuid.UUID) *types.RenderedArtifact {
	tb.Helper()
	ra := &types.RenderedArtifact{
		ID:          uuid.New(),
		DocumentID:  documentID,
		StorageKey:  "artifacts/" + documentID.String() + ".json",
		ContentType: "application/json",
		Checksum:    "deadbeef",
		SizeBytes:   64,
		RenderedAt:  time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(ra).Error; err != nil {
		tb.Fatalf("seed rendered artifact: %v", err)
	}
	return ra
}

func SeedEvidenceFile(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID uuid.UUID, name string) *types.EvidenceFile {
	tb.Helper()
	ev := &types.EvidenceFile{
		ID:          uuid.New(),
		DocumentID:  documentID,
		FileName:    name,
		ContentType: "application/pdf",
		SizeBytes:   1024,
		UploadedBy:  uuid.New(),
		UploadedAt:  time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(ev).Error; err != nil {
		tb.Fatalf("seed evidence file: %v", err)
	}
	return ev
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrString(v string) *string { return &v }
