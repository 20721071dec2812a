package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/clearform/assurance-backend/internal/clients/storage"
	"github.com/clearform/assurance-backend/internal/data/repos"
	"github.com/clearform/assurance-backend/internal/data/repos/testutil"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
)

func TestAssembleBundle(t *testing.T) {
	log := testutil.Logger(t)
	svc := &packService{log: log}

	issueDate := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := &types.Document{
		ID:            uuid.New(),
		VersionNumber: 2,
		IssueDate:     &issueDate,
	}
	summary := &ChangeSummary{ToDocumentID: doc.ID, ToVersion: 2, ChangedModules: []string{"fire_detection"}}
	actions := []*types.Action{{
		ID:          uuid.New(),
		Description: "Extend detection coverage",
		Priority:    types.PriorityMedium,
		Status:      types.ActionStatusOpen,
		SourceType:  types.ActionSourceAuto,
	}}
	evidence := []*types.EvidenceFile{{
		FileName:    "alarm-test.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		UploadedAt:  issueDate,
	}}
	artifactBytes := []byte(`{"id":"x"}`)

	bundle, manifest, err := svc.assembleBundle(doc, artifactBytes, summary, actions, evidence)
	if err != nil {
		t.Fatalf("assembleBundle: %v", err)
	}
	if manifest.ActionCount != 1 || manifest.EvidenceCount != 1 {
		t.Fatalf("manifest counts: %+v", manifest)
	}
	if len(manifest.Entries) != 4 {
		t.Fatalf("manifest entries: want 4, got %d", len(manifest.Entries))
	}

	zr, err := zip.NewReader(bytes.NewReader(bundle), int64(len(bundle)))
	if err != nil {
		t.Fatalf("zip open: %v", err)
	}
	names := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("zip entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("zip read %s: %v", f.Name, err)
		}
		names[f.Name] = data
	}
	for _, want := range []string{"document.json", "change_summary.json", "actions.json", "evidence.json", "manifest.json"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("bundle missing %s", want)
		}
	}
	if !bytes.Equal(names["document.json"], artifactBytes) {
		t.Fatalf("artifact bytes altered in bundle")
	}

	var snaps []actionSnapshot
	if err := json.Unmarshal(names["actions.json"], &snaps); err != nil || len(snaps) != 1 {
		t.Fatalf("actions.json: err=%v len=%d", err, len(snaps))
	}
	if snaps[0].Description != "Extend detection coverage" {
		t.Fatalf("actions.json: %+v", snaps[0])
	}
}

type packHarness struct {
	documents DocumentService
	actions   ActionService
	packs     PackService
	render    RenderService
	evidence  EvidenceService
}

func newPackHarness(t *testing.T) *packHarness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	bucket, err := storage.NewLocalBucketService(t.TempDir(), log)
	if err != nil {
		t.Fatalf("local bucket: %v", err)
	}

	documentRepo := repos.NewDocumentRepo(db, log)
	actionRepo := repos.NewActionRepo(db, log)
	ruleRepo := repos.NewTriggerRuleRepo(db, log)
	packRepo := repos.NewDefencePackRepo(db, log)
	artifactRepo := repos.NewRenderedArtifactRepo(db, log)
	evidenceRepo := repos.NewEvidenceFileRepo(db, log)

	render := NewRenderService(db, log, documentRepo, artifactRepo, bucket)
	return &packHarness{
		documents: NewDocumentService(db, log, documentRepo, actionRepo, ruleRepo, NewModuleValidator(log), render),
		actions:   NewActionService(db, log, documentRepo, actionRepo),
		packs:     NewPackService(db, log, documentRepo, actionRepo, packRepo, artifactRepo, evidenceRepo, bucket),
		render:    render,
		evidence:  NewEvidenceService(db, log, documentRepo, evidenceRepo),
	}
}

func TestBuildDefencePack(t *testing.T) {
	h := newPackHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	doc, err := h.documents.CreateDocument(ctx, userID, CreateDocumentInput{
		Title:   "Fire Safety Assessment",
		Modules: datatypes.JSON([]byte(`{"means_of_escape":{"rating":2}}`)),
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := h.actions.CreateAction(ctx, doc.ID, userID, CreateActionInput{
		Description: "Fit self-closers",
	}); err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	if _, err := h.evidence.AddEvidence(ctx, doc.ID, userID, AddEvidenceInput{
		FileName:    "door-survey.pdf",
		ContentType: "application/pdf",
		SizeBytes:   4096,
	}); err != nil {
		t.Fatalf("AddEvidence: %v", err)
	}

	// Draft documents cannot be packed.
	if _, err := h.packs.BuildDefencePack(ctx, doc.ID, userID); !errors.Is(err, types.ErrDocumentNotIssued) {
		t.Fatalf("BuildDefencePack on draft: want ErrDocumentNotIssued, got %v", err)
	}

	if _, err := h.documents.Issue(ctx, doc.ID, userID); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	pack, err := h.packs.BuildDefencePack(ctx, doc.ID, userID)
	if err != nil {
		t.Fatalf("BuildDefencePack: %v", err)
	}
	if pack.ActionCount != 1 || pack.EvidenceCount != 1 {
		t.Fatalf("pack counts: %+v", pack)
	}
	if pack.Checksum == "" || pack.SizeBytes == 0 {
		t.Fatalf("pack not checksummed: %+v", pack)
	}

	// Idempotency: a second build returns the identical pack.
	again, err := h.packs.BuildDefencePack(ctx, doc.ID, userID)
	if err != nil {
		t.Fatalf("BuildDefencePack second: %v", err)
	}
	if again.ID != pack.ID || again.Checksum != pack.Checksum {
		t.Fatalf("second build differs: %s/%s vs %s/%s", again.ID, again.Checksum, pack.ID, pack.Checksum)
	}

	// Immutability: closing an action afterwards leaves the pack alone.
	acts, err := h.actions.ListActions(ctx, doc.ID, false)
	if err != nil || len(acts) != 1 {
		t.Fatalf("list actions: err=%v len=%d", err, len(acts))
	}
	if _, err := h.actions.CloseAction(ctx, acts[0].ID, userID, "done"); err != nil {
		t.Fatalf("CloseAction: %v", err)
	}
	after, err := h.packs.GetPack(ctx, pack.ID)
	if err != nil {
		t.Fatalf("GetPack: %v", err)
	}
	if after.Checksum != pack.Checksum || !bytes.Equal(after.Manifest, pack.Manifest) {
		t.Fatalf("pack mutated after close")
	}

	// The stored bundle verifies against its checksum.
	verdict, err := h.packs.VerifyPack(ctx, pack.ID)
	if err != nil {
		t.Fatalf("VerifyPack: %v", err)
	}
	if !verdict.Valid {
		t.Fatalf("VerifyPack: checksum mismatch: %+v", verdict)
	}
}

func TestBuildDefencePackMissingArtifact(t *testing.T) {
	h := newPackHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	db := testutil.DB(t)
	log := testutil.Logger(t)
	documentRepo := repos.NewDocumentRepo(db, log)

	// An issued row with no rendered artifact registered.
	doc := testutil.SeedDocument(t, ctx, db, uuid.New(), 1, types.IssueStatusIssued)
	if _, err := documentRepo.GetByID(dbctx.New(ctx, nil), doc.ID); err != nil {
		t.Fatalf("seed visibility: %v", err)
	}

	if _, err := h.packs.BuildDefencePack(ctx, doc.ID, userID); !errors.Is(err, types.ErrRenderedArtifactMissing) {
		t.Fatalf("BuildDefencePack: want ErrRenderedArtifactMissing, got %v", err)
	}
}
