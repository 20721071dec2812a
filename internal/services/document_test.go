package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/data/repos"
	"github.com/clearform/assurance-backend/internal/data/repos/testutil"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
)

type documentHarness struct {
	db           *gorm.DB
	documents    DocumentService
	actions      ActionService
	documentRepo repos.DocumentRepo
	actionRepo   repos.ActionRepo
}

func newDocumentHarness(t *testing.T) *documentHarness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	documentRepo := repos.NewDocumentRepo(db, log)
	actionRepo := repos.NewActionRepo(db, log)
	ruleRepo := repos.NewTriggerRuleRepo(db, log)
	validator := NewModuleValidator(log)

	return &documentHarness{
		db:           db,
		documents:    NewDocumentService(db, log, documentRepo, actionRepo, ruleRepo, validator, nil),
		actions:      NewActionService(db, log, documentRepo, actionRepo),
		documentRepo: documentRepo,
		actionRepo:   actionRepo,
	}
}

func (h *documentHarness) createDraft(t *testing.T, ctx context.Context, userID uuid.UUID) *types.Document {
	t.Helper()
	doc, err := h.documents.CreateDocument(ctx, userID, CreateDocumentInput{
		Title:     "Fire Safety Assessment",
		Reference: "FSA-" + uuid.NewString()[:8],
		Modules:   datatypes.JSON([]byte(`{"means_of_escape":{"rating":2,"notes":"ok"}}`)),
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	return doc
}

func TestDocumentLifecycle(t *testing.T) {
	h := newDocumentHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	v1 := h.createDraft(t, ctx, userID)

	// Scenario 1: issue v1.
	issued, err := h.documents.Issue(ctx, v1.ID, userID)
	if err != nil {
		t.Fatalf("Issue v1: %v", err)
	}
	if issued.SupersededPriorID != nil {
		t.Fatalf("Issue v1: unexpected supersession")
	}
	got, err := h.documents.GetDocument(ctx, v1.ID)
	if err != nil || got.IssueStatus != types.IssueStatusIssued {
		t.Fatalf("v1 status: err=%v status=%s", err, got.IssueStatus)
	}

	// An open action on v1 for the carry-forward scenario, plus a closed
	// one that must stay behind.
	openAct, err := h.actions.CreateAction(ctx, v1.ID, userID, CreateActionInput{
		Description: "Fit intumescent strips to stairwell doors",
		Priority:    types.PriorityHigh,
	})
	// CreateAction rejects locked documents, so seed directly.
	if !errors.Is(err, types.ErrDocumentLocked) {
		t.Fatalf("CreateAction on issued: want ErrDocumentLocked, got %v", err)
	}
	openAct = &types.Action{
		ID:               uuid.New(),
		DocumentID:       v1.ID,
		SourceDocumentID: v1.ID,
		Description:      "Fit intumescent strips to stairwell doors",
		Priority:         types.PriorityHigh,
		Status:           types.ActionStatusOpen,
		SourceType:       types.ActionSourceManual,
		CreatedBy:        userID,
	}
	closedAct := &types.Action{
		ID:               uuid.New(),
		DocumentID:       v1.ID,
		SourceDocumentID: v1.ID,
		Description:      "Replace broken exit sign",
		Priority:         types.PriorityLow,
		Status:           types.ActionStatusClosed,
		SourceType:       types.ActionSourceManual,
		CreatedBy:        userID,
	}
	if err := h.actionRepo.Create(dbctx.New(ctx, nil), []*types.Action{openAct, closedAct}); err != nil {
		t.Fatalf("seed actions: %v", err)
	}

	// Scenario 2: create v2; a second attempt hits the draft invariant.
	v2res, err := h.documents.CreateNewVersion(ctx, v1.BaseDocumentID, userID)
	if err != nil {
		t.Fatalf("CreateNewVersion: %v", err)
	}
	if v2res.VersionNumber != 2 || v2res.CarriedCount != 1 {
		t.Fatalf("CreateNewVersion: %+v", v2res)
	}
	if _, err := h.documents.CreateNewVersion(ctx, v1.BaseDocumentID, userID); !errors.Is(err, types.ErrDraftAlreadyExists) {
		t.Fatalf("second CreateNewVersion: want ErrDraftAlreadyExists, got %v", err)
	}

	// Scenario 3: the carried copy roots its lineage at the v1 action.
	carried, err := h.actions.ListActions(ctx, v2res.NewDocumentID, false)
	if err != nil || len(carried) != 1 {
		t.Fatalf("carried actions: err=%v len=%d", err, len(carried))
	}
	cp := carried[0]
	if cp.OriginActionID == nil || *cp.OriginActionID != openAct.ID {
		t.Fatalf("carried origin: %+v", cp)
	}
	if cp.SourceDocumentID != v1.ID || cp.CarriedFromDocumentID == nil || *cp.CarriedFromDocumentID != v1.ID {
		t.Fatalf("carried provenance: %+v", cp)
	}
	if cp.Status != types.ActionStatusOpen {
		t.Fatalf("carried status: %s", cp.Status)
	}

	// Scenario 4: issuing v2 supersedes v1.
	issued2, err := h.documents.Issue(ctx, v2res.NewDocumentID, userID)
	if err != nil {
		t.Fatalf("Issue v2: %v", err)
	}
	if issued2.SupersededPriorID == nil || *issued2.SupersededPriorID != v1.ID {
		t.Fatalf("Issue v2: prior not superseded: %+v", issued2)
	}
	v1After, err := h.documents.GetDocument(ctx, v1.ID)
	if err != nil {
		t.Fatalf("get v1: %v", err)
	}
	if v1After.IssueStatus != types.IssueStatusSuperseded {
		t.Fatalf("v1 status after issue v2: %s", v1After.IssueStatus)
	}
	if v1After.SupersededByDocumentID == nil || *v1After.SupersededByDocumentID != v2res.NewDocumentID {
		t.Fatalf("v1 superseded_by: %+v", v1After)
	}

	// Scenario 5: closing the v2 copy closes the v1 record too.
	closeRes, err := h.actions.CloseAction(ctx, cp.ID, userID, "strips fitted")
	if err != nil {
		t.Fatalf("CloseAction: %v", err)
	}
	if len(closeRes.ClosedActionIDs) != 2 {
		t.Fatalf("CloseAction: want 2 closed, got %d", len(closeRes.ClosedActionIDs))
	}
	v1Copy, err := h.actionRepo.GetByID(dbctx.New(ctx, nil), openAct.ID)
	if err != nil || v1Copy.Status != types.ActionStatusClosed {
		t.Fatalf("v1 copy after close: err=%v status=%s", err, v1Copy.Status)
	}

	// Scenario 6: editing the superseded v1 fails.
	title := "tampered"
	if _, err := h.documents.UpdateDraft(ctx, v1.ID, UpdateDraftInput{Title: &title}); !errors.Is(err, types.ErrDocumentLocked) {
		t.Fatalf("UpdateDraft on superseded: want ErrDocumentLocked, got %v", err)
	}
}

func TestIssueValidation(t *testing.T) {
	h := newDocumentHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	doc, err := h.documents.CreateDocument(ctx, userID, CreateDocumentInput{
		Title: "Empty Assessment",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := h.documents.Issue(ctx, doc.ID, userID); !errors.Is(err, types.ErrValidationFailed) {
		t.Fatalf("Issue empty: want ErrValidationFailed, got %v", err)
	}

	// Still a draft after the failed issue.
	got, err := h.documents.GetDocument(ctx, doc.ID)
	if err != nil || got.IssueStatus != types.IssueStatusDraft {
		t.Fatalf("status after failed issue: err=%v status=%s", err, got.IssueStatus)
	}
}

func TestCreateNewVersionRequiresIssued(t *testing.T) {
	h := newDocumentHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	draft := h.createDraft(t, ctx, userID)
	if _, err := h.documents.CreateNewVersion(ctx, draft.BaseDocumentID, userID); !errors.Is(err, types.ErrDocumentNotIssued) {
		t.Fatalf("CreateNewVersion on never-issued family: want ErrDocumentNotIssued, got %v", err)
	}
	if _, err := h.documents.CreateNewVersion(ctx, uuid.New(), userID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("CreateNewVersion on unknown family: want ErrNotFound, got %v", err)
	}
}

func TestNewVersionResetsDerivedFields(t *testing.T) {
	h := newDocumentHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	v1 := h.createDraft(t, ctx, userID)
	summary := "v1 paints a poor picture"
	if _, err := h.documents.UpdateDraft(ctx, v1.ID, UpdateDraftInput{ExecutiveSummary: &summary}); err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if _, err := h.documents.Issue(ctx, v1.ID, userID); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	v2res, err := h.documents.CreateNewVersion(ctx, v1.BaseDocumentID, userID)
	if err != nil {
		t.Fatalf("CreateNewVersion: %v", err)
	}
	v2, err := h.documents.GetDocument(ctx, v2res.NewDocumentID)
	if err != nil {
		t.Fatalf("get v2: %v", err)
	}
	if v2.ExecutiveSummary != "" {
		t.Fatalf("executive summary copied to new version: %q", v2.ExecutiveSummary)
	}
	if v2.IssueDate != nil || v2.IssuedBy != nil {
		t.Fatalf("issue stamps copied to new version")
	}
	if string(v2.Modules) == "" || string(v2.Modules) == "{}" {
		t.Fatalf("content modules not copied")
	}
}
