package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/data/repos"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type CreateDocumentInput struct {
	Title     string
	Reference string
	Modules   datatypes.JSON
}

type UpdateDraftInput struct {
	Title            *string
	Reference        *string
	Modules          datatypes.JSON
	ExecutiveSummary *string
}

type IssueResult struct {
	DocumentID        uuid.UUID  `json:"document_id"`
	IssuedAt          time.Time  `json:"issued_at"`
	SupersededPriorID *uuid.UUID `json:"superseded_prior_id,omitempty"`
}

type NewVersionResult struct {
	NewDocumentID uuid.UUID `json:"new_document_id"`
	VersionNumber int       `json:"version_number"`
	CarriedCount  int       `json:"carried_count"`
}

type DocumentService interface {
	CreateDocument(ctx context.Context, userID uuid.UUID, input CreateDocumentInput) (*types.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*types.Document, error)
	GetFamily(ctx context.Context, baseID uuid.UUID) ([]*types.Document, error)
	ListLatest(ctx context.Context) ([]*types.Document, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, input UpdateDraftInput) (*types.Document, error)
	Issue(ctx context.Context, documentID, userID uuid.UUID) (*IssueResult, error)
	CreateNewVersion(ctx context.Context, baseDocumentID, userID uuid.UUID) (*NewVersionResult, error)
}

type documentService struct {
	db           *gorm.DB
	log          *logger.Logger
	documentRepo repos.DocumentRepo
	actionRepo   repos.ActionRepo
	ruleRepo     repos.TriggerRuleRepo
	validator    Validator
	render       RenderService
}

func NewDocumentService(
	db *gorm.DB,
	log *logger.Logger,
	documentRepo repos.DocumentRepo,
	actionRepo repos.ActionRepo,
	ruleRepo repos.TriggerRuleRepo,
	validator Validator,
	render RenderService,
) DocumentService {
	return &documentService{
		db:           db,
		log:          log.With("service", "DocumentService"),
		documentRepo: documentRepo,
		actionRepo:   actionRepo,
		ruleRepo:     ruleRepo,
		validator:    validator,
		render:       render,
	}
}

func (s *documentService) CreateDocument(ctx context.Context, userID uuid.UUID, input CreateDocumentInput) (*types.Document, error) {
	doc := &types.Document{
		ID:             uuid.New(),
		BaseDocumentID: uuid.New(),
		VersionNumber:  1,
		Title:          input.Title,
		Reference:      input.Reference,
		IssueStatus:    types.IssueStatusDraft,
		Modules:        input.Modules,
		CreatedBy:      userID,
	}
	if doc.Modules == nil {
		doc.Modules = datatypes.JSON([]byte(`{}`))
	}
	if err := s.documentRepo.Create(dbctx.New(ctx, nil), doc); err != nil {
		return nil, err
	}
	s.log.Info("document created", "document_id", doc.ID, "base_document_id", doc.BaseDocumentID)
	return doc, nil
}

func (s *documentService) GetDocument(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	return s.documentRepo.GetByID(dbctx.New(ctx, nil), id)
}

func (s *documentService) GetFamily(ctx context.Context, baseID uuid.UUID) ([]*types.Document, error) {
	return s.documentRepo.GetFamily(dbctx.New(ctx, nil), baseID)
}

func (s *documentService) ListLatest(ctx context.Context) ([]*types.Document, error) {
	return s.documentRepo.ListLatest(dbctx.New(ctx, nil))
}

func (s *documentService) UpdateDraft(ctx context.Context, id uuid.UUID, input UpdateDraftInput) (*types.Document, error) {
	fields := map[string]interface{}{}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.Reference != nil {
		fields["reference"] = *input.Reference
	}
	if input.Modules != nil {
		fields["modules"] = input.Modules
	}
	if input.ExecutiveSummary != nil {
		fields["executive_summary"] = *input.ExecutiveSummary
	}

	var out *types.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)
		doc, err := s.documentRepo.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return types.ErrDocumentLocked
		}
		if err := s.documentRepo.UpdateDraftFields(dbc, id, fields); err != nil {
			return err
		}
		out, err = s.documentRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Issue transitions a draft to issued and, when the family has a prior
// issued version, supersedes it in the same transaction. The family rows
// are locked first so two concurrent issuers serialize; the loser then
// fails its status-guarded update instead of double-superseding.
func (s *documentService) Issue(ctx context.Context, documentID, userID uuid.UUID) (*IssueResult, error) {
	var result *IssueResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)

		doc, err := s.documentRepo.GetByID(dbc, documentID)
		if err != nil {
			return err
		}
		if err := s.documentRepo.LockFamily(dbc, doc.BaseDocumentID); err != nil {
			return err
		}
		// Re-read after taking the lock; a concurrent issue may have
		// already transitioned this row.
		doc, err = s.documentRepo.GetByID(dbc, documentID)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return types.ErrDocumentLocked
		}
		if err := s.validator.ValidateForIssue(doc); err != nil {
			return err
		}

		prior, err := s.documentRepo.GetCurrentIssued(dbc, doc.BaseDocumentID)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		if err := s.documentRepo.MarkIssued(dbc, doc.ID, userID, now); err != nil {
			return err
		}

		result = &IssueResult{DocumentID: doc.ID, IssuedAt: now}
		if prior != nil {
			if err := s.documentRepo.MarkSuperseded(dbc, prior.ID, doc.ID, now); err != nil {
				return err
			}
			result.SupersededPriorID = &prior.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("document issued",
		"document_id", result.DocumentID,
		"issued_by", userID,
		"superseded_prior", result.SupersededPriorID != nil)

	// The canonical artifact is rendered after commit: the row is locked
	// now, so the render reads a stable document. A failure here leaves
	// the issue in place; the pack build will report the missing artifact
	// and the render can be repeated.
	if s.render != nil {
		if _, rErr := s.render.RenderDocument(ctx, result.DocumentID); rErr != nil {
			s.log.Warn("post-issue render failed", "document_id", result.DocumentID, "error", rErr)
		}
	}
	return result, nil
}

// CreateNewVersion clones the current issued version into a fresh draft
// and carries forward its still-open actions. The single-draft constraint
// backs the in-transaction check, so a racing second caller fails with
// DraftAlreadyExists either way.
func (s *documentService) CreateNewVersion(ctx context.Context, baseDocumentID, userID uuid.UUID) (*NewVersionResult, error) {
	var result *NewVersionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)

		if err := s.documentRepo.LockFamily(dbc, baseDocumentID); err != nil {
			return err
		}

		source, err := s.documentRepo.GetCurrentIssued(dbc, baseDocumentID)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				// Either an unknown family or one that was never issued.
				if _, famErr := s.documentRepo.GetDraft(dbc, baseDocumentID); famErr == nil {
					return types.ErrDocumentNotIssued
				}
				return types.ErrNotFound
			}
			return err
		}

		if _, err := s.documentRepo.GetDraft(dbc, baseDocumentID); err == nil {
			return types.ErrDraftAlreadyExists
		} else if !errors.Is(err, types.ErrNotFound) {
			return err
		}

		maxVersion, err := s.documentRepo.MaxVersionNumber(dbc, baseDocumentID)
		if err != nil {
			return err
		}

		// Content modules copy over; derived per-version fields (executive
		// summary, issue stamps) start fresh for the new version.
		next := &types.Document{
			ID:             uuid.New(),
			BaseDocumentID: baseDocumentID,
			VersionNumber:  maxVersion + 1,
			Title:          source.Title,
			Reference:      source.Reference,
			IssueStatus:    types.IssueStatusDraft,
			Modules:        source.Modules,
			CreatedBy:      userID,
		}
		if err := s.documentRepo.Create(dbc, next); err != nil {
			return err
		}

		carried, err := s.carryForward(dbc, source, next, userID)
		if err != nil {
			return err
		}

		result = &NewVersionResult{
			NewDocumentID: next.ID,
			VersionNumber: next.VersionNumber,
			CarriedCount:  carried,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("new version created",
		"base_document_id", baseDocumentID,
		"document_id", result.NewDocumentID,
		"version", result.VersionNumber,
		"carried_actions", result.CarriedCount)
	return result, nil
}

// carryForward copies every still-open action from the source version
// onto the new draft. The first carried copy establishes the lineage
// root; later copies keep pointing at it.
func (s *documentService) carryForward(dbc dbctx.Context, source, next *types.Document, userID uuid.UUID) (int, error) {
	open, err := s.actionRepo.ListCarryable(dbc, source.ID)
	if err != nil {
		return 0, err
	}
	if len(open) == 0 {
		return 0, nil
	}

	ruleCache := map[uuid.UUID]*types.TriggerRule{}
	copies := make([]*types.Action, 0, len(open))
	for _, a := range open {
		root := a.LineageRoot()
		cp := &types.Action{
			ID:                    uuid.New(),
			DocumentID:            next.ID,
			SourceDocumentID:      a.SourceDocumentID,
			OriginActionID:        &root,
			CarriedFromDocumentID: &source.ID,
			Reference:             a.Reference,
			Description:           a.Description,
			Recommendation:        a.Recommendation,
			Priority:              a.Priority,
			Status:                a.Status,
			Owner:                 a.Owner,
			DueDate:               a.DueDate,
			SourceType:            a.SourceType,
			LibraryID:             a.LibraryID,
			CreatedBy:             userID,
		}
		if key, err := s.carriedTriggerKey(dbc, a, next.ID, ruleCache); err != nil {
			return 0, err
		} else if key != nil {
			cp.TriggerKey = key
		}
		copies = append(copies, cp)
	}
	if err := s.actionRepo.Create(dbc, copies); err != nil {
		return 0, err
	}
	return len(copies), nil
}

// carriedTriggerKey recomputes an auto action's trigger key against the
// new document id, so a later recommendation pass on the new draft finds
// the carried copy instead of creating a duplicate.
func (s *documentService) carriedTriggerKey(dbc dbctx.Context, a *types.Action, nextDocID uuid.UUID, cache map[uuid.UUID]*types.TriggerRule) (*string, error) {
	if a.SourceType != types.ActionSourceAuto || a.LibraryID == nil {
		return nil, nil
	}
	rule, ok := cache[*a.LibraryID]
	if !ok {
		var err error
		rule, err = s.ruleRepo.GetByID(dbc, *a.LibraryID)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				// Library entry retired since the action was created; keep
				// the action but give it no key on the new version.
				cache[*a.LibraryID] = nil
				return nil, nil
			}
			return nil, fmt.Errorf("failed to resolve library rule: %w", err)
		}
		cache[*a.LibraryID] = rule
	}
	if rule == nil {
		return nil, nil
	}
	key := TriggerKey(nextDocID, rule.SourceModuleKey, rule.SourceFactorKey)
	return &key, nil
}
