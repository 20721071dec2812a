package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/data/repos"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type CreateActionInput struct {
	Reference      string
	Description    string
	Recommendation string
	Priority       string
	Owner          string
	DueDate        *time.Time
}

type UpdateActionInput struct {
	Reference      *string
	Description    *string
	Recommendation *string
	Priority       *string
	Status         *string
	Owner          *string
	DueDate        *time.Time
}

type CloseResult struct {
	ClosedActionIDs []uuid.UUID `json:"closed_action_ids"`
}

type ActionService interface {
	CreateAction(ctx context.Context, documentID, userID uuid.UUID, input CreateActionInput) (*types.Action, error)
	GetAction(ctx context.Context, id uuid.UUID) (*types.Action, error)
	ListActions(ctx context.Context, documentID uuid.UUID, includeSuppressed bool) ([]*types.Action, error)
	UpdateAction(ctx context.Context, id uuid.UUID, input UpdateActionInput) (*types.Action, error)
	// CloseAction closes every copy of the logical item across all
	// versions and reports which rows changed.
	CloseAction(ctx context.Context, actionID, userID uuid.UUID, notes string) (*CloseResult, error)
	// DeleteAction hard-deletes a manual action; an auto action is
	// suppressed instead so the trigger engine never recreates it.
	DeleteAction(ctx context.Context, actionID uuid.UUID) error
	Unsuppress(ctx context.Context, actionID uuid.UUID) (*types.Action, error)
}

type actionService struct {
	db           *gorm.DB
	log          *logger.Logger
	documentRepo repos.DocumentRepo
	actionRepo   repos.ActionRepo
}

func NewActionService(
	db *gorm.DB,
	log *logger.Logger,
	documentRepo repos.DocumentRepo,
	actionRepo repos.ActionRepo,
) ActionService {
	return &actionService{
		db:           db,
		log:          log.With("service", "ActionService"),
		documentRepo: documentRepo,
		actionRepo:   actionRepo,
	}
}

func (s *actionService) CreateAction(ctx context.Context, documentID, userID uuid.UUID, input CreateActionInput) (*types.Action, error) {
	if input.Description == "" {
		return nil, &types.ValidationError{Reasons: []string{"action description is required"}}
	}
	priority := input.Priority
	switch priority {
	case "":
		priority = types.PriorityMedium
	case types.PriorityHigh, types.PriorityMedium, types.PriorityLow:
	default:
		return nil, &types.ValidationError{Reasons: []string{"unknown priority " + priority}}
	}

	var out *types.Action
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)
		doc, err := s.documentRepo.GetByID(dbc, documentID)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return types.ErrDocumentLocked
		}

		out = &types.Action{
			ID:               uuid.New(),
			DocumentID:       documentID,
			SourceDocumentID: documentID,
			Reference:        input.Reference,
			Description:      input.Description,
			Recommendation:   input.Recommendation,
			Priority:         priority,
			Status:           types.ActionStatusOpen,
			Owner:            input.Owner,
			DueDate:          input.DueDate,
			SourceType:       types.ActionSourceManual,
			CreatedBy:        userID,
		}
		return s.actionRepo.Create(dbc, []*types.Action{out})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *actionService) GetAction(ctx context.Context, id uuid.UUID) (*types.Action, error) {
	return s.actionRepo.GetByID(dbctx.New(ctx, nil), id)
}

func (s *actionService) ListActions(ctx context.Context, documentID uuid.UUID, includeSuppressed bool) ([]*types.Action, error) {
	return s.actionRepo.ListByDocumentID(dbctx.New(ctx, nil), documentID, includeSuppressed)
}

func (s *actionService) UpdateAction(ctx context.Context, id uuid.UUID, input UpdateActionInput) (*types.Action, error) {
	fields := map[string]interface{}{}
	if input.Reference != nil {
		fields["reference"] = *input.Reference
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Recommendation != nil {
		fields["recommendation"] = *input.Recommendation
	}
	if input.Priority != nil {
		switch *input.Priority {
		case types.PriorityHigh, types.PriorityMedium, types.PriorityLow:
			fields["priority"] = *input.Priority
		default:
			return nil, &types.ValidationError{Reasons: []string{"unknown priority " + *input.Priority}}
		}
	}
	if input.Status != nil {
		switch *input.Status {
		case types.ActionStatusOpen, types.ActionStatusInProgress,
			types.ActionStatusDeferred, types.ActionStatusNotApplicable:
			fields["status"] = *input.Status
		case types.ActionStatusClosed:
			// Closing goes through CloseAction so the whole lineage moves.
			return nil, &types.ValidationError{Reasons: []string{"use the close operation to close an action"}}
		default:
			return nil, &types.ValidationError{Reasons: []string{"unknown status " + *input.Status}}
		}
	}
	if input.Owner != nil {
		fields["owner"] = *input.Owner
	}
	if input.DueDate != nil {
		fields["due_date"] = *input.DueDate
	}

	var out *types.Action
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)
		if _, err := s.actionRepo.GetByID(dbc, id); err != nil {
			return err
		}
		if err := s.actionRepo.UpdateFields(dbc, id, fields); err != nil {
			return err
		}
		var err error
		out, err = s.actionRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *actionService) CloseAction(ctx context.Context, actionID, userID uuid.UUID, notes string) (*CloseResult, error) {
	var result *CloseResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)
		act, err := s.actionRepo.GetByID(dbc, actionID)
		if err != nil {
			return err
		}
		closed, err := s.actionRepo.CloseLineage(dbc, act.LineageRoot(), userID, time.Now().UTC(), notes)
		if err != nil {
			return err
		}
		result = &CloseResult{ClosedActionIDs: closed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("action lineage closed",
		"action_id", actionID,
		"closed_count", len(result.ClosedActionIDs),
		"closed_by", userID)
	return result, nil
}

func (s *actionService) DeleteAction(ctx context.Context, actionID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)
		act, err := s.actionRepo.GetByID(dbc, actionID)
		if err != nil {
			return err
		}
		doc, err := s.documentRepo.GetByID(dbc, act.DocumentID)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return types.ErrDocumentLocked
		}
		if act.SourceType == types.ActionSourceAuto {
			return s.actionRepo.SetSuppressed(dbc, actionID, true)
		}
		return s.actionRepo.HardDelete(dbc, actionID)
	})
}

func (s *actionService) Unsuppress(ctx context.Context, actionID uuid.UUID) (*types.Action, error) {
	var out *types.Action
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)
		act, err := s.actionRepo.GetByID(dbc, actionID)
		if err != nil {
			return err
		}
		if act.SourceType != types.ActionSourceAuto || !act.IsSuppressed {
			return &types.ValidationError{Reasons: []string{"action is not a suppressed auto recommendation"}}
		}
		if err := s.actionRepo.SetSuppressed(dbc, actionID, false); err != nil {
			return err
		}
		out, err = s.actionRepo.GetByID(dbc, actionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
