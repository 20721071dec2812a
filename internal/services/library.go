package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/clients/redis"
	"github.com/clearform/assurance-backend/internal/data/repos"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

// LibraryService exposes the trigger rule library to the read surface
// and keeps the cache honest when rules are toggled.
type LibraryService interface {
	ListActiveRules(ctx context.Context) ([]*types.TriggerRule, error)
	SetRuleActive(ctx context.Context, id uuid.UUID, active bool) (*types.TriggerRule, error)
}

type libraryService struct {
	db        *gorm.DB
	log       *logger.Logger
	ruleRepo  repos.TriggerRuleRepo
	ruleCache redis.RuleCache
}

func NewLibraryService(db *gorm.DB, log *logger.Logger, ruleRepo repos.TriggerRuleRepo, ruleCache redis.RuleCache) LibraryService {
	return &libraryService{
		db:        db,
		log:       log.With("service", "LibraryService"),
		ruleRepo:  ruleRepo,
		ruleCache: ruleCache,
	}
}

func (s *libraryService) ListActiveRules(ctx context.Context) ([]*types.TriggerRule, error) {
	return s.ruleRepo.ListActive(dbctx.New(ctx, nil))
}

func (s *libraryService) SetRuleActive(ctx context.Context, id uuid.UUID, active bool) (*types.TriggerRule, error) {
	dbc := dbctx.New(ctx, nil)
	if _, err := s.ruleRepo.GetByID(dbc, id); err != nil {
		return nil, err
	}
	if err := s.ruleRepo.SetActive(dbc, id, active); err != nil {
		return nil, err
	}
	if s.ruleCache != nil {
		if err := s.ruleCache.Invalidate(ctx); err != nil {
			s.log.Warn("rule cache invalidation failed", "error", err)
		}
	}
	return s.ruleRepo.GetByID(dbc, id)
}
