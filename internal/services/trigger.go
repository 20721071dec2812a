package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/clients/redis"
	"github.com/clearform/assurance-backend/internal/data/repos"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

// TriggerKey derives the stable identity of one (document, rule)
// pairing. The rating is deliberately not part of the key: a later
// rating change re-uses the same action instead of duplicating it.
func TriggerKey(documentID uuid.UUID, moduleKey, factorKey string) string {
	sum := sha256.Sum256([]byte(documentID.String() + "|" + moduleKey + "|" + factorKey))
	return hex.EncodeToString(sum[:])
}

type RegenerateResult struct {
	Created []uuid.UUID `json:"created"`
	Skipped int         `json:"skipped"`
}

type TriggerService interface {
	// RegenerateRecommendations reconciles the draft's auto actions with
	// the rule library against the given ratings. Safe to call after
	// every rating change: existing keys are refreshed, suppressed keys
	// are left alone, and nothing is ever duplicated.
	RegenerateRecommendations(ctx context.Context, documentID, userID uuid.UUID, ratings []types.FactorRating) (*RegenerateResult, error)
}

type triggerService struct {
	db           *gorm.DB
	log          *logger.Logger
	documentRepo repos.DocumentRepo
	actionRepo   repos.ActionRepo
	ruleRepo     repos.TriggerRuleRepo
	ruleCache    redis.RuleCache
}

// NewTriggerService builds the engine. ruleCache may be nil; every rule
// read then goes straight to the database.
func NewTriggerService(
	db *gorm.DB,
	log *logger.Logger,
	documentRepo repos.DocumentRepo,
	actionRepo repos.ActionRepo,
	ruleRepo repos.TriggerRuleRepo,
	ruleCache redis.RuleCache,
) TriggerService {
	return &triggerService{
		db:           db,
		log:          log.With("service", "TriggerService"),
		documentRepo: documentRepo,
		actionRepo:   actionRepo,
		ruleRepo:     ruleRepo,
		ruleCache:    ruleCache,
	}
}

func (s *triggerService) RegenerateRecommendations(ctx context.Context, documentID, userID uuid.UUID, ratings []types.FactorRating) (*RegenerateResult, error) {
	rules, err := s.activeRules(ctx)
	if err != nil {
		return nil, err
	}

	result := &RegenerateResult{Created: []uuid.UUID{}}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)

		doc, err := s.documentRepo.GetByID(dbc, documentID)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return types.ErrDocumentLocked
		}

		for _, rule := range rules {
			fired := false
			for _, fr := range ratings {
				if rule.Matches(fr) {
					fired = true
					break
				}
			}
			if !fired {
				result.Skipped++
				continue
			}

			key := TriggerKey(documentID, rule.SourceModuleKey, rule.SourceFactorKey)
			existing, err := s.actionRepo.GetByTriggerKey(dbc, documentID, key)
			switch {
			case err == nil:
				if existing.IsSuppressed {
					// The user removed this one; never resurrect it.
					result.Skipped++
					continue
				}
				// Refresh presentation fields; identity, status and
				// history stay untouched.
				if err := s.actionRepo.UpdateFields(dbc, existing.ID, map[string]interface{}{
					"priority":       rule.DefaultPriority,
					"recommendation": rule.DefaultText,
				}); err != nil {
					return err
				}
				result.Skipped++
			case errors.Is(err, types.ErrNotFound):
				newID := uuid.New()
				created, err := s.actionRepo.CreateIfAbsent(dbc, &types.Action{
					ID:               newID,
					DocumentID:       documentID,
					SourceDocumentID: documentID,
					Description:      rule.Title,
					Recommendation:   rule.DefaultText,
					Priority:         rule.DefaultPriority,
					Status:           types.ActionStatusOpen,
					SourceType:       types.ActionSourceAuto,
					LibraryID:        &rule.ID,
					TriggerKey:       &key,
					CreatedBy:        userID,
				})
				if err != nil {
					return err
				}
				if created {
					result.Created = append(result.Created, newID)
				} else {
					// A concurrent edit inserted the same key first.
					result.Skipped++
				}
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("recommendations regenerated",
		"document_id", documentID,
		"created", len(result.Created),
		"skipped", result.Skipped)
	return result, nil
}

// activeRules reads the library through the cache when one is wired.
func (s *triggerService) activeRules(ctx context.Context) ([]*types.TriggerRule, error) {
	if s.ruleCache != nil {
		if rules, ok := s.ruleCache.GetActiveRules(ctx); ok {
			return rules, nil
		}
	}
	rules, err := s.ruleRepo.ListActive(dbctx.New(ctx, nil))
	if err != nil {
		return nil, err
	}
	if s.ruleCache != nil {
		if err := s.ruleCache.SetActiveRules(ctx, rules); err != nil {
			s.log.Warn("rule cache write failed", "error", err)
		}
	}
	return rules, nil
}
