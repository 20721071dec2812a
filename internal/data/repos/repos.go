package repos

import (
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/data/repos/actions"
	"github.com/clearform/assurance-backend/internal/data/repos/documents"
	"github.com/clearform/assurance-backend/internal/data/repos/evidence"
	"github.com/clearform/assurance-backend/internal/data/repos/library"
	"github.com/clearform/assurance-backend/internal/data/repos/packs"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type DocumentRepo = documents.DocumentRepo

type ActionRepo = actions.ActionRepo

type TriggerRuleRepo = library.TriggerRuleRepo

type DefencePackRepo = packs.DefencePackRepo
type RenderedArtifactRepo = packs.RenderedArtifactRepo

type EvidenceFileRepo = evidence.EvidenceFileRepo

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return documents.NewDocumentRepo(db, baseLog)
}

func NewActionRepo(db *gorm.DB, baseLog *logger.Logger) ActionRepo {
	return actions.NewActionRepo(db, baseLog)
}

func NewTriggerRuleRepo(db *gorm.DB, baseLog *logger.Logger) TriggerRuleRepo {
	return library.NewTriggerRuleRepo(db, baseLog)
}

func NewDefencePackRepo(db *gorm.DB, baseLog *logger.Logger) DefencePackRepo {
	return packs.NewDefencePackRepo(db, baseLog)
}

func NewRenderedArtifactRepo(db *gorm.DB, baseLog *logger.Logger) RenderedArtifactRepo {
	return packs.NewRenderedArtifactRepo(db, baseLog)
}

func NewEvidenceFileRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceFileRepo {
	return evidence.NewEvidenceFileRepo(db, baseLog)
}
