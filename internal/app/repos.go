package app

import (
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/data/repos"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type Repos struct {
	Document         repos.DocumentRepo
	Action           repos.ActionRepo
	TriggerRule      repos.TriggerRuleRepo
	DefencePack      repos.DefencePackRepo
	RenderedArtifact repos.RenderedArtifactRepo
	EvidenceFile     repos.EvidenceFileRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Document:         repos.NewDocumentRepo(db, log),
		Action:           repos.NewActionRepo(db, log),
		TriggerRule:      repos.NewTriggerRuleRepo(db, log),
		DefencePack:      repos.NewDefencePackRepo(db, log),
		RenderedArtifact: repos.NewRenderedArtifactRepo(db, log),
		EvidenceFile:     repos.NewEvidenceFileRepo(db, log),
	}
}
