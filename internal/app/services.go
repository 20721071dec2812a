package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
	"github.com/clearform/assurance-backend/internal/rules"
	"github.com/clearform/assurance-backend/internal/services"
)

type Services struct {
	Validator services.Validator
	Render    services.RenderService

	Document services.DocumentService
	Action   services.ActionService
	Trigger  services.TriggerService
	Pack     services.PackService
	Evidence services.EvidenceService
	Library  services.LibraryService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	validator := services.NewModuleValidator(log)
	renderService := services.NewRenderService(db, log, reposet.Document, reposet.RenderedArtifact, clients.Bucket)

	documentService := services.NewDocumentService(db, log, reposet.Document, reposet.Action, reposet.TriggerRule, validator, renderService)
	actionService := services.NewActionService(db, log, reposet.Document, reposet.Action)
	triggerService := services.NewTriggerService(db, log, reposet.Document, reposet.Action, reposet.TriggerRule, clients.RuleCache)
	packService := services.NewPackService(db, log, reposet.Document, reposet.Action, reposet.DefencePack, reposet.RenderedArtifact, reposet.EvidenceFile, clients.Bucket)
	evidenceService := services.NewEvidenceService(db, log, reposet.Document, reposet.EvidenceFile)
	libraryService := services.NewLibraryService(db, log, reposet.TriggerRule, clients.RuleCache)

	// Seed the rule library before taking traffic so a fresh database
	// still produces recommendations. Re-running converges on the file.
	seeded, err := rules.SeedFromFile(dbctx.New(context.Background(), nil), reposet.TriggerRule, cfg.RuleLibraryPath, log)
	if err != nil {
		return Services{}, err
	}
	if seeded > 0 {
		log.Info("rule library seeded", "count", seeded, "path", cfg.RuleLibraryPath)
	}

	return Services{
		Validator: validator,
		Render:    renderService,
		Document:  documentService,
		Action:    actionService,
		Trigger:   triggerService,
		Pack:      packService,
		Evidence:  evidenceService,
		Library:   libraryService,
	}, nil
}
