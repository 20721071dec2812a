package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	httpx "github.com/clearform/assurance-backend/internal/http"
	httpH "github.com/clearform/assurance-backend/internal/http/handlers"
	httpMW "github.com/clearform/assurance-backend/internal/http/middleware"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health         *httpH.HealthHandler
	Document       *httpH.DocumentHandler
	Action         *httpH.ActionHandler
	Recommendation *httpH.RecommendationHandler
	Pack           *httpH.PackHandler
	Evidence       *httpH.EvidenceHandler
	Library        *httpH.LibraryHandler
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(log, db),
		Document:       httpH.NewDocumentHandler(log, serviceset.Document),
		Action:         httpH.NewActionHandler(log, serviceset.Action),
		Recommendation: httpH.NewRecommendationHandler(log, serviceset.Trigger),
		Pack:           httpH.NewPackHandler(log, serviceset.Pack),
		Evidence:       httpH.NewEvidenceHandler(log, serviceset.Evidence),
		Library:        httpH.NewLibraryHandler(log, serviceset.Library),
	}
}

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return httpx.NewRouter(httpx.RouterConfig{
		AuthMiddleware:        middleware.Auth,
		DocumentHandler:       handlers.Document,
		ActionHandler:         handlers.Action,
		RecommendationHandler: handlers.Recommendation,
		PackHandler:           handlers.Pack,
		EvidenceHandler:       handlers.Evidence,
		LibraryHandler:        handlers.Library,
		HealthHandler:         handlers.Health,
		ServiceName:           cfg.ServiceName,
	})
}
