package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/clearform/assurance-backend/internal/http/handlers"
	httpMW "github.com/clearform/assurance-backend/internal/http/middleware"
)

type RouterConfig struct {
	AuthMiddleware *httpMW.AuthMiddleware

	DocumentHandler       *httpH.DocumentHandler
	ActionHandler         *httpH.ActionHandler
	RecommendationHandler *httpH.RecommendationHandler
	PackHandler           *httpH.PackHandler
	EvidenceHandler       *httpH.EvidenceHandler
	LibraryHandler        *httpH.LibraryHandler

	HealthHandler *httpH.HealthHandler

	ServiceName string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "assurance"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.Healthcheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Documents
		if cfg.DocumentHandler != nil {
			protected.POST("/documents", cfg.DocumentHandler.CreateDocument)
			protected.GET("/documents", cfg.DocumentHandler.ListDocuments)
			protected.GET("/documents/:id", cfg.DocumentHandler.GetDocument)
			protected.PATCH("/documents/:id", cfg.DocumentHandler.UpdateDraft)
			protected.POST("/documents/:id/issue", cfg.DocumentHandler.Issue)
			protected.GET("/document-families/:id/versions", cfg.DocumentHandler.GetFamily)
			protected.POST("/document-families/:id/versions", cfg.DocumentHandler.CreateNewVersion)
		}

		// Actions
		if cfg.ActionHandler != nil {
			protected.POST("/documents/:id/actions", cfg.ActionHandler.CreateAction)
			protected.GET("/documents/:id/actions", cfg.ActionHandler.ListActions)
			protected.GET("/actions/:id", cfg.ActionHandler.GetAction)
			protected.PATCH("/actions/:id", cfg.ActionHandler.UpdateAction)
			protected.POST("/actions/:id/close", cfg.ActionHandler.CloseAction)
			protected.DELETE("/actions/:id", cfg.ActionHandler.DeleteAction)
			protected.POST("/actions/:id/unsuppress", cfg.ActionHandler.Unsuppress)
		}

		// Recommendations
		if cfg.RecommendationHandler != nil {
			protected.POST("/documents/:id/recommendations/regenerate", cfg.RecommendationHandler.Regenerate)
		}

		// Defence packs
		if cfg.PackHandler != nil {
			protected.POST("/documents/:id/defence-pack", cfg.PackHandler.BuildPack)
			protected.GET("/documents/:id/defence-pack", cfg.PackHandler.GetPackForDocument)
			protected.GET("/defence-packs/:id", cfg.PackHandler.GetPack)
			protected.GET("/defence-packs/:id/verify", cfg.PackHandler.VerifyPack)
		}

		// Evidence
		if cfg.EvidenceHandler != nil {
			protected.POST("/documents/:id/evidence", cfg.EvidenceHandler.AddEvidence)
			protected.GET("/documents/:id/evidence", cfg.EvidenceHandler.ListEvidence)
		}

		// Rule library
		if cfg.LibraryHandler != nil {
			protected.GET("/trigger-rules", cfg.LibraryHandler.ListActiveRules)
			protected.PATCH("/trigger-rules/:id", cfg.LibraryHandler.SetRuleActive)
		}
	}

	return r
}
