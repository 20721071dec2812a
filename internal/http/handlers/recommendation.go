package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/http/response"
	"github.com/clearform/assurance-backend/internal/platform/logger"
	"github.com/clearform/assurance-backend/internal/platform/requestdata"
	"github.com/clearform/assurance-backend/internal/services"
)

type RecommendationHandler struct {
	log            *logger.Logger
	triggerService services.TriggerService
}

func NewRecommendationHandler(log *logger.Logger, triggerService services.TriggerService) *RecommendationHandler {
	return &RecommendationHandler{
		log:            log.With("handler", "RecommendationHandler"),
		triggerService: triggerService,
	}
}

type regenerateRequest struct {
	Ratings []types.FactorRating `json:"ratings" binding:"required"`
}

// Regenerate reconciles the draft's recommended actions against the
// submitted ratings. Callers invoke it after every ratings save; repeat
// calls with the same ratings change nothing.
func (h *RecommendationHandler) Regenerate(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.triggerService.RegenerateRecommendations(c.Request.Context(), documentID, rd.UserID, req.Ratings)
	if err != nil {
		h.log.Error("Regenerate failed", "error", err, "document_id", documentID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}
