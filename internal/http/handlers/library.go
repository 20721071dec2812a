package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clearform/assurance-backend/internal/http/response"
	"github.com/clearform/assurance-backend/internal/platform/logger"
	"github.com/clearform/assurance-backend/internal/services"
)

type LibraryHandler struct {
	log            *logger.Logger
	libraryService services.LibraryService
}

func NewLibraryHandler(log *logger.Logger, libraryService services.LibraryService) *LibraryHandler {
	return &LibraryHandler{
		log:            log.With("handler", "LibraryHandler"),
		libraryService: libraryService,
	}
}

func (h *LibraryHandler) ListActiveRules(c *gin.Context) {
	rules, err := h.libraryService.ListActiveRules(c.Request.Context())
	if err != nil {
		h.log.Error("ListActiveRules failed", "error", err)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rules": rules})
}

type setRuleActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *LibraryHandler) SetRuleActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rule_id", err)
		return
	}
	var req setRuleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rule, err := h.libraryService.SetRuleActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.log.Error("SetRuleActive failed", "error", err, "rule_id", id)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rule": rule})
}
