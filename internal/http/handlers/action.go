package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clearform/assurance-backend/internal/http/response"
	"github.com/clearform/assurance-backend/internal/platform/logger"
	"github.com/clearform/assurance-backend/internal/platform/requestdata"
	"github.com/clearform/assurance-backend/internal/services"
)

type ActionHandler struct {
	log           *logger.Logger
	actionService services.ActionService
}

func NewActionHandler(log *logger.Logger, actionService services.ActionService) *ActionHandler {
	return &ActionHandler{
		log:           log.With("handler", "ActionHandler"),
		actionService: actionService,
	}
}

type createActionRequest struct {
	Reference      string     `json:"reference"`
	Description    string     `json:"description" binding:"required"`
	Recommendation string     `json:"recommendation"`
	Priority       string     `json:"priority"`
	Owner          string     `json:"owner"`
	DueDate        *time.Time `json:"due_date"`
}

func (h *ActionHandler) CreateAction(c *gin.Context) {
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
	var req createActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	action, err := h.actionService.CreateAction(c.Request.Context(), documentID, rd.UserID, services.CreateActionInput{
		Reference:      req.Reference,
		Description:    req.Description,
		Recommendation: req.Recommendation,
		Priority:       req.Priority,
		Owner:          req.Owner,
		DueDate:        req.DueDate,
	})
	if err != nil {
		h.log.Error("CreateAction failed", "error", err, "document_id", documentID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"action": action})
}

func (h *ActionHandler) GetAction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_action_id", err)
		return
	}
	action, err := h.actionService.GetAction(c.Request.Context(), id)
	if err != nil {
		h.log.Error("GetAction failed", "error", err, "action_id", id)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"action": action})
}

func (h *ActionHandler) ListActions(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	includeSuppressed := c.Query("include_suppressed") == "true"
	actions, err := h.actionService.ListActions(c.Request.Context(), documentID, includeSuppressed)
	if err != nil {
		h.log.Error("ListActions failed", "error", err, "document_id", documentID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"actions": actions})
}

type updateActionRequest struct {
	Reference      *string    `json:"reference"`
	Description    *string    `json:"description"`
	Recommendation *string    `json:"recommendation"`
	Priority       *string    `json:"priority"`
	Status         *string    `json:"status"`
	Owner          *string    `json:"owner"`
	DueDate        *time.Time `json:"due_date"`
}

func (h *ActionHandler) UpdateAction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_action_id", err)
		return
	}
	var req updateActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	action, err := h.actionService.UpdateAction(c.Request.Context(), id, services.UpdateActionInput{
		Reference:      req.Reference,
		Description:    req.Description,
		Recommendation: req.Recommendation,
		Priority:       req.Priority,
		Status:         req.Status,
		Owner:          req.Owner,
		DueDate:        req.DueDate,
	})
	if err != nil {
		h.log.Error("UpdateAction failed", "error", err, "action_id", id)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"action": action})
}

type closeActionRequest struct {
	Notes string `json:"notes"`
}

// CloseAction resolves the action and every copy of it that was carried
// into other versions of the same document family.
func (h *ActionHandler) CloseAction(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_action_id", err)
		return
	}
	var req closeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.actionService.CloseAction(c.Request.Context(), id, rd.UserID, req.Notes)
	if err != nil {
		h.log.Error("CloseAction failed", "error", err, "action_id", id)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

func (h *ActionHandler) DeleteAction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_action_id", err)
		return
	}
	if err := h.actionService.DeleteAction(c.Request.Context(), id); err != nil {
		h.log.Error("DeleteAction failed", "error", err, "action_id", id)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

func (h *ActionHandler) Unsuppress(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_action_id", err)
		return
	}
	action, err := h.actionService.Unsuppress(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Unsuppress failed", "error", err, "action_id", id)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"action": action})
}
