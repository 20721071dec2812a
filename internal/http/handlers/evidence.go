package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clearform/assurance-backend/internal/http/response"
	"github.com/clearform/assurance-backend/internal/platform/logger"
	"github.com/clearform/assurance-backend/internal/platform/requestdata"
	"github.com/clearform/assurance-backend/internal/services"
)

type EvidenceHandler struct {
	log             *logger.Logger
	evidenceService services.EvidenceService
}

func NewEvidenceHandler(log *logger.Logger, evidenceService services.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{
		log:             log.With("handler", "EvidenceHandler"),
		evidenceService: evidenceService,
	}
}

type addEvidenceRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (h *EvidenceHandler) AddEvidence(c *gin.Context) {
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
	var req addEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	file, err := h.evidenceService.AddEvidence(c.Request.Context(), documentID, rd.UserID, services.AddEvidenceInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		h.log.Error("AddEvidence failed", "error", err, "document_id", documentID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"evidence": file})
}

func (h *EvidenceHandler) ListEvidence(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	files, err := h.evidenceService.ListEvidence(c.Request.Context(), documentID)
	if err != nil {
		h.log.Error("ListEvidence failed", "error", err, "document_id", documentID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"evidence": files})
}
