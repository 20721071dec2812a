package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/clearform/assurance-backend/internal/http/response"
	"github.com/clearform/assurance-backend/internal/platform/logger"
	"github.com/clearform/assurance-backend/internal/platform/requestdata"
	"github.com/clearform/assurance-backend/internal/services"
)

type DocumentHandler struct {
	log             *logger.Logger
	documentService services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, documentService services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:             log.With("handler", "DocumentHandler"),
		documentService: documentService,
	}
}

type createDocumentRequest struct {
	Title     string         `json:"title" binding:"required"`
	Reference string         `json:"reference"`
	Modules   datatypes.JSON `json:"modules"`
}

func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	doc, err := h.documentService.CreateDocument(c.Request.Context(), rd.UserID, services.CreateDocumentInput{
		Title:     req.Title,
		Reference: req.Reference,
		Modules:   req.Modules,
	})
	if err != nil {
		h.log.Error("CreateDocument failed", "error", err, "user_id", rd.UserID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	doc, err := h.documentService.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.log.Error("GetDocument failed", "error", err, "document_id", id)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.documentService.ListLatest(c.Request.Context())
	if err != nil {
		h.log.Error("ListDocuments failed", "error", err)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// GetFamily returns every version of a document family, oldest first.
func (h *DocumentHandler) GetFamily(c *gin.Context) {
	baseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_family_id", err)
		return
	}
	docs, err := h.documentService.GetFamily(c.Request.Context(), baseID)
	if err != nil {
		h.log.Error("GetFamily failed", "error", err, "base_document_id", baseID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"versions": docs})
}

type updateDraftRequest struct {
	Title            *string        `json:"title"`
	Reference        *string        `json:"reference"`
	Modules          datatypes.JSON `json:"modules"`
	ExecutiveSummary *string        `json:"executive_summary"`
}

func (h *DocumentHandler) UpdateDraft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	var req updateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	doc, err := h.documentService.UpdateDraft(c.Request.Context(), id, services.UpdateDraftInput{
		Title:            req.Title,
		Reference:        req.Reference,
		Modules:          req.Modules,
		ExecutiveSummary: req.ExecutiveSummary,
	})
	if err != nil {
		h.log.Error("UpdateDraft failed", "error", err, "document_id", id)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

func (h *DocumentHandler) Issue(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	start := time.Now()
	result, err := h.documentService.Issue(c.Request.Context(), id, rd.UserID)
	if err != nil {
		h.log.Error("Issue failed", "error", err, "document_id", id, "user_id", rd.UserID)
		response.RespondDomainError(c, err)
		return
	}
	h.log.Info("document issued", "document_id", id, "duration_ms", time.Since(start).Milliseconds())
	response.RespondOK(c, gin.H{"result": result})
}

func (h *DocumentHandler) CreateNewVersion(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	baseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_family_id", err)
		return
	}
	result, err := h.documentService.CreateNewVersion(c.Request.Context(), baseID, rd.UserID)
	if err != nil {
		h.log.Error("CreateNewVersion failed", "error", err, "base_document_id", baseID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"result": result})
}
