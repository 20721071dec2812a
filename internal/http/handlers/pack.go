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

type PackHandler struct {
	log         *logger.Logger
	packService services.PackService
}

func NewPackHandler(log *logger.Logger, packService services.PackService) *PackHandler {
	return &PackHandler{
		log:         log.With("handler", "PackHandler"),
		packService: packService,
	}
}

func (h *PackHandler) BuildPack(c *gin.Context) {
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
	pack, err := h.packService.BuildDefencePack(c.Request.Context(), documentID, rd.UserID)
	if err != nil {
		h.log.Error("BuildPack failed", "error", err, "document_id", documentID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"pack": pack})
}

func (h *PackHandler) GetPack(c *gin.Context) {
	packID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_pack_id", err)
		return
	}
	pack, err := h.packService.GetPack(c.Request.Context(), packID)
	if err != nil {
		h.log.Error("GetPack failed", "error", err, "pack_id", packID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pack": pack})
}

func (h *PackHandler) GetPackForDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	pack, err := h.packService.GetPackForDocument(c.Request.Context(), documentID)
	if err != nil {
		h.log.Error("GetPackForDocument failed", "error", err, "document_id", documentID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pack": pack})
}

// VerifyPack re-reads the stored bundle and recomputes its checksum.
func (h *PackHandler) VerifyPack(c *gin.Context) {
	packID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_pack_id", err)
		return
	}
	verification, err := h.packService.VerifyPack(c.Request.Context(), packID)
	if err != nil {
		h.log.Error("VerifyPack failed", "error", err, "pack_id", packID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"verification": verification})
}
