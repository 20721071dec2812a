package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/apierr"
)

// RespondDomainError maps the business error taxonomy onto HTTP. The
// errors themselves are surfaced verbatim: they are meaningful to the
// caller, not internal failures.
func RespondDomainError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr.Err)
		return
	}

	var vErr *types.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorEnvelope{
			Error: APIError{
				Message: vErr.Error(),
				Code:    "validation_failed",
				Reasons: vErr.Reasons,
			},
		})
		return
	}

	switch {
	case errors.Is(err, types.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, types.ErrDraftAlreadyExists):
		RespondError(c, http.StatusConflict, "draft_already_exists", err)
	case errors.Is(err, types.ErrDocumentLocked):
		RespondError(c, http.StatusConflict, "document_locked", err)
	case errors.Is(err, types.ErrDocumentNotIssued):
		RespondError(c, http.StatusConflict, "document_not_issued", err)
	case errors.Is(err, types.ErrRenderedArtifactMissing):
		RespondError(c, http.StatusConflict, "rendered_artifact_missing", err)
	case errors.Is(err, types.ErrConcurrencyConflict):
		RespondError(c, http.StatusConflict, "concurrency_conflict", err)
	case errors.Is(err, types.ErrValidationFailed):
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
	case errors.Is(err, types.ErrDependencyUnavailable):
		RespondError(c, http.StatusBadGateway, "dependency_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
