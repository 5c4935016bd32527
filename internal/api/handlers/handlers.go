package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportops/operations-service/internal/application"
	"github.com/supportops/operations-service/internal/domain"
	apperrors "github.com/supportops/operations-service/pkg/errors"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/middleware"
)

// appErrorFor maps workflow errors onto the API error taxonomy. Anything
// unrecognized falls through to the generic message-based mapping.
func appErrorFor(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, application.ErrScanThrottled):
		return apperrors.NewAppError("SCAN_THROTTLED", err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, domain.ErrWorksheetBusy):
		return apperrors.ErrConflict(err.Error())
	case errors.Is(err, domain.ErrProductNotInSheet),
		errors.Is(err, domain.ErrNoEligibleEdits),
		errors.Is(err, domain.ErrInvalidQuantity):
		return apperrors.ErrValidation(err.Error())
	case errors.Is(err, domain.ErrRecordOutOfRange):
		return apperrors.ErrNotFound("record")
	case errors.Is(err, domain.ErrUnauthorized):
		return apperrors.ErrUpstream("inventory gateway", http.StatusUnauthorized)
	default:
		return apperrors.MapDomainError(err)
	}
}

func respondError(c *gin.Context, logger *logging.Logger, err error) {
	middleware.NewErrorResponder(c, logger.Logger).RespondWithAppError(appErrorFor(err))
}
