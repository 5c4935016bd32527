package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/supportops/operations-service/internal/application"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/middleware"
)

// VerificationHandler handles verification session HTTP requests
type VerificationHandler struct {
	service *application.VerificationService
	logger  *logging.Logger
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(service *application.VerificationService, logger *logging.Logger) *VerificationHandler {
	return &VerificationHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the verification routes
func (h *VerificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/verification/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/codes", h.SubmitCode)
		sessions.DELETE("/:id/codes/:index", h.RemoveRecord)
		sessions.DELETE("/:id", h.ClearSession)
		sessions.GET("/:id/report", h.Report)
	}
}

// CreateSession handles POST /verification/sessions
func (h *VerificationHandler) CreateSession(c *gin.Context) {
	var cmd application.CreateSessionCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		h.logger.Warn("Invalid create session request", "error", appErr.Message)
		middleware.NewErrorResponder(c, h.logger.Logger).RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"session.mode": cmd.Mode,
		"operation":    "verification_create_session",
	})

	session, err := h.service.CreateSession(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Verification session created", "session_id", session.ID, "mode", session.Mode)
	c.JSON(http.StatusCreated, session)
}

// ListSessions handles GET /verification/sessions
func (h *VerificationHandler) ListSessions(c *gin.Context) {
	sessions := h.service.ListSessions(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// GetSession handles GET /verification/sessions/:id
func (h *VerificationHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"session.id": sessionID,
		"operation":  "verification_get_session",
	})

	session, err := h.service.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// SubmitCode handles POST /verification/sessions/:id/codes
func (h *VerificationHandler) SubmitCode(c *gin.Context) {
	sessionID := c.Param("id")

	var cmd application.SubmitCodeCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		h.logger.Warn("Invalid submit code request", "session_id", sessionID, "error", appErr.Message)
		middleware.NewErrorResponder(c, h.logger.Logger).RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"session.id":  sessionID,
		"code.source": cmd.Source,
		"operation":   "verification_submit_code",
	})

	record, err := h.service.Submit(c.Request.Context(), sessionID, cmd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Code classified",
		"session_id", sessionID,
		"status", record.Status,
		"outcome", string(record.Outcome),
	)
	c.JSON(http.StatusCreated, record)
}

// RemoveRecord handles DELETE /verification/sessions/:id/codes/:index
func (h *VerificationHandler) RemoveRecord(c *gin.Context) {
	sessionID := c.Param("id")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		middleware.NewErrorResponder(c, h.logger.Logger).RespondBadRequest("record index must be an integer")
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"session.id":   sessionID,
		"record.index": index,
		"operation":    "verification_remove_record",
	})

	if err := h.service.RemoveRecord(c.Request.Context(), sessionID, index); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Record removed"})
}

// ClearSession handles DELETE /verification/sessions/:id
func (h *VerificationHandler) ClearSession(c *gin.Context) {
	sessionID := c.Param("id")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"session.id": sessionID,
		"operation":  "verification_clear_session",
	})

	if err := h.service.ClearSession(c.Request.Context(), sessionID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Verification session cleared", "session_id", sessionID)
	c.JSON(http.StatusOK, gin.H{"message": "Session log cleared"})
}

// Report handles GET /verification/sessions/:id/report
func (h *VerificationHandler) Report(c *gin.Context) {
	sessionID := c.Param("id")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"session.id": sessionID,
		"operation":  "verification_report",
	})

	report, err := h.service.Report(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
