package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportops/operations-service/internal/application"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/middleware"
)

// ReconciliationHandler handles worksheet HTTP requests
type ReconciliationHandler struct {
	service *application.ReconciliationService
	logger  *logging.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(service *application.ReconciliationService, logger *logging.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the worksheet routes
func (h *ReconciliationHandler) RegisterRoutes(r *gin.RouterGroup) {
	worksheets := r.Group("/worksheets")
	{
		worksheets.POST("/:id/search", h.Search)
		worksheets.GET("/:id", h.Get)
		worksheets.PUT("/:id/edits/:sku", h.SetPendingEdit)
		worksheets.POST("/:id/update", h.BulkUpdate)
		worksheets.DELETE("/:id", h.Clear)
	}
}

// Search handles POST /worksheets/:id/search
func (h *ReconciliationHandler) Search(c *gin.Context) {
	worksheetID := c.Param("id")

	var cmd application.SearchCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		h.logger.Warn("Invalid search request", "worksheet_id", worksheetID, "error", appErr.Message)
		middleware.NewErrorResponder(c, h.logger.Logger).RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"worksheet.id": worksheetID,
		"operation":    "worksheet_search",
	})

	worksheet, err := h.service.Search(c.Request.Context(), worksheetID, cmd)
	if err != nil {
		h.logger.WithError(err).Warn("Worksheet search failed", "worksheet_id", worksheetID)
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Worksheet search completed",
		"worksheet_id", worksheetID,
		"product_count", len(worksheet.Products),
	)
	c.JSON(http.StatusOK, worksheet)
}

// Get handles GET /worksheets/:id
func (h *ReconciliationHandler) Get(c *gin.Context) {
	worksheetID := c.Param("id")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"worksheet.id": worksheetID,
		"operation":    "worksheet_get",
	})

	worksheet, err := h.service.Get(c.Request.Context(), worksheetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, worksheet)
}

// SetPendingEdit handles PUT /worksheets/:id/edits/:sku
func (h *ReconciliationHandler) SetPendingEdit(c *gin.Context) {
	worksheetID := c.Param("id")
	sku := c.Param("sku")

	var cmd application.PendingEditCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		h.logger.Warn("Invalid pending edit request", "worksheet_id", worksheetID, "sku", sku, "error", appErr.Message)
		middleware.NewErrorResponder(c, h.logger.Logger).RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"worksheet.id": worksheetID,
		"sku":          sku,
		"operation":    "worksheet_set_pending_edit",
	})

	worksheet, err := h.service.SetPendingEdit(c.Request.Context(), worksheetID, sku, cmd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, worksheet)
}

// BulkUpdate handles POST /worksheets/:id/update
func (h *ReconciliationHandler) BulkUpdate(c *gin.Context) {
	worksheetID := c.Param("id")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"worksheet.id": worksheetID,
		"operation":    "worksheet_bulk_update",
	})

	report, err := h.service.BulkUpdate(c.Request.Context(), worksheetID)
	if err != nil {
		h.logger.WithError(err).Warn("Bulk update rejected", "worksheet_id", worksheetID)
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Bulk update completed",
		"worksheet_id", worksheetID,
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	c.JSON(http.StatusOK, report)
}

// Clear handles DELETE /worksheets/:id
func (h *ReconciliationHandler) Clear(c *gin.Context) {
	worksheetID := c.Param("id")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"worksheet.id": worksheetID,
		"operation":    "worksheet_clear",
	})

	if err := h.service.Clear(c.Request.Context(), worksheetID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Worksheet cleared", "worksheet_id", worksheetID)
	c.JSON(http.StatusOK, gin.H{"message": "Worksheet cleared"})
}
