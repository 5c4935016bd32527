package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportops/operations-service/internal/application"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/middleware"
)

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	service *application.DashboardService
	logger  *logging.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *application.DashboardService, logger *logging.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the dashboard routes
func (h *DashboardHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard/open-orders", h.OpenOrders)
}

// OpenOrders handles GET /dashboard/open-orders
func (h *DashboardHandler) OpenOrders(c *gin.Context) {
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"operation": "dashboard_open_orders",
	})

	summary, err := h.service.OpenOrdersSummary(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to build open orders summary")
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
