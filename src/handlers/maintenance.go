package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/license-gate/src/middleware"
	"github.com/khabaroff/license-gate/src/services"
)

// MaintenanceHandler toggles the global maintenance gate
type MaintenanceHandler struct {
	maintenance *services.MaintenanceService
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(maintenance *services.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenance}
}

// maintenanceToggle is shared by enable and disable
type maintenanceToggle func(ctx context.Context) (bool, error)

func (mh *MaintenanceHandler) handleToggle(c *gin.Context, toggle maintenanceToggle) {
	active, err := toggle(c.Request.Context())
	if err != nil {
		logger := middleware.RequestLogger(c, "maintenance")
		logger.Error().Err(err).Msg("failed to update maintenance flag")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to update maintenance flag",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"maintenance": active,
	})
}

// HandleEnable handles POST /api/maintenance/enable
func (mh *MaintenanceHandler) HandleEnable(c *gin.Context) {
	mh.handleToggle(c, mh.maintenance.Enable)
}

// HandleDisable handles POST /api/maintenance/disable
func (mh *MaintenanceHandler) HandleDisable(c *gin.Context) {
	mh.handleToggle(c, mh.maintenance.Disable)
}

// HandleStatus handles GET /api/maintenance
func (mh *MaintenanceHandler) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"maintenance": mh.maintenance.Enabled(c.Request.Context()),
	})
}
