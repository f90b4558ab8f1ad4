package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/manabase-builder/backend/internal/services"
)

// AdminHandler exposes manual triggers for the background refresh paths.
type AdminHandler struct {
	worker *services.RefreshWorker
}

func NewAdminHandler(worker *services.RefreshWorker) *AdminHandler {
	return &AdminHandler{worker: worker}
}

// RefreshBulk handles POST /api/admin/refresh-bulk, forcing a snapshot
// download and index rebuild.
func (h *AdminHandler) RefreshBulk(c *gin.Context) {
	if err := h.worker.ForceBulkRefresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.worker.Status())
}

// RefreshPrices handles POST /api/admin/refresh-prices, running one
// bounded stale-price sweep.
func (h *AdminHandler) RefreshPrices(c *gin.Context) {
	updated, err := h.worker.RefreshStalePrices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Status handles GET /api/admin/status.
func (h *AdminHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.Status())
}
