package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/catalog"
)

// CatalogStore publishes and reloads the reference catalog
type CatalogStore interface {
	Current() *catalog.Catalog
	Reload(ctx context.Context) (*catalog.Catalog, error)
}

// CatalogHandler serves health and catalog maintenance endpoints
type CatalogHandler struct {
	store  CatalogStore
	logger *zap.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(store CatalogStore, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{store: store, logger: logger}
}

// Health reports liveness and the size of the loaded catalog
// GET /health
func (h *CatalogHandler) Health(c *gin.Context) {
	cat := h.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"records": cat.Len(),
		"source":  cat.Source(),
	})
}

// Reload re-reads the catalog source. The previous catalog stays active on
// failure.
// POST /api/catalog/reload
func (h *CatalogHandler) Reload(c *gin.Context) {
	cat, err := h.store.Reload(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload catalog"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Catalog reloaded",
		"records": cat.Len(),
		"skipped": cat.Skipped(),
	})
}
