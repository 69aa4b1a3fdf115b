package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pianosheets/internal/handlers/render"
	"pianosheets/internal/repositories"
)

// AdminHandler handles operator requests. Routes are guarded by RequireScraperToken.
type AdminHandler struct {
	catalog repositories.CatalogRepository
	readme  repositories.ReadmeRepository
	runs    repositories.RunRepository // nil when run history is disabled
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(catalog repositories.CatalogRepository, readme repositories.ReadmeRepository, runs repositories.RunRepository) *AdminHandler {
	return &AdminHandler{
		catalog: catalog,
		readme:  readme,
		runs:    runs,
	}
}

// RegenerateReadme handles POST /api/admin/readme
func (h *AdminHandler) RegenerateReadme(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	songs, err := h.catalog.All(ctx)
	if err != nil {
		render.StoreError(c, err)
		return
	}

	if err := h.readme.Regenerate(ctx, songs); err != nil {
		render.StoreError(c, err)
		return
	}

	slog.Info("README regenerated", "songs", len(songs))
	c.JSON(http.StatusOK, gin.H{
		"message":     "README updated",
		"total_songs": len(songs),
	})
}

// ListRuns handles GET /api/admin/runs?limit=
func (h *AdminHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		render.Error(c, http.StatusServiceUnavailable, "Run history not configured")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			render.Error(c, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	runs, err := h.runs.Recent(c.Request.Context(), repositories.ClampLimit(limit))
	if err != nil {
		slog.Error("Failed to load collector runs", "error", err)
		render.Error(c, http.StatusInternalServerError, "Failed to load collector runs")
		return
	}

	c.JSON(http.StatusOK, render.RunsResponse{Count: len(runs), Runs: runs})
}
