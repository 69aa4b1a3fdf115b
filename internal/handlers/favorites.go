package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pianosheets/internal/handlers/render"
	"pianosheets/internal/repositories"
)

// FavoriteRequest is the body of the add and remove endpoints
type FavoriteRequest struct {
	SongID string `json:"song_id"`
}

// FavoritesHandler handles the favorites list
type FavoritesHandler struct {
	repo repositories.FavoritesRepository
	now  func() time.Time
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(repo repositories.FavoritesRepository) *FavoritesHandler {
	return &FavoritesHandler{
		repo: repo,
		now:  time.Now,
	}
}

// List handles GET /api/favorites
func (h *FavoritesHandler) List(c *gin.Context) {
	fav, err := h.repo.Get(c.Request.Context())
	if err != nil {
		render.StoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, render.FavoritesResponse{Count: len(fav.IDs), Favorites: fav.IDs})
}

// Add handles POST /api/favorites/add
func (h *FavoritesHandler) Add(c *gin.Context) {
	id, ok := bindSongID(c)
	if !ok {
		return
	}

	fav, added, err := h.repo.Add(c.Request.Context(), id)
	if err != nil {
		render.StoreError(c, err)
		return
	}

	message := "Added to favorites"
	if !added {
		message = "Already in favorites"
	}
	slog.Info("Favorites add", "song_id", id, "changed", added, "count", len(fav.IDs))

	c.JSON(http.StatusOK, render.FavoriteAddResponse{
		Message:   message,
		Count:     len(fav.IDs),
		Favorites: fav.IDs,
	})
}

// Remove handles POST /api/favorites/remove
func (h *FavoritesHandler) Remove(c *gin.Context) {
	id, ok := bindSongID(c)
	if !ok {
		return
	}

	fav, removed, err := h.repo.Remove(c.Request.Context(), id)
	if err != nil {
		render.StoreError(c, err)
		return
	}

	message := "Removed from favorites"
	if !removed {
		message = "Not in favorites"
	}
	slog.Info("Favorites remove", "song_id", id, "changed", removed, "count", len(fav.IDs))

	c.JSON(http.StatusOK, render.FavoriteRemoveResponse{
		Message:   message,
		Favorites: fav.IDs,
	})
}

// Module handles GET /data.js, stamped with the document's last update.
// Store failures degrade to an empty list.
func (h *FavoritesHandler) Module(c *gin.Context) {
	var ids []string
	updated := h.now()
	fav, err := h.repo.Get(c.Request.Context())
	if err != nil {
		slog.Warn("Serving empty favorites module", "error", err)
	} else {
		ids = fav.IDs
		if !fav.UpdatedAt.IsZero() {
			updated = fav.UpdatedAt
		}
	}

	render.FavoritesModule(c, ids, updated)
}

// bindSongID reads song_id from the JSON body, writing a 400 when it is absent
func bindSongID(c *gin.Context) (string, bool) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SongID) == "" {
		render.Error(c, http.StatusBadRequest, "song_id is required")
		return "", false
	}
	return strings.TrimSpace(req.SongID), true
}
