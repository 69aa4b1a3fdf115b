package render

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pianosheets/internal/catalog"
	"pianosheets/internal/models"
	"pianosheets/internal/services"
	"pianosheets/internal/templates"
)

// JavaScriptContentType is served for the legacy favorites module
const JavaScriptContentType = "text/javascript; charset=utf-8"

// InfoResponse describes the service on GET /
type InfoResponse struct {
	Status      string            `json:"status"`
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Source      string            `json:"source"`
	Endpoints   map[string]string `json:"endpoints"`
}

// LiteListResponse is the lightweight song list
type LiteListResponse struct {
	Count int                `json:"count"`
	Songs []catalog.LiteSong `json:"songs"`
}

// SongListResponse carries full records
type SongListResponse struct {
	Count int            `json:"count"`
	Songs models.Catalog `json:"songs"`
}

// SearchResponse echoes the normalized query with its matches
type SearchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results models.Catalog `json:"results"`
}

// CategoriesResponse lists distinct tags
type CategoriesResponse struct {
	Count      int      `json:"count"`
	Categories []string `json:"categories"`
}

// CategoryResponse lists the songs carrying one tag
type CategoryResponse struct {
	Category string         `json:"category"`
	Count    int            `json:"count"`
	Songs    models.Catalog `json:"songs"`
}

// FavoritesResponse is the current favorites list
type FavoritesResponse struct {
	Count     int      `json:"count"`
	Favorites []string `json:"favorites"`
}

// FavoriteAddResponse reports the outcome of an add
type FavoriteAddResponse struct {
	Message   string   `json:"message"`
	Count     int      `json:"count"`
	Favorites []string `json:"favorites"`
}

// FavoriteRemoveResponse reports the outcome of a remove
type FavoriteRemoveResponse struct {
	Message   string   `json:"message"`
	Favorites []string `json:"favorites"`
}

// RunsResponse lists recent collector runs
type RunsResponse struct {
	Count int                  `json:"count"`
	Runs  []*models.RunSummary `json:"runs"`
}

// Songs returns a non-nil catalog so empty lists encode as []
func Songs(songs models.Catalog) models.Catalog {
	if songs == nil {
		return models.Catalog{}
	}
	return songs
}

// Error writes {"error": message}
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// StoreError maps a persistence failure to a 500 with a uniform message for
// an unconfigured store
func StoreError(c *gin.Context, err error) {
	message := err.Error()
	if errors.Is(err, services.ErrNotConfigured) {
		message = services.ErrNotConfigured.Error()
	}
	slog.Error("Store request failed", "path", c.FullPath(), "error", err)
	Error(c, http.StatusInternalServerError, message)
}

// FavoritesModule renders ids as the legacy JavaScript module
func FavoritesModule(c *gin.Context, ids []string, now time.Time) {
	if ids == nil {
		ids = []string{}
	}
	body, err := templates.Render(templates.FavoritesModule, templates.FavoritesModuleData{
		IDs:         ids,
		GeneratedAt: now,
	})
	if err != nil {
		slog.Error("Failed to render favorites module", "error", err)
		body = []byte("export const favorites = [];\nexport default favorites;\n")
	}
	c.Data(http.StatusOK, JavaScriptContentType, body)
}
