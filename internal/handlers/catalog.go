package handlers

import (
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"pianosheets/internal/catalog"
	"pianosheets/internal/handlers/render"
	"pianosheets/internal/repositories"
)

// CatalogHandler serves the read-only catalog endpoints. Every request loads
// the catalog from the store, so responses always reflect the latest commit.
type CatalogHandler struct {
	repo repositories.CatalogRepository

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewCatalogHandler creates a new catalog handler. A nil rng is seeded from the clock.
func NewCatalogHandler(repo repositories.CatalogRepository, rng *rand.Rand) *CatalogHandler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &CatalogHandler{
		repo: repo,
		rng:  rng,
	}
}

var endpoints = map[string]string{
	"GET /":                       "API information",
	"GET /api/songs":              "Get all songs (title, artist, url)",
	"GET /api/songs/full":         "Get all songs with complete data",
	"GET /api/song/<id>":          "Get specific song by ID",
	"GET /api/search?q=query":     "Search songs by title or artist",
	"GET /api/categories":         "Get all available categories",
	"GET /api/category/<name>":    "Get songs by category",
	"GET /api/stats":              "Get database statistics",
	"GET /api/random":             "Get a random song",
	"GET /api/favorites":          "Get favorite song IDs",
	"POST /api/favorites/add":     "Add a song to favorites",
	"POST /api/favorites/remove":  "Remove a song from favorites",
	"GET /data.js":                "Favorites as a JavaScript module",
	"POST /api/admin/readme":      "Regenerate the README summary (token required)",
	"GET /api/admin/runs?limit=n": "Recent collector runs (token required)",
}

// Index handles GET /
func (h *CatalogHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, render.InfoResponse{
		Status:      "online",
		Name:        "Piano Sheets API",
		Version:     "1.0.0",
		Description: "API for accessing Roblox piano sheets from playpianosheets.com",
		Source:      "https://github.com/" + h.repo.Repository(),
		Endpoints:   endpoints,
	})
}

// ListSongs handles GET /api/songs
func (h *CatalogHandler) ListSongs(c *gin.Context) {
	songs, err := h.repo.All(c.Request.Context())
	if err != nil {
		render.StoreError(c, err)
		return
	}

	lite := catalog.Lite(songs)
	c.JSON(http.StatusOK, render.LiteListResponse{Count: len(lite), Songs: lite})
}

// ListSongsFull handles GET /api/songs/full
func (h *CatalogHandler) ListSongsFull(c *gin.Context) {
	songs, err := h.repo.All(c.Request.Context())
	if err != nil {
		render.StoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, render.SongListResponse{Count: len(songs), Songs: render.Songs(songs)})
}

// GetSong handles GET /api/song/*id. The id may itself contain slashes.
func (h *CatalogHandler) GetSong(c *gin.Context) {
	id := strings.TrimPrefix(c.Param("id"), "/")

	songs, err := h.repo.All(c.Request.Context())
	if err != nil {
		render.StoreError(c, err)
		return
	}

	song, err := catalog.FindByID(songs, id)
	if err != nil {
		render.Error(c, http.StatusNotFound, "Song not found")
		return
	}

	c.JSON(http.StatusOK, song)
}

// Search handles GET /api/search?q=
func (h *CatalogHandler) Search(c *gin.Context) {
	query := catalog.NormalizeQuery(c.Query("q"))
	if query == "" {
		render.Error(c, http.StatusBadRequest, `Query parameter "q" is required`)
		return
	}

	songs, err := h.repo.All(c.Request.Context())
	if err != nil {
		render.StoreError(c, err)
		return
	}

	results := catalog.Search(songs, query)
	c.JSON(http.StatusOK, render.SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: render.Songs(results),
	})
}

// Categories handles GET /api/categories
func (h *CatalogHandler) Categories(c *gin.Context) {
	songs, err := h.repo.All(c.Request.Context())
	if err != nil {
		render.StoreError(c, err)
		return
	}

	categories := catalog.Categories(songs)
	c.JSON(http.StatusOK, render.CategoriesResponse{Count: len(categories), Categories: categories})
}

// Category handles GET /api/category/*name. An unknown category is an empty
// list, not a 404.
func (h *CatalogHandler) Category(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")

	songs, err := h.repo.All(c.Request.Context())
	if err != nil {
		render.StoreError(c, err)
		return
	}

	filtered := catalog.FilterByCategory(songs, name)
	c.JSON(http.StatusOK, render.CategoryResponse{
		Category: name,
		Count:    len(filtered),
		Songs:    render.Songs(filtered),
	})
}

// Stats handles GET /api/stats
func (h *CatalogHandler) Stats(c *gin.Context) {
	songs, err := h.repo.All(c.Request.Context())
	if err != nil {
		render.StoreError(c, err)
		return
	}

	stats := catalog.ComputeStats(songs)
	stats.DatabaseFile = h.repo.Path()
	stats.Repository = h.repo.Repository()
	c.JSON(http.StatusOK, stats)
}

// Random handles GET /api/random
func (h *CatalogHandler) Random(c *gin.Context) {
	songs, err := h.repo.All(c.Request.Context())
	if err != nil {
		render.StoreError(c, err)
		return
	}

	h.rngMu.Lock()
	song, err := catalog.Random(songs, h.rng)
	h.rngMu.Unlock()
	if err != nil {
		render.Error(c, http.StatusNotFound, "No songs available")
		return
	}

	c.JSON(http.StatusOK, song)
}
