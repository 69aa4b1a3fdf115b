package handlers

import (
	"math/rand"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pianosheets/internal/handlers/render"
	"pianosheets/internal/repositories"
)

// RouterOptions carries the dependencies of every route
type RouterOptions struct {
	Catalog   repositories.CatalogRepository
	Favorites repositories.FavoritesRepository
	Readme    repositories.ReadmeRepository
	Runs      repositories.RunRepository // Optional

	ScraperKey string
	Debug      bool
	Rand       *rand.Rand // Optional, for deterministic /api/random in tests
}

// SetupRouter builds the HTTP API
func SetupRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	if opts.Debug {
		router.Use(gin.Logger())
	}
	router.Use(recovery())
	router.Use(cors.Default())

	catalogHandler := NewCatalogHandler(opts.Catalog, opts.Rand)
	favoritesHandler := NewFavoritesHandler(opts.Favorites)
	adminHandler := NewAdminHandler(opts.Catalog, opts.Readme, opts.Runs)

	router.GET("/", catalogHandler.Index)
	router.GET("/data.js", favoritesHandler.Module)

	api := router.Group("/api")
	{
		api.GET("/songs", catalogHandler.ListSongs)
		api.GET("/songs/full", catalogHandler.ListSongsFull)
		api.GET("/song/*id", catalogHandler.GetSong)
		api.GET("/search", catalogHandler.Search)
		api.GET("/categories", catalogHandler.Categories)
		api.GET("/category/*name", catalogHandler.Category)
		api.GET("/stats", catalogHandler.Stats)
		api.GET("/random", catalogHandler.Random)

		api.GET("/favorites", favoritesHandler.List)
		api.POST("/favorites/add", favoritesHandler.Add)
		api.POST("/favorites/remove", favoritesHandler.Remove)
	}

	admin := router.Group("/api/admin", RequireScraperToken(opts.ScraperKey))
	{
		admin.POST("/readme", adminHandler.RegenerateReadme)
		admin.GET("/runs", adminHandler.ListRuns)
	}

	router.NoRoute(func(c *gin.Context) {
		render.Error(c, http.StatusNotFound, "Endpoint not found")
	})

	return router
}
