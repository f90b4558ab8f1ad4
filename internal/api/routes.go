package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/manabase-builder/backend/internal/api/handlers"
	"github.com/codyseavey/manabase-builder/backend/internal/metrics"
	"github.com/codyseavey/manabase-builder/backend/internal/services"
)

// SetupRouter wires all HTTP routes and middleware.
func SetupRouter(resolver *services.Resolver, index *services.IndexService, worker *services.RefreshWorker, allowedOrigins string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if allowedOrigins == "" || allowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.Use(metrics.Middleware())

	cardHandler := handlers.NewCardHandler(resolver, index)
	packageHandler := handlers.NewPackageHandler()
	adminHandler := handlers.NewAdminHandler(worker)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/scryfall", cardHandler.SearchCards)
		apiGroup.GET("/scryfall/card", cardHandler.GetCard)

		apiGroup.GET("/cards/resolve", cardHandler.ResolveCard)
		apiGroup.POST("/cards/batch", cardHandler.ResolveBatch)

		apiGroup.GET("/packages", packageHandler.ListPackages)
		apiGroup.POST("/packages", packageHandler.CreatePackage)
		apiGroup.PUT("/packages/:id", packageHandler.UpdatePackage)
		apiGroup.DELETE("/packages/:id", packageHandler.DeletePackage)

		apiGroup.GET("/presets", packageHandler.ListPresets)
		apiGroup.POST("/presets", packageHandler.CreatePreset)
		apiGroup.DELETE("/presets/:id", packageHandler.DeletePreset)

		admin := apiGroup.Group("/admin")
		{
			admin.POST("/refresh-bulk", adminHandler.RefreshBulk)
			admin.POST("/refresh-prices", adminHandler.RefreshPrices)
			admin.GET("/status", adminHandler.Status)
		}
	}

	return router
}
