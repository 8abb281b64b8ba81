// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/replenlab/eoq-engine/internal/api/handlers"
	"github.com/replenlab/eoq-engine/internal/api/middleware"
	"github.com/replenlab/eoq-engine/internal/service"
)

// NewRouter assembles the HTTP surface over the optimization service.
func NewRouter(svc *service.OptimizationService, uploadDir string, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if svc != nil {
		h := handlers.NewOptimizeHandler(svc, uploadDir)
		optimizeGroup := apiGroup.Group("/optimize")
		{
			optimizeGroup.POST("/item", h.OptimizeItem)
			optimizeGroup.POST("/batch", h.OptimizeBatch)
			optimizeGroup.POST("/upload", h.UploadBatch)
		}
		runsGroup := apiGroup.Group("/runs")
		{
			runsGroup.GET("", h.GetRuns)
			runsGroup.GET("/:id", h.GetRun)
			runsGroup.GET("/:id/export", h.ExportRun)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
