package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propintel/server/config"
)

// NewRouter builds the gin engine with CORS, recovery and request logging.
func NewRouter(cfg config.ServerConfig, handler *Handler, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		properties := api.Group("/properties/:id")
		properties.GET("/intelligence", handler.GetPropertyIntelligence)
		properties.POST("/market-comparison", handler.UpdateMarketComparison)
		properties.POST("/scores", handler.UpdatePropertyScores)
		properties.POST("/intelligence", handler.UpdatePropertyIntelligence)
		properties.POST("/proximity", handler.UpdateProximity)

		intel := api.Group("/intelligence")
		intel.POST("/recalculate", handler.Recalculate)
		intel.POST("/refresh", handler.QueueRefresh)
		intel.GET("/map", handler.GetScoreMap)
		intel.GET("/areas", handler.GetAreaHulls)
		intel.GET("/stats", handler.GetIntelligenceStats)
	}
}

// RequestLogger logs one line per request at a level matching the status.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if logger == nil {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		entry := logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("HTTP request")
		case status >= 400:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
	}
}
