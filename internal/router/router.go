package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/approvalflow/workflow-client/internal/system/config"
	"github.com/approvalflow/workflow-client/internal/system/constants"
	"github.com/approvalflow/workflow-client/internal/system/middleware"
	"github.com/approvalflow/workflow-client/internal/workspace"
)

// SetupRouter configures all API routes and returns the engine with the
// workspace registry backing the browser sessions.
func SetupRouter(cfg *config.Config, httpClient *http.Client, logger *logrus.Logger) (*gin.Engine, *workspace.Registry) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.RequestLogger(logger))

	if cfg.CORS.Enabled && len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(middleware.CORSMiddleware(cfg.CORS))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API v1 routes
	v1 := router.Group(constants.APIBasePath)
	registry := workspace.Initialize(v1, cfg, httpClient, logger)

	return router, registry
}
