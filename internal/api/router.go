package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pendo-io/kegtronbot/config"
	"github.com/pendo-io/kegtronbot/internal/mw"
)

// NewRouter assembles the gin engine: the Slack front door plus a small
// read-only API behind rate limiting and a short response cache.
func NewRouter(h *Handler, cfg config.ServerConfig, logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(mw.RequestLogger(logger))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "kegtronbot is running")
	})

	// Slack delivers both endpoints as POSTs; GET is kept for manual checks.
	router.GET("/slackMessage", h.SlackMessage)
	router.POST("/slackMessage", h.SlackMessage)
	router.GET("/slackInteractive", h.SlackInteractive)
	router.POST("/slackInteractive", h.SlackInteractive)

	api := router.Group("/api")
	api.Use(mw.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	api.Use(mw.CacheResponses(time.Duration(cfg.CacheTTLSeconds) * time.Second))
	{
		api.GET("/status", h.Status)
		api.GET("/devices", h.Devices)
	}

	return router
}
