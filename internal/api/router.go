package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"garden-monitor/internal/config"
	"garden-monitor/internal/logging"
)

func NewRouter(h *Handler, logger *logging.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group(cfg.API.BasePath)
	{
		// Alerts and read state
		api.GET("/alerts", h.GetAlerts)
		api.POST("/alerts/read", h.MarkRead)
		api.POST("/alerts/read-all", h.MarkAllRead)

		// Threshold rules
		api.GET("/thresholds", h.GetThresholds)
		api.PUT("/thresholds", h.PutThresholds)
		api.POST("/thresholds/reset", h.ResetThresholds)

		// Notification settings
		api.GET("/settings/email", h.GetEmailSettings)
		api.PUT("/settings/email", h.PutEmailSettings)
		api.GET("/settings/telegram", h.GetTelegramSettings)
		api.PUT("/settings/telegram", h.PutTelegramSettings)

		// Toasts
		api.GET("/toasts", h.GetToasts)
		api.DELETE("/toasts/:id", h.DismissToast)

		// Detail series
		api.GET("/readings/:metric", h.GetMetricReadings)
	}

	r.GET("/ws", h.Stream)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
