package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"garden-monitor/internal/alerting"
	"garden-monitor/internal/db"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/metrics"
	"garden-monitor/internal/models"
	"garden-monitor/internal/monitor"
	"garden-monitor/internal/notify"
	"garden-monitor/internal/thresholds"
	"garden-monitor/internal/toast"
)

type Handler struct {
	log       *logging.Logger
	monitor   *monitor.Monitor
	rules     *thresholds.Store
	readState *alerting.ReadStateStore
	toasts    *toast.Manager
	settings  *notify.SettingsStore
	source    monitor.Source
	hub       *Hub
}

func NewHandler(log *logging.Logger, mon *monitor.Monitor, rules *thresholds.Store, readState *alerting.ReadStateStore, toasts *toast.Manager, settings *notify.SettingsStore, source monitor.Source, hub *Hub) *Handler {
	return &Handler{
		log:       log,
		monitor:   mon,
		rules:     rules,
		readState: readState,
		toasts:    toasts,
		settings:  settings,
		source:    source,
		hub:       hub,
	}
}

// GetAlerts returns the active alerts of the last cycle, the unread
// count, and the fetch error if the last cycle failed.
func (h *Handler) GetAlerts(c *gin.Context) {
	alerts, fetchErr := h.monitor.Snapshot()
	unread := h.readState.UnreadCount(c.Request.Context(), alerts)
	resp := gin.H{
		"alerts":       alerts,
		"unread_count": unread,
	}
	if fetchErr != "" {
		resp["error"] = fetchErr
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) MarkRead(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Invalid mark-read request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.readState.MarkRead(c.Request.Context(), req.IDs); err != nil {
		h.log.Errorf("Mark read failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark alerts read"})
		return
	}
	alerts, _ := h.monitor.Snapshot()
	c.JSON(http.StatusOK, gin.H{"unread_count": h.readState.UnreadCount(c.Request.Context(), alerts)})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	alerts, _ := h.monitor.Snapshot()
	if err := h.readState.MarkAllRead(c.Request.Context(), alerts); err != nil {
		h.log.Errorf("Mark all read failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark alerts read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": 0})
}

func (h *Handler) GetThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, h.rules.Load(c.Request.Context()))
}

func (h *Handler) PutThresholds(c *gin.Context) {
	var cfg models.ThresholdConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		h.log.Errorf("Invalid threshold config: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.rules.Save(c.Request.Context(), cfg); err != nil {
		h.log.Errorf("Save threshold config failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save thresholds"})
		return
	}
	c.JSON(http.StatusOK, h.rules.Load(c.Request.Context()))
}

func (h *Handler) ResetThresholds(c *gin.Context) {
	cfg, err := h.rules.Reset(c.Request.Context())
	if err != nil {
		h.log.Errorf("Reset threshold config failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset thresholds"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) GetEmailSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.LoadEmail(c.Request.Context()))
}

func (h *Handler) PutEmailSettings(c *gin.Context) {
	var s models.EmailNotificationSettings
	if err := c.ShouldBindJSON(&s); err != nil {
		h.log.Errorf("Invalid email settings: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if s.Enabled && !strings.Contains(s.RecipientEmail, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipient email"})
		return
	}
	if err := h.settings.SaveEmail(c.Request.Context(), s); err != nil {
		h.log.Errorf("Save email settings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) GetTelegramSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.LoadTelegram(c.Request.Context()))
}

func (h *Handler) PutTelegramSettings(c *gin.Context) {
	var s models.TelegramNotificationSettings
	if err := c.ShouldBindJSON(&s); err != nil {
		h.log.Errorf("Invalid telegram settings: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if s.Enabled && s.ChatID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing chat_id"})
		return
	}
	if err := h.settings.SaveTelegram(c.Request.Context(), s); err != nil {
		h.log.Errorf("Save telegram settings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) GetToasts(c *gin.Context) {
	c.JSON(http.StatusOK, h.toasts.List())
}

func (h *Handler) DismissToast(c *gin.Context) {
	id := c.Param("id")
	if !h.toasts.Dismiss(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Toast not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": id})
}

// rangeDurations maps the detail-view range keys to look-back windows.
var rangeDurations = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
	"1m":  30 * 24 * time.Hour,
	"3m":  90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

const detailFetchLimit = 2000

// GetMetricReadings serves the time-range-bounded detail series for one
// metric.
func (h *Handler) GetMetricReadings(c *gin.Context) {
	title, ok := metrics.SlugTitle[c.Param("metric")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown metric"})
		return
	}

	now := time.Now()
	from := now.Add(-rangeDurations["24h"])
	to := now

	rng := c.DefaultQuery("range", "24h")
	switch {
	case rng == "custom":
		f, errF := time.Parse(time.RFC3339, c.Query("from"))
		t, errT := time.Parse(time.RFC3339, c.Query("to"))
		if errF != nil || errT != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Custom range requires RFC3339 from and to"})
			return
		}
		from, to = f, t
	default:
		d, ok := rangeDurations[rng]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown range"})
			return
		}
		from = now.Add(-d)
	}

	rows, err := h.source.QueryReadings(c.Request.Context(), db.ReadingQuery{
		Ascending: true,
		Limit:     detailFetchLimit,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		h.log.Errorf("Detail query failed for %s: %v", title, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch readings"})
		return
	}

	ds := metrics.Extract(rows, 0) // detail view is bounded by the query, not the overview cap
	c.JSON(http.StatusOK, gin.H{
		"metric": title,
		"unit":   metrics.Units[title],
		"points": ds[title],
	})
}
