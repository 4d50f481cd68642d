package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/dashboard"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/notify"
)

// NotificationHandler exposes the single transient notification
type NotificationHandler struct {
	BaseHandler
	notifier *notify.Notifier
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifier *notify.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// Current returns the active notification or null
func (h *NotificationHandler) Current(c *gin.Context) {
	msg, ok := h.notifier.Current()
	if !ok {
		h.Success(c, nil)
		return
	}
	h.Success(c, msg)
}

// Dismiss hides the active notification
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	h.notifier.Dismiss()
	c.Status(http.StatusNoContent)
}

// DashboardHandler serves the metrics dashboard
type DashboardHandler struct {
	BaseHandler
	dashboard *dashboard.Dashboard
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(d *dashboard.Dashboard) *DashboardHandler {
	return &DashboardHandler{dashboard: d}
}

// Get returns the dashboard. With wait=true the response waits for pending fetches.
func (h *DashboardHandler) Get(c *gin.Context) {
	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		h.Success(c, h.dashboard.Load(c.Request.Context()))
		return
	}
	h.Success(c, h.dashboard.Snapshot())
}

// Refresh refetches every metric group
func (h *DashboardHandler) Refresh(c *gin.Context) {
	h.dashboard.Refresh()
	h.Success(c, h.dashboard.Snapshot())
}

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
