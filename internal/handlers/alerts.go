package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"solarwatch/internal/models"
	"solarwatch/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// Request DTO for configuring the alert channel.
type configureAlertsRequest struct {
	Destination string `json:"destination" binding:"required"`
	Enabled     *bool  `json:"enabled,omitempty"` // defaults to true
}

// ConfigureAlertsRequest is an exported model for Swagger docs of the
// configure payload.
type ConfigureAlertsRequest struct {
	// Destination address for notifications, e.g. a phone number
	Destination string `json:"destination" example:"+15551234567"`
	// Whether alerting is active; defaults to true
	Enabled *bool `json:"enabled,omitempty" example:"true"`
}

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      Configure the alert channel
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        body  body   ConfigureAlertsRequest  true  "Destination and enabled flag"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/alerts/configure [post]
func (h *Handler) configureAlerts(c *gin.Context) {
	var req configureAlertsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPre + err.Error()})
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	dest, err := h.services.Alerts.Configure(c.Request.Context(), req.Destination, enabled)
	if err != nil {
		// Configuration took effect in memory; only persistence failed.
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to persist alert config", "alerts_configure_persist_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      statusOK,
		"destination": dest,
		"enabled":     enabled,
	})
}

// @Summary      Alert channel status
// @Tags         alerts
// @Produce      json
// @Success      200  {object}  service.AlertStatus
// @Router       /api/v1/alerts/status [get]
func (h *Handler) alertStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Alerts.Status())
}

// @Summary      Send a test notification
// @Description  Rejected with 429 while a transmission is in flight. Never touches the cooldown state.
// @Tags         alerts
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /api/v1/alerts/test [post]
func (h *Handler) testAlert(c *gin.Context) {
	if err := h.services.Alerts.SendTest(); err != nil {
		switch {
		case errors.Is(err, service.ErrAlertsNotConfigured):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrDispatchInProgress):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, "failed to send test alert", "alerts_test_failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      List alert dispatch history
// @Description  Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         alerts
// @Produce      json
// @Param        from        query   string  false  "Start of range"  example(2026-08-01)
// @Param        to          query   string  false  "End of range. Date-only treated as end of day."  example(2026-08-31)
// @Param        fault_type  query   string  false  "Fault label"  Enums(Open_Circuit,Partial_Shading,Short_Circuit,Dust_Accumulation)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/alerts/log [get]
func (h *Handler) alertLog(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		from      time.Time
		to        time.Time
		faultType = strings.TrimSpace(c.Query("fault_type"))
		err       error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	// If only a date is provided, make 'to' end-of-day inclusive.
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return
	}
	if faultType != "" && models.FaultIndex(faultType) < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown fault_type"})
		return
	}

	events, err := h.services.AlertLog.List(ctx, service.LogFilter{
		From:      from,
		To:        to,
		FaultType: faultType,
	})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("alert_log_list_failed", "err", err, "from", from, "to", to, "fault_type", faultType)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load alert log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2026-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
