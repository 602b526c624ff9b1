package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cyphera/payment-alerts/internal/activitylog"
	"github.com/cyphera/payment-alerts/internal/constants"

	"github.com/gin-gonic/gin"
)

// DefaultLogLimit is the number of entries /logs returns without ?limit.
const DefaultLogLimit = 50

// ServiceInfo is the static description reported by the diagnostics routes.
type ServiceInfo struct {
	Stage              string
	PublicBaseURL      string
	StripeConfigured   bool
	AirtableConfigured bool
	EmailConfigured    bool
	VerificationMode   string
}

// DiagnosticsHandler serves the read-only operational endpoints.
type DiagnosticsHandler struct {
	info     ServiceInfo
	logs     *activitylog.Buffer
	activity *ActivityTracker
	now      func() time.Time
}

// NewDiagnosticsHandler creates a DiagnosticsHandler.
func NewDiagnosticsHandler(info ServiceInfo, logs *activitylog.Buffer, activity *ActivityTracker) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		info:     info,
		logs:     logs,
		activity: activity,
		now:      time.Now,
	}
}

// HealthResponse is returned by /health
type HealthResponse struct {
	Status              string          `json:"status"`
	Timestamp           time.Time       `json:"timestamp"`
	Integrations        map[string]bool `json:"integrations"`
	WebhookVerification string          `json:"webhook_verification"`
}

// LogsResponse is returned by /logs
type LogsResponse struct {
	Logs    []activitylog.Entry `json:"logs"`
	Total   int                 `json:"total"`
	Evicted uint64              `json:"evicted"`
}

// Root godoc
// @Summary      Service descriptor
// @Description  Name, version, stage, endpoints and the time of the last processed webhook or test run
// @Tags         diagnostics
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       / [get]
func (h *DiagnosticsHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    constants.ServiceName,
		"version": constants.ServiceVersion,
		"stage":   h.info.Stage,
		"status":  "running",
		"endpoints": gin.H{
			"GET /":                "service descriptor",
			"GET /health":          "integration status",
			"GET /logs":            "recent activity log (?limit=N)",
			"POST /webhook/stripe": "Stripe webhook receiver",
			"POST /test":           "send a test alert and record",
			"GET /setup-webhook":   "Stripe webhook setup instructions",
			"GET /swagger/*any":    "OpenAPI documentation",
		},
		"last_activity": h.activity.Last(),
	})
}

// Health godoc
// @Summary      Health check
// @Description  Reports which integrations are configured and the webhook verification mode
// @Tags         diagnostics
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *DiagnosticsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Integrations: map[string]bool{
			constants.StripeProvider:      h.info.StripeConfigured,
			constants.AirtableIntegration: h.info.AirtableConfigured,
			constants.EmailIntegration:    h.info.EmailConfigured,
		},
		WebhookVerification: h.info.VerificationMode,
	})
}

// Logs godoc
// @Summary      Recent activity
// @Description  Returns the most recent activity log entries, oldest first
// @Tags         diagnostics
// @Produce      json
// @Param        limit  query     int  false  "Number of entries (default 50, capped at buffer capacity)"
// @Success      200    {object}  LogsResponse
// @Failure      400    {object}  ErrorResponse
// @Router       /logs [get]
func (h *DiagnosticsHandler) Logs(c *gin.Context) {
	limit := DefaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > h.logs.Capacity() {
		limit = h.logs.Capacity()
	}

	c.JSON(http.StatusOK, LogsResponse{
		Logs:    h.logs.Snapshot(limit),
		Total:   h.logs.Len(),
		Evicted: h.logs.Evicted(),
	})
}

// SetupWebhook godoc
// @Summary      Webhook setup instructions
// @Description  Returns the URL and events to configure on the Stripe dashboard
// @Tags         diagnostics
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /setup-webhook [get]
func (h *DiagnosticsHandler) SetupWebhook(c *gin.Context) {
	webhookURL := h.baseURL(c) + constants.StripeWebhookPath

	c.JSON(http.StatusOK, gin.H{
		"webhook_url":          webhookURL,
		"events":               constants.SubscribedEvents,
		"webhook_verification": h.info.VerificationMode,
		"instructions": []string{
			"Open the Stripe Dashboard and go to Developers > Webhooks",
			"Add an endpoint with the URL " + webhookURL,
			"Subscribe to the listed events",
			"Copy the signing secret into STRIPE_WEBHOOK_SECRET and restart the relay",
		},
	})
}

func (h *DiagnosticsHandler) baseURL(c *gin.Context) string {
	if h.info.PublicBaseURL != "" {
		return h.info.PublicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
