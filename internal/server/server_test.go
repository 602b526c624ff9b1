package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cyphera/payment-alerts/internal/activitylog"
	"github.com/cyphera/payment-alerts/internal/config"
	"github.com/cyphera/payment-alerts/internal/logger"
	"github.com/cyphera/payment-alerts/internal/middleware"
	"github.com/cyphera/payment-alerts/internal/mocks"
	"github.com/cyphera/payment-alerts/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zapcore"
)

const testSecret = "whsec_server_test"

func testConfig() *config.Config {
	return &config.Config{
		Stage:               "local",
		Port:                "3000",
		StripeWebhookSecret: testSecret,
		AirtableTableName:   config.DefaultAirtableTableName,
		SignatureTolerance:  webhook.DefaultTolerance,
		DispatchTimeout:     time.Second,
		LogBufferCapacity:   20,
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://dashboard.example.com"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Stripe-Signature"},
		},
	}
}

type configOption func(*config.Config)

type serverFixture struct {
	router   *gin.Engine
	logs     *activitylog.Buffer
	notifier *mocks.MockNotifier
	recorder *mocks.MockRecorder
}

func newServerFixture(t *testing.T, opts ...configOption) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	logs := activitylog.New(cfg.LogBufferCapacity)
	logger.InitLoggerWithConfig(logger.LoggerConfig{Stage: "local", Level: "info"}, logger.NewActivityCore(logs, zapcore.InfoLevel))

	notifier := mocks.NewMockNotifierForTest(t)
	recorder := mocks.NewMockRecorderForTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := NewRouter(ctx, cfg, logs, Collaborators{Notifier: notifier, Recorder: recorder})
	return &serverFixture{router: router, logs: logs, notifier: notifier, recorder: recorder}
}

func (f *serverFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndCorrelation(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.CorrelationIDHeader))

	var resp struct {
		Status              string          `json:"status"`
		Integrations        map[string]bool `json:"integrations"`
		WebhookVerification string          `json:"webhook_verification"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "enabled", resp.WebhookVerification)
	assert.False(t, resp.Integrations["airtable"])
}

func TestRouter_WebhookEndToEnd(t *testing.T) {
	f := newServerFixture(t)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	f.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return("rec_1", nil).Times(1)

	body := []byte(`{"id":"evt_1","type":"charge.failed","data":{"object":{"id":"ch_1","amount":1500,"currency":"usd"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", webhook.Sign(body, testSecret))

	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())

	// The webhook activity is visible through /logs.
	w = f.do(httptest.NewRequest(http.MethodGet, "/logs?limit=20", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var logs struct {
		Logs []activitylog.Entry `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))

	messages := make([]string, 0, len(logs.Logs))
	for _, e := range logs.Logs {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "Webhook received")
	assert.Contains(t, messages, "Failed payment processed")
}

func TestRouter_WebhookBadSignature(t *testing.T) {
	f := newServerFixture(t)

	body := []byte(`{"id":"evt_1","type":"charge.failed","data":{"object":{"id":"ch_1"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "v1=deadbeef")

	w := f.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_TestEndpointUnlimitedByDefault(t *testing.T) {
	f := newServerFixture(t)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(6)
	f.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return("rec_1", nil).Times(6)

	for i := 0; i < 6; i++ {
		assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodPost, "/test", nil)).Code)
	}
}

func TestRouter_TestEndpointRateLimited(t *testing.T) {
	f := newServerFixture(t, func(cfg *config.Config) {
		cfg.TestRateLimit = 1
		cfg.TestRateBurst = 2
	})
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return("rec_1", nil).Times(2)

	// Rotating X-Forwarded-For from an untrusted peer does not reset the limit.
	var codes []int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		codes = append(codes, f.do(req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	w := f.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dashboard.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RecoversPanics(t *testing.T) {
	f := newServerFixture(t)
	f.router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := f.do(httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestRouter_SwaggerDocs(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Swagger string                     `json:"swagger"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	for _, path := range []string{"/", "/health", "/logs", "/setup-webhook", "/test", "/webhook/stripe"} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestConfigureCORS_AllowAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(configureCORS(config.CORSConfig{}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
