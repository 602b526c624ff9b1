package server

import (
	"context"
	"net/http"

	_ "github.com/cyphera/payment-alerts/docs"
	"github.com/cyphera/payment-alerts/internal/activitylog"
	"github.com/cyphera/payment-alerts/internal/client/airtable"
	"github.com/cyphera/payment-alerts/internal/client/email"
	httpclient "github.com/cyphera/payment-alerts/internal/client/http"
	stripeclient "github.com/cyphera/payment-alerts/internal/client/stripe"
	"github.com/cyphera/payment-alerts/internal/config"
	"github.com/cyphera/payment-alerts/internal/constants"
	"github.com/cyphera/payment-alerts/internal/handlers"
	"github.com/cyphera/payment-alerts/internal/logger"
	"github.com/cyphera/payment-alerts/internal/middleware"
	"github.com/cyphera/payment-alerts/internal/payments"
	"github.com/cyphera/payment-alerts/internal/webhook"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Collaborators are the outbound side effects the relay drives.
type Collaborators struct {
	// Customers may be nil, in which case customer emails are reported as unknown.
	Customers payments.CustomerLookup
	Notifier  payments.Notifier
	Recorder  payments.Recorder
}

// Handlers groups the HTTP handlers served by the relay.
type Handlers struct {
	Webhook     *handlers.WebhookHandler
	Diagnostics *handlers.DiagnosticsHandler
	Test        *handlers.TestHandler
}

// NewCollaborators builds the Stripe, Resend and Airtable backed collaborators.
func NewCollaborators(cfg *config.Config) Collaborators {
	var customers payments.CustomerLookup
	if cfg.StripeConfigured() {
		customers = stripeclient.NewCustomerService(cfg.StripeSecretKey, logger.Log,
			stripeclient.WithRequestTimeout(cfg.DispatchTimeout))
	}

	emailClient := email.NewResendClient(cfg.ResendAPIKey, logger.Log)
	notifier := payments.NewAlertNotifier(
		emailClient,
		email.FormatAddress(cfg.EmailFromName, cfg.EmailFrom),
		cfg.AlertEmailTo,
		logger.Log,
	)

	airtableClient := airtable.NewClient(
		airtable.Config{
			APIKey: cfg.AirtableAPIKey,
			BaseID: cfg.AirtableBaseID,
			APIURL: cfg.AirtableAPIURL,
		},
		logger.Log,
		httpclient.WithTimeout(cfg.DispatchTimeout),
		httpclient.WithMiddleware(httpclient.LoggingMiddleware(logger.Log)),
	)
	recorder := payments.NewTableRecorder(airtableClient, cfg.AirtableTableName, logger.Log)

	return Collaborators{
		Customers: customers,
		Notifier:  notifier,
		Recorder:  recorder,
	}
}

// InitializeHandlers wires the collaborators into the HTTP handlers.
func InitializeHandlers(cfg *config.Config, logs *activitylog.Buffer, collab Collaborators) *Handlers {
	activity := handlers.NewActivityTracker()
	verifier := webhook.NewVerifier(cfg.StripeWebhookSecret, cfg.SignatureTolerance)
	mode := handlers.VerificationMode(verifier, cfg.AllowUnverifiedWebhooks)

	switch mode {
	case "insecure":
		logger.Warn("STRIPE_WEBHOOK_SECRET is not set and ALLOW_UNVERIFIED_WEBHOOKS is on: webhook signatures will NOT be verified")
	case "disabled":
		logger.Error("STRIPE_WEBHOOK_SECRET is not set: all webhooks will be rejected until it is configured")
	}

	normalizer := payments.NewNormalizer(collab.Customers, logger.Log, payments.WithLookupTimeout(cfg.DispatchTimeout))
	fanout := payments.NewFanout(collab.Notifier, collab.Recorder, cfg.DispatchTimeout, logger.Log)

	return &Handlers{
		Webhook: handlers.NewWebhookHandler(verifier, cfg.AllowUnverifiedWebhooks, normalizer, fanout, activity),
		Diagnostics: handlers.NewDiagnosticsHandler(handlers.ServiceInfo{
			Stage:              cfg.Stage,
			PublicBaseURL:      cfg.PublicBaseURL,
			StripeConfigured:   cfg.StripeConfigured(),
			AirtableConfigured: cfg.AirtableConfigured(),
			EmailConfigured:    cfg.EmailConfigured(),
			VerificationMode:   mode,
		}, logs, activity),
		Test: handlers.NewTestHandler(collab.Notifier, collab.Recorder, cfg.DispatchTimeout, activity),
	}
}

// InitializeRoutes registers middleware and routes. When /test is rate limited
// the limiter's cleanup runs until ctx is cancelled.
func InitializeRoutes(ctx context.Context, router *gin.Engine, cfg *config.Config, h *Handlers) {
	router.Use(
		gin.CustomRecovery(recoverPanic),
		middleware.CorrelationIDMiddleware(),
		middleware.RequestLoggingMiddleware("/health", "/logs"),
		configureCORS(cfg.CORS),
	)

	router.GET("/", h.Diagnostics.Root)
	router.GET("/health", h.Diagnostics.Health)
	router.GET("/logs", h.Diagnostics.Logs)
	router.GET("/setup-webhook", h.Diagnostics.SetupWebhook)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.POST(constants.StripeWebhookPath, middleware.RawBodyMiddleware(), h.Webhook.HandleStripeWebhook)

	if cfg.TestRateLimit > 0 {
		testLimiter := middleware.NewRateLimiter(cfg.TestRateLimit, cfg.TestRateBurst)
		testLimiter.StartCleanup(ctx)
		router.POST("/test", testLimiter.Middleware(), h.Test.RunTests)
	} else {
		router.POST("/test", h.Test.RunTests)
	}
}

// NewRouter builds a ready-to-serve engine.
func NewRouter(ctx context.Context, cfg *config.Config, logs *activitylog.Buffer, collab Collaborators) *gin.Engine {
	if cfg.Stage == constants.ProdEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	InitializeRoutes(ctx, router, cfg, InitializeHandlers(cfg, logs, collab))
	return router
}

func recoverPanic(c *gin.Context, recovered interface{}) {
	middleware.LogWithCorrelationID(c.Request.Context()).Error("Recovered from panic",
		zap.Any("panic", recovered),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorResponse{Error: "Internal server error"})
}

// configureCORS returns a configured CORS middleware
func configureCORS(cfg config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	if len(cfg.AllowedMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowedHeaders
	}
	corsConfig.ExposeHeaders = append([]string{middleware.CorrelationIDHeader}, cfg.ExposedHeaders...)
	corsConfig.AllowCredentials = cfg.AllowCredentials

	return cors.New(corsConfig)
}
