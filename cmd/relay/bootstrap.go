package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/cyphera/payment-alerts/internal/activitylog"
	awsclient "github.com/cyphera/payment-alerts/internal/client/aws"
	"github.com/cyphera/payment-alerts/internal/config"
	"github.com/cyphera/payment-alerts/internal/constants"
	"github.com/cyphera/payment-alerts/internal/helpers"
	"github.com/cyphera/payment-alerts/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bootstrap loads the environment, configuration and logger. Any failure exits the process.
func bootstrap(ctx context.Context) (*config.Config, *activitylog.Buffer) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = helpers.StageLocal
	}
	logger.InitLogger(stage)

	var secrets config.SecretGetter = awsclient.NewSecretsManagerClientWithAPI(nil)
	if strings.EqualFold(os.Getenv("USE_SECRETS_MANAGER"), "true") {
		client, err := awsclient.NewSecretsManagerClient(ctx)
		if err != nil {
			logger.Fatal("Failed to initialize AWS Secrets Manager client", zap.Error(err))
		}
		secrets = client
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logs := activitylog.New(cfg.LogBufferCapacity)
	level := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger.InitLoggerWithConfig(logger.LoggerConfig{
		Level:       level.String(),
		Stage:       cfg.Stage,
		EnableJSON:  cfg.Stage == constants.ProdEnvironment,
		EnableColor: cfg.Stage != constants.ProdEnvironment,
	}, logger.NewActivityCore(logs, maxLevel(level, zapcore.InfoLevel)))

	logger.Info("Configuration loaded",
		zap.String("stage", cfg.Stage),
		zap.Bool("stripe_configured", cfg.StripeConfigured()),
		zap.Bool("airtable_configured", cfg.AirtableConfigured()),
		zap.Bool("email_configured", cfg.EmailConfigured()),
		zap.Bool("webhook_verification", cfg.WebhookVerificationEnabled()),
	)

	return cfg, logs
}

func maxLevel(a, b zapcore.Level) zapcore.Level {
	if a > b {
		return a
	}
	return b
}
