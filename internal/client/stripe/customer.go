// Package stripe wraps the Stripe SDK calls the relay makes.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

// DefaultRequestTimeout bounds a single Stripe API call.
const DefaultRequestTimeout = 10 * time.Second

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("stripe client not configured")

// CustomerService resolves customer details through the Stripe API.
type CustomerService struct {
	client *stripe.Client
	logger *zap.Logger
}

type customerConfig struct {
	timeout time.Duration
	apiURL  string
}

// CustomerOption configures a CustomerService.
type CustomerOption func(*customerConfig)

// WithRequestTimeout bounds each API call, including connection setup.
func WithRequestTimeout(timeout time.Duration) CustomerOption {
	return func(c *customerConfig) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithAPIURL points the client at a different API host.
func WithAPIURL(url string) CustomerOption {
	return func(c *customerConfig) { c.apiURL = url }
}

// NewCustomerService creates a CustomerService. An empty apiKey yields an
// unconfigured service whose lookups fail with ErrNotConfigured. Calls are
// made without network retries.
func NewCustomerService(apiKey string, logger *zap.Logger, opts ...CustomerOption) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CustomerService{logger: logger}
	if apiKey == "" {
		return s
	}

	cfg := customerConfig{timeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	backend := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.timeout},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.apiURL != "" {
		backend.URL = stripe.String(cfg.apiURL)
	}
	s.client = stripe.NewClient(apiKey, stripe.WithBackends(stripe.NewBackendsWithConfig(backend)))
	return s
}

// Configured reports whether an API key was provided.
func (s *CustomerService) Configured() bool {
	return s.client != nil
}

// RetrieveCustomerEmail returns the email on file for customerID.
func (s *CustomerService) RetrieveCustomerEmail(ctx context.Context, customerID string) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}
	if customerID == "" {
		return "", fmt.Errorf("stripe customer id is required")
	}

	cust, err := s.client.V1Customers.Retrieve(ctx, customerID, &stripe.CustomerRetrieveParams{})
	if err != nil {
		return "", fmt.Errorf("failed to fetch stripe customer %s: %w", customerID, err)
	}
	if cust.Deleted {
		return "", fmt.Errorf("stripe customer %s is deleted", customerID)
	}

	s.logger.Debug("stripe customer fetched", zap.String("stripe_customer_id", customerID))
	return cust.Email, nil
}
