// Package airtable creates records through the Airtable REST API.
package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	httpclient "github.com/cyphera/payment-alerts/internal/client/http"

	"go.uber.org/zap"
)

// DefaultAPIURL is the public Airtable API endpoint.
const DefaultAPIURL = "https://api.airtable.com"

// ErrNotConfigured is returned when the API key or base id is missing.
var ErrNotConfigured = errors.New("airtable client not configured")

// Config holds the Airtable credentials.
type Config struct {
	APIKey string
	BaseID string
	APIURL string
}

// Client creates records in a single Airtable base.
type Client struct {
	http   *httpclient.HTTPClient
	apiKey string
	baseID string
	logger *zap.Logger
}

type createRequest struct {
	Records  []recordFields `json:"records"`
	Typecast bool           `json:"typecast"`
}

type recordFields struct {
	Fields map[string]interface{} `json:"fields"`
}

type createResponse struct {
	Records []struct {
		ID          string `json:"id"`
		CreatedTime string `json:"createdTime"`
	} `json:"records"`
}

// NewClient builds a Client. Extra options are applied to the underlying HTTP client.
func NewClient(cfg Config, logger *zap.Logger, options ...httpclient.ClientOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	opts := append([]httpclient.ClientOption{
		httpclient.WithBaseURL(apiURL),
		httpclient.WithLogger(logger),
	}, options...)

	return &Client{
		http:   httpclient.NewHTTPClient(opts...),
		apiKey: cfg.APIKey,
		baseID: cfg.BaseID,
		logger: logger,
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.baseID != ""
}

// CreateRecord inserts one row into table and returns its record id.
func (c *Client) CreateRecord(ctx context.Context, table string, fields map[string]interface{}) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if table == "" {
		return "", fmt.Errorf("airtable table name is required")
	}

	path := fmt.Sprintf("/v0/%s/%s", url.PathEscape(c.baseID), url.PathEscape(table))
	body := createRequest{
		Records:  []recordFields{{Fields: fields}},
		Typecast: true,
	}

	resp, err := c.http.Post(ctx, path, body, httpclient.WithBearerToken(c.apiKey))
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return "", fmt.Errorf("failed to create airtable record in %q: %w", table, err)
	}

	var out createResponse
	if err := c.http.ProcessJSONResponse(resp, &out); err != nil {
		return "", fmt.Errorf("failed to read airtable response: %w", err)
	}
	if len(out.Records) == 0 || out.Records[0].ID == "" {
		return "", fmt.Errorf("airtable response contained no record id")
	}

	c.logger.Info("airtable record created",
		zap.String("table", table),
		zap.String("record_id", out.Records[0].ID))

	return out.Records[0].ID, nil
}
