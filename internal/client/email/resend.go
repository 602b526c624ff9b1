// Package email sends transactional email through Resend.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("email transport not configured")

// Message is a single outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Tags    map[string]string
}

// ResendClient delivers messages with the Resend API.
type ResendClient struct {
	client *resend.Client
	logger *zap.Logger
}

// NewResendClient creates a client. An empty apiKey yields a client whose
// Send always fails with ErrNotConfigured.
func NewResendClient(apiKey string, logger *zap.Logger) *ResendClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ResendClient{logger: logger}
	if apiKey != "" {
		c.client = resend.NewClient(apiKey)
	}
	return c
}

// Configured reports whether the client has credentials.
func (c *ResendClient) Configured() bool {
	return c.client != nil
}

// Send delivers msg and returns the provider's message id.
func (c *ResendClient) Send(ctx context.Context, msg Message) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}
	if msg.From == "" || len(msg.To) == 0 {
		return "", fmt.Errorf("email requires a sender and at least one recipient")
	}

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Headers: map[string]string{
			"X-Entity-Ref-ID": uuid.New().String(),
		},
		Tags: convertToResendTags(msg.Tags),
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		c.logger.Error("failed to send email",
			zap.Error(err),
			zap.Strings("to", msg.To),
			zap.String("subject", msg.Subject))
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Info("email sent successfully",
		zap.String("email_id", sent.Id),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject))

	return sent.Id, nil
}

// FormatAddress renders "Name <address>" or just the address when name is empty.
func FormatAddress(name, address string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

// Resend tag values only allow ASCII letters, digits, underscores and dashes.
func convertToResendTags(tags map[string]string) []resend.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		out = append(out, resend.Tag{Name: sanitizeTag(name), Value: sanitizeTag(value)})
	}
	return out
}

func sanitizeTag(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
