package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/cyphera/payment-alerts/internal/constants"

	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// DefaultTolerance bounds the age of Stripe-native signed payloads.
const DefaultTolerance = stripewebhook.DefaultTolerance

// Verifier authenticates inbound webhook bodies with a shared secret.
//
// Two header formats are accepted:
//   - "v1=<hex>" where hex is HMAC-SHA256(secret, rawBody)
//   - Stripe's native "t=<unix>,v1=<hex>" format, validated by stripe-go
type Verifier struct {
	secret    string
	tolerance time.Duration
}

// NewVerifier creates a Verifier. An empty secret produces a disabled verifier.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}
}

// Enabled reports whether a signing secret is configured.
func (v *Verifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// Verify checks header against body. It never panics on malformed input; every
// failure wraps ErrSignatureInvalid.
func (v *Verifier) Verify(body []byte, header string) error {
	if !v.Enabled() {
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, ErrSecretNotConfigured)
	}

	header = strings.TrimSpace(header)
	if header == "" {
		return fmt.Errorf("%w: missing signature header", ErrSignatureInvalid)
	}

	if strings.HasPrefix(header, "t=") {
		if err := stripewebhook.ValidatePayloadWithTolerance(body, header, v.secret, v.tolerance); err != nil {
			return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		return nil
	}

	expected := Sign(body, v.secret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(header)) != 1 {
		return fmt.Errorf("%w: signature mismatch", ErrSignatureInvalid)
	}
	return nil
}

// Sign returns the "v1=<hex>" header value for body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return constants.SignatureVersionPrefix + hex.EncodeToString(mac.Sum(nil))
}
