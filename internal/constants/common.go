package constants

// Common string constants used throughout the codebase
const (
	// Service identity
	ServiceName    = "payment-alerts"
	ServiceVersion = "1.0.0"

	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"

	// Payment providers
	StripeProvider = "stripe"

	// Integrations reported by the health endpoint
	AirtableIntegration = "airtable"
	EmailIntegration    = "email"

	// Test run results
	TestPassed = "passed"
	TestFailed = "failed"
)

// Stripe event types the relay subscribes to.
const (
	EventPaymentIntentFailed  = "payment_intent.payment_failed"
	EventInvoicePaymentFailed = "invoice.payment_failed"
	EventChargeFailed         = "charge.failed"
)

// SubscribedEvents lists the event types to enable on the Stripe endpoint.
var SubscribedEvents = []string{
	EventPaymentIntentFailed,
	EventInvoicePaymentFailed,
	EventChargeFailed,
}

// Webhook routes and headers
const (
	StripeWebhookPath      = "/webhook/stripe"
	StripeSignatureHeader  = "Stripe-Signature"
	SignatureVersionPrefix = "v1="
)
