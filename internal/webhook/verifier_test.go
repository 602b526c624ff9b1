package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func TestSign_Format(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	got := Sign([]byte("The quick brown fox jumps over the lazy dog"), "key")
	assert.Equal(t, "v1=f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", got)
}

func TestVerifier_Enabled(t *testing.T) {
	assert.True(t, NewVerifier(testSecret, 0).Enabled())
	assert.False(t, NewVerifier("", 0).Enabled())

	var nilVerifier *Verifier
	assert.False(t, nilVerifier.Enabled())
}

func TestVerifier_Verify(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"charge.failed"}`)
	v := NewVerifier(testSecret, 0)

	tests := []struct {
		name    string
		body    []byte
		header  string
		wantErr bool
	}{
		{name: "valid signature", body: body, header: Sign(body, testSecret)},
		{name: "valid signature with surrounding whitespace", body: body, header: "  " + Sign(body, testSecret) + "\n"},
		{name: "empty header", body: body, header: "", wantErr: true},
		{name: "garbage header", body: body, header: "not-a-signature", wantErr: true},
		{name: "missing prefix", body: body, header: Sign(body, testSecret)[3:], wantErr: true},
		{name: "uppercase hex rejected", body: body, header: "v1=" + "F7BC83F430538424B13298E6AA6FB143EF4D59A14946175997479DBC2D1A3CD8", wantErr: true},
		{name: "signed with another secret", body: body, header: Sign(body, "other"), wantErr: true},
		{name: "empty body signed", body: []byte{}, header: Sign([]byte{}, testSecret)},
		{name: "malformed stripe header", body: body, header: "t=abc,v1=zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.body, tt.header)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSignatureInvalid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerifier_SingleByteMutationsFail(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1"}}}`)
	v := NewVerifier(testSecret, 0)
	header := Sign(body, testSecret)
	require.NoError(t, v.Verify(body, header))

	t.Run("body mutations", func(t *testing.T) {
		for i := range body {
			mutated := append([]byte(nil), body...)
			mutated[i] ^= 0x01
			assert.Error(t, v.Verify(mutated, header), "mutation at body index %d accepted", i)
		}
	})

	t.Run("signature mutations", func(t *testing.T) {
		for i := range header {
			mutated := []byte(header)
			mutated[i] ^= 0x01
			assert.Error(t, v.Verify(body, string(mutated)), "mutation at header index %d accepted", i)
		}
	})
}

func TestVerifier_DisabledRejects(t *testing.T) {
	body := []byte(`{}`)
	err := NewVerifier("", 0).Verify(body, Sign(body, ""))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSignatureInvalid))
	assert.True(t, errors.Is(err, ErrSecretNotConfigured))
}

func TestVerifier_StripeNativeHeader(t *testing.T) {
	body := []byte(`{"id":"evt_native","type":"charge.failed"}`)
	v := NewVerifier(testSecret, 5*time.Minute)

	t.Run("fresh signature accepted", func(t *testing.T) {
		signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
			Payload:   body,
			Secret:    testSecret,
			Timestamp: time.Now(),
		})
		assert.NoError(t, v.Verify(body, signed.Header))
	})

	t.Run("stale signature rejected", func(t *testing.T) {
		signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
			Payload:   body,
			Secret:    testSecret,
			Timestamp: time.Now().Add(-time.Hour),
		})
		err := v.Verify(body, signed.Header)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSignatureInvalid))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
			Payload:   body,
			Secret:    "whsec_other",
			Timestamp: time.Now(),
		})
		assert.Error(t, v.Verify(body, signed.Header))
	})
}
