package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_PostJSON(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v0/base/table", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"rec_1"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(WithBaseURL(server.URL+"/"), WithTimeout(5*time.Second))
	resp, err := client.Post(context.Background(), "v0/base/table", map[string]string{"hello": "world"}, WithBearerToken("secret"))
	require.NoError(t, err)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, client.ProcessJSONResponse(resp, &out))

	assert.Equal(t, "rec_1", out.ID)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "world", gotBody["hello"])
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"type":"INVALID_VALUE"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(WithBaseURL(server.URL))
	_, err := client.Post(context.Background(), "/records", map[string]string{})
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "INVALID_VALUE")
	assert.Contains(t, httpErr.Error(), "422")
}

func TestHTTPClient_NoRetryOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(WithBaseURL(server.URL))
	resp, err := client.Post(context.Background(), "/", map[string]int{"n": 1})
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPClient_MiddlewareOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var order []string
	tag := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}

	client := NewHTTPClient(WithBaseURL(server.URL), WithMiddleware(tag("outer")), WithMiddleware(tag("inner")))
	resp, err := client.Post(context.Background(), "/", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestHTTPClient_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHTTPClient(WithBaseURL(server.URL)).Post(ctx, "/slow", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
