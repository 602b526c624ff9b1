package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxRawBodyBytes caps the size of bodies captured by RawBodyMiddleware.
const MaxRawBodyBytes int64 = 1 << 20

const rawBodyKey = "rawBody"

// BodyReader implements io.ReadCloser to allow re-reading request body
type BodyReader struct {
	*bytes.Reader
}

// NewBodyReader creates a new BodyReader from bytes
func NewBodyReader(body []byte) io.ReadCloser {
	return &BodyReader{Reader: bytes.NewReader(body)}
}

// Close implements io.ReadCloser
func (r *BodyReader) Close() error {
	return nil
}

// RawBodyMiddleware reads the request body exactly once, before any binding,
// and stores the bytes for signature checks. The body is replaced with a
// re-readable copy.
func RawBodyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxRawBodyBytes))
			if err != nil {
				status := http.StatusBadRequest
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					status = http.StatusRequestEntityTooLarge
				}
				LogWithCorrelationID(c.Request.Context()).Error("Failed to read request body",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err))
				c.AbortWithStatusJSON(status, gin.H{"error": "unable to read request body"})
				return
			}
		}

		c.Set(rawBodyKey, body)
		c.Request.Body = NewBodyReader(body)
		c.Next()
	}
}

// GetRawBody returns the bytes captured by RawBodyMiddleware.
func GetRawBody(c *gin.Context) ([]byte, bool) {
	v, ok := c.Get(rawBodyKey)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}
