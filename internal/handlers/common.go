package handlers

import (
	"sync/atomic"
	"time"

	"github.com/cyphera/payment-alerts/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// sendError logs the error with the given message and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	middleware.LogWithCorrelationID(c.Request.Context()).Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// ActivityTracker records when the relay last did useful work.
type ActivityTracker struct {
	last atomic.Int64
}

// NewActivityTracker creates an ActivityTracker with no recorded activity.
func NewActivityTracker() *ActivityTracker {
	return &ActivityTracker{}
}

// Touch records activity at t.
func (a *ActivityTracker) Touch(t time.Time) {
	a.last.Store(t.UnixNano())
}

// Last returns the last activity time, or nil if there was none.
func (a *ActivityTracker) Last() *time.Time {
	n := a.last.Load()
	if n == 0 {
		return nil
	}
	t := time.Unix(0, n).UTC()
	return &t
}
