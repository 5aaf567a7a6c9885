package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger(t *testing.T) {
	logBuffer := new(bytes.Buffer)
	testLogger := slog.New(slog.NewJSONHandler(logBuffer, nil))

	responseStatus := http.StatusAccepted
	responseBody := "hello from next handler"
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(responseStatus)
		_, _ = w.Write([]byte(responseBody))
	})

	req := httptest.NewRequest(http.MethodGet, "/loans?status=ACTIVE", nil)
	req.RemoteAddr = "192.0.2.1:12345"
	req.Header.Set("User-Agent", "TestAgent/1.0")

	reqID := "test-request-id-123"
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, reqID))

	rec := httptest.NewRecorder()
	StructuredLogger(testLogger)(nextHandler).ServeHTTP(rec, req)

	assert.Equal(t, responseStatus, rec.Code)
	assert.Equal(t, responseBody, rec.Body.String())

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(logBuffer.Bytes(), &logEntry), "failed to unmarshal log output")

	assert.Equal(t, "INFO", logEntry["level"])
	assert.Equal(t, "Served request", logEntry["msg"])
	assert.Equal(t, req.Method, logEntry["method"])
	assert.Equal(t, "/loans", logEntry["path"])
	assert.Equal(t, req.RemoteAddr, logEntry["remote_addr"])
	assert.Equal(t, req.UserAgent(), logEntry["user_agent"])
	assert.Equal(t, float64(responseStatus), logEntry["status"])
	assert.Equal(t, float64(len(responseBody)), logEntry["bytes_written"])
	assert.Equal(t, reqID, logEntry["request_id"])

	latency, ok := logEntry["latency_ms"].(float64)
	assert.True(t, ok, "latency should be a float64")
	assert.Greater(t, latency, 0.0)
}

func TestStructuredLoggerNoRequestID(t *testing.T) {
	logBuffer := new(bytes.Buffer)
	testLogger := slog.New(slog.NewJSONHandler(logBuffer, nil))

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/treasury/movements", nil)
	rec := httptest.NewRecorder()
	StructuredLogger(testLogger)(nextHandler).ServeHTTP(rec, req)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(logBuffer.Bytes(), &logEntry), "failed to unmarshal log output")

	assert.Equal(t, "", logEntry["request_id"], "request_id should be empty when no RequestID middleware ran")
	assert.Equal(t, float64(http.StatusOK), logEntry["status"])
	assert.Equal(t, "/treasury/movements", logEntry["path"])
}
