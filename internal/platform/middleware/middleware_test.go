package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generates when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("reuses client header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "abc-123", seen)
	})
}

func TestClientMetadata(t *testing.T) {
	var info ClientInfo
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info = GetClientInfo(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/register/submit", nil)
	req.RemoteAddr = "10.0.0.5:51234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36")

	ClientMetadata(false)(next).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.0.0.5", info.IPAddress)
	assert.Contains(t, info.Device, "Chrome")
	assert.Contains(t, info.Device, "(mobile)")

	ClientMetadata(true)(next).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.9", info.IPAddress)
}

func TestDescribeDevice_Empty(t *testing.T) {
	assert.Equal(t, "Unknown Device", DescribeDevice(""))
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
