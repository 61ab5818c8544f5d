package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "ezyassist/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type holdRequest struct {
	Message string `json:"message"`
}

func (r *holdRequest) Normalize() {
	r.Message = strings.TrimSpace(r.Message)
}

func (r *holdRequest) Validate() error {
	if r.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

type toggleRequest struct {
	ID string `json:"id"`
}

func (r *toggleRequest) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeNotFound, "campaign not found")
	}
	return nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[holdRequest](w, post(`{"message":"  upload clearer slip  "}`), discard, "req-1")
		require.True(t, ok)
		assert.Equal(t, "upload clearer slip", req.Message)
	})

	t.Run("whitespace only message fails validation", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[holdRequest](w, post(`{"message":"   "}`), discard, "req-2")
		assert.False(t, ok)
		assert.Nil(t, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, string(dErrors.CodeValidation), body["error"])
		assert.Equal(t, "message is required", body["error_description"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[holdRequest](w, post(`{nope`), discard, "req-3")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("keeps domain error code from Validate", func(t *testing.T) {
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[toggleRequest](w, post(`{"id":""}`), discard, "req-4")
		assert.False(t, ok)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid token", dErrors.New(dErrors.CodeInvalidToken, "link is invalid or expired"), http.StatusUnauthorized, "invalid_token"},
		{"already registered", dErrors.New(dErrors.CodeAlreadyRegistered, "already registered"), http.StatusConflict, "already_registered"},
		{"invalid transition", dErrors.New(dErrors.CodeInvalidTransition, "cannot verify"), http.StatusConflict, "invalid_transition"},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["error"])
		})
	}

	t.Run("internal errors hide message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "pq: relation missing"))
		assert.NotContains(t, w.Body.String(), "relation")
	})
}
