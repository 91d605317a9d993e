package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/security"
)

func init() {
	logger.Initialize("error", "text")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		fmt.Fprintf(w, "holder %d", claims.HolderID)
	})
}

func TestRequireRejectsMissingAndMalformedTokens(t *testing.T) {
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour, 24*time.Hour)
	handler := NewAuthMiddleware(tokens).Require(okHandler())

	cases := map[string]string{
		"no header":     "",
		"wrong scheme":  "Basic abc",
		"garbage token": "Bearer not.a.token",
		"missing token": "Bearer ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRejectsRefreshToken(t *testing.T) {
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour, 24*time.Hour)
	handler := NewAuthMiddleware(tokens).Require(okHandler())

	refresh, err := tokens.GenerateRefreshToken(7, "holder@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePassesClaimsThrough(t *testing.T) {
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour, 24*time.Hour)
	handler := NewAuthMiddleware(tokens).Require(okHandler())

	access, err := tokens.GenerateAccessToken(7, "holder@example.com", false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "holder 7", rec.Body.String())
}

func TestRequireStaff(t *testing.T) {
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour, 24*time.Hour)
	m := NewAuthMiddleware(tokens)
	handler := m.Require(m.RequireStaff(okHandler()))

	holderToken, err := tokens.GenerateAccessToken(7, "holder@example.com", false)
	require.NoError(t, err)
	staffToken, err := tokens.GenerateAccessToken(8, "staff@example.com", true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/units", nil)
	req.Header.Set("Authorization", "Bearer "+holderToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/units", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), "a missing id is generated")
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{security.ErrExpiredToken, http.StatusUnauthorized},
		{domain.ErrInsufficientCapacity, http.StatusConflict},
		{domain.ErrAlreadyCanceled, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidHandoutDay), http.StatusUnprocessableEntity},
		{domain.ErrOutOfWindow, http.StatusUnprocessableEntity},
		{fmt.Errorf("db exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		assert.Equal(t, tc.want, rec.Code, "error %v", tc.err)
	}

	// Unknown errors never leak their message.
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("password for admin is hunter2"))
	assert.NotContains(t, rec.Body.String(), "hunter2")
}
