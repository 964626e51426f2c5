package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratosphere/internal/services/auth"
)

type stubValidator struct {
	ownerID string
	err     error
}

func (s *stubValidator) ValidateAccessToken(_ context.Context, _ string) (string, error) {
	return s.ownerID, s.err
}

func guardedRequest(t *testing.T, validator TokenValidator, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	var reachedHandler bool
	var injectedOK bool

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reachedHandler = true
		_, injectedOK = OwnerID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/post/create", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rec := httptest.NewRecorder()
	NewAuthMiddleware(validator).Guard(next).ServeHTTP(rec, req)

	if reachedHandler {
		require.True(t, injectedOK, "handler ran without an owner ID in context")
	}

	return rec, reachedHandler
}

func TestGuard_ValidToken(t *testing.T) {
	rec, reached := guardedRequest(t, &stubValidator{ownerID: "u1"}, "Bearer some-access-token")

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_MissingOrMalformedHeader(t *testing.T) {
	for _, header := range []string{"", "some-access-token", "Bearer ", "Basic abc"} {
		rec, reached := guardedRequest(t, &stubValidator{ownerID: "u1"}, header)

		assert.False(t, reached, "handler must not run for header %q", header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestGuard_AuthErrorsShortCircuit(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{auth.ErrUnknownToken, http.StatusUnauthorized},
		{auth.ErrTokenExpired, http.StatusUnauthorized},
		{auth.ErrAuthExpired, http.StatusUnauthorized},
		{auth.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		rec, reached := guardedRequest(t, &stubValidator{err: tc.err}, "Bearer some-access-token")

		assert.False(t, reached, "handler must not run on %v", tc.err)
		assert.Equal(t, tc.status, rec.Code)
	}
}
