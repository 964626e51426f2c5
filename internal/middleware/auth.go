package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"stratosphere/internal/services/auth"
)

type ownerIDKeyType struct{}

var ownerIDKey = ownerIDKeyType{}

// OwnerID returns the authenticated user ID stored by the auth guard.
func OwnerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey).(string)
	return id, ok
}

type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Guard resolves the bearer access token to an owner ID and injects it into
// the request context. Any auth failure short-circuits before the handler
// runs; infrastructure failures are reported as 503 so operators can tell
// outages apart from legitimate rejections.
func (m *AuthMiddleware) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "The Authorization Token provided is malformed or missing.")
			return
		}

		ownerID, err := m.validator.ValidateAccessToken(r.Context(), token)
		if err != nil {
			status, msg := classifyAuthError(err)
			writeError(w, status, msg)
			return
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}

	return token, true
}

func classifyAuthError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrUnknownToken):
		return http.StatusUnauthorized, "The Token provided could not be linked to a session!"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "The Token provided has expired!"
	case errors.Is(err, auth.ErrAuthExpired):
		return http.StatusUnauthorized, "The Authorization linked to this token has expired."
	case errors.Is(err, auth.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "A server error has occured! Please try again later."
	default:
		return http.StatusInternalServerError, "An internal server error has occured!"
	}
}
