package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/diewo77/go-collect/httpx"
	"github.com/google/uuid"
)

type ctxKey string

const userIDCtxKey = ctxKey("userID")

// UserVerifier validates that a token's user still exists and is allowed in.
type UserVerifier func(ctx context.Context, uid uuid.UUID) bool

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware authenticates requests carrying a bearer access token.
type Middleware struct {
	issuer *Issuer
	verify UserVerifier
}

// NewMiddleware builds the auth middleware. verify may be nil.
func NewMiddleware(issuer *Issuer, verify UserVerifier) *Middleware {
	return &Middleware{issuer: issuer, verify: verify}
}

// Authenticate returns the user id of a valid bearer token.
func (m *Middleware) Authenticate(r *http.Request) (uuid.UUID, bool) {
	token := BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return uuid.Nil, false
	}
	claims, err := m.issuer.ParseAccess(token)
	if err != nil {
		return uuid.Nil, false
	}
	uid, err := claims.UserID()
	if err != nil {
		return uuid.Nil, false
	}
	return uid, true
}

// RequireAuth rejects requests without a valid access token with 401 JSON.
// The token's user must also pass the verifier, so deleted or deactivated
// users lose access before their token expires.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := m.Authenticate(r)
		if !ok || (m.verify != nil && !m.verify(r.Context(), uid)) {
			httpx.JSONError(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
	})
}
