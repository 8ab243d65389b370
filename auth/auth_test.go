package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":    "abc",
		"bearer   abc ": "abc",
		"Basic abc":     "",
		"Bearer":        "",
		"":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, BearerToken(in), "header %q", in)
	}
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
	_, ok = UserIDFromContext(WithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok, "nil uuid is not a user")

	id := uuid.New()
	got, ok := UserIDFromContext(WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestRequireAuth(t *testing.T) {
	iss := testIssuer()
	active := uuid.New()
	disabled := uuid.New()
	mw := NewMiddleware(iss, func(_ context.Context, uid uuid.UUID) bool { return uid == active })

	var seen uuid.UUID
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call("")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 401, body["statusCode"])

	good, err := iss.Issue(active, "a@b.c")
	require.NoError(t, err)
	rec = call("Bearer " + good.AccessToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, active, seen)

	// A refresh token is not an access token.
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+good.RefreshToken).Code)

	gone, err := iss.Issue(disabled, "x@b.c")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+gone.AccessToken).Code)
}
