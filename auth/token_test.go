package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-collect/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *Issuer {
	return NewIssuer(config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    5 * 24 * time.Hour,
		Issuer:        "go-collect",
	})
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := testIssuer()
	uid := uuid.New()

	pair, err := iss.Issue(uid, "ana@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := iss.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uid, got)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)

	_, err = iss.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
}

func TestIssuer_SecretsAreNotInterchangeable(t *testing.T) {
	iss := testIssuer()
	pair, err := iss.Issue(uuid.New(), "a@b.c")
	require.NoError(t, err)

	_, err = iss.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	_, err = iss.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestIssuer_PairsIssuedTogetherDiffer(t *testing.T) {
	iss := testIssuer()
	frozen := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return frozen }
	uid := uuid.New()

	a, err := iss.Issue(uid, "a@b.c")
	require.NoError(t, err)
	b, err := iss.Issue(uid, "a@b.c")
	require.NoError(t, err)
	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
}

func TestIssuer_Expired(t *testing.T) {
	iss := testIssuer()
	issued := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return issued }
	pair, err := iss.Issue(uuid.New(), "a@b.c")
	require.NoError(t, err)

	iss.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = iss.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	_, err = iss.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err, "refresh token outlives the access token")
}

func TestIssuer_RejectsTamperedAndForeignTokens(t *testing.T) {
	iss := testIssuer()
	pair, err := iss.Issue(uuid.New(), "a@b.c")
	require.NoError(t, err)

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	_, err = iss.ParseAccess(tampered)
	assert.Error(t, err)

	other := NewIssuer(config.JWTConfig{AccessSecret: "access-secret", RefreshSecret: "r", AccessTTL: time.Minute, Issuer: "someone-else"})
	foreign, err := other.Issue(uuid.New(), "a@b.c")
	require.NoError(t, err)
	_, err = iss.ParseAccess(foreign.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: uuid.NewString(), Issuer: "go-collect"})
	s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.ParseAccess(s)
	assert.Error(t, err)
}

func TestIssuer_RejectsNonUUIDSubject(t *testing.T) {
	iss := testIssuer()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "42",
		Issuer:    "go-collect",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = iss.ParseAccess(s)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidSubject)
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	assert.NotEqual(t, "abc", h)
	assert.Equal(t, h, HashToken("abc"))
	assert.True(t, TokenMatches(&h, "abc"))
	assert.False(t, TokenMatches(&h, "abd"))
	assert.False(t, TokenMatches(nil, "abc"))
	empty := ""
	assert.False(t, TokenMatches(&empty, ""))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
}

func TestHashPassword_RejectsOverlongInput(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := HashPassword(strings.Repeat("x", MaxPasswordBytes))
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, strings.Repeat("x", MaxPasswordBytes)))
}

func TestCheckDecoy(t *testing.T) {
	CheckDecoy("whatever")
	require.NotNil(t, decoyHash)
	assert.False(t, CheckPassword(string(decoyHash), "whatever"))
}
