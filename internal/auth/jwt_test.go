package auth

import (
	"testing"
	"time"

	"beer-tasting-go/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret", JWTIssuer: "beer-tasting", JWTTTL: time.Hour}
}

func TestGenerateAndParseToken(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateToken(42, "ale", cfg)
	require.NoError(t, err)

	claims, err := ParseAndValidateToken(tok, cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "ale", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestGenerateToken_UniqueIDs(t *testing.T) {
	cfg := testConfig()
	a, err := GenerateToken(1, "a", cfg)
	require.NoError(t, err)
	b, err := GenerateToken(1, "a", cfg)
	require.NoError(t, err)

	ca, err := ParseAndValidateToken(a, cfg)
	require.NoError(t, err)
	cb, err := ParseAndValidateToken(b, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestParseAndValidateToken_Rejects(t *testing.T) {
	cfg := testConfig()
	good, err := GenerateToken(1, "a", cfg)
	require.NoError(t, err)

	other := cfg
	other.JWTSecret = "other"
	_, err = ParseAndValidateToken(good, other)
	assert.Error(t, err, "wrong secret")

	other = cfg
	other.JWTIssuer = "someone-else"
	_, err = ParseAndValidateToken(good, other)
	assert.Error(t, err, "wrong issuer")

	expiredCfg := cfg
	expiredCfg.JWTTTL = -time.Hour
	expired, err := GenerateToken(1, "a", expiredCfg)
	require.NoError(t, err)
	_, err = ParseAndValidateToken(expired, cfg)
	assert.Error(t, err, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAndValidateToken(unsigned, cfg)
	assert.Error(t, err, "alg none")

	_, err = ParseAndValidateToken("garbage", cfg)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAndValidateToken_RequiresSubjectAndID(t *testing.T) {
	cfg := testConfig()
	sign := func(c Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(cfg.JWTSecret))
		require.NoError(t, err)
		return s
	}

	c := newClaims(7, "porter", cfg, time.Now())
	_, err := ParseAndValidateToken(sign(c), cfg)
	require.NoError(t, err)

	mismatched := newClaims(7, "porter", cfg, time.Now())
	mismatched.Subject = "8"
	_, err = ParseAndValidateToken(sign(mismatched), cfg)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noID := newClaims(7, "porter", cfg, time.Now())
	noID.ID = ""
	_, err = ParseAndValidateToken(sign(noID), cfg)
	assert.ErrorIs(t, err, ErrInvalidToken)

	future := newClaims(7, "porter", cfg, time.Now().Add(time.Hour))
	_, err = ParseAndValidateToken(sign(future), cfg)
	assert.ErrorIs(t, err, ErrInvalidToken, "not valid before issue time")
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	_, err := GenerateToken(1, "a", config.Config{})
	assert.Error(t, err)
	_, err = ParseAndValidateToken("x", config.Config{})
	assert.Error(t, err)
}
