package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(42, "pos")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "pos", claims.Role)
	assert.Equal(t, jwtIssuer, claims.Issuer)
}

func TestParseTokenRejects(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)

	// token dengan secret lain
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &CustomClaims{UserID: 1, Role: "admin"})
	signed, err := other.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = ParseToken(signed)
	assert.Error(t, err)

	// token kadaluarsa
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &CustomClaims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err = expired.SignedString(jwtSecret)
	require.NoError(t, err)
	_, err = ParseToken(signed)
	assert.Error(t, err)
}

func TestBlacklistToken(t *testing.T) {
	token, err := GenerateToken(77, "staff")
	require.NoError(t, err)

	BlacklistToken(token, time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted(token))
	_, err = ParseToken(token)
	assert.Error(t, err)

	// entri yang sudah lewat dibersihkan
	BlacklistToken("old-token", time.Now().Add(-time.Second))
	assert.False(t, IsTokenBlacklisted("old-token"))
}

func TestConfigureJWTRequiresSecretInRelease(t *testing.T) {
	before := jwtSecret
	t.Cleanup(func() { jwtSecret = before })

	err := ConfigureJWT("", time.Hour, "", true)
	assert.ErrorIs(t, err, ErrJWTSecretRequired)
	assert.Equal(t, before, jwtSecret)

	require.NoError(t, ConfigureJWT("", 0, "", false))
	assert.Equal(t, before, jwtSecret)

	require.NoError(t, ConfigureJWT("release-secret", 0, "", true))
	assert.Equal(t, []byte("release-secret"), jwtSecret)
}
