package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret     = []byte("TestSecretKeyAUTH1945")
	jwtExpiration = 24 * time.Hour
	jwtIssuer     = "RestaurantWebApp"
)

var (
	blacklistedTokens = make(map[string]time.Time)
	blacklistMutex    sync.RWMutex
)

// ErrJWTSecretRequired -> release mode tanpa JWT_SECRET ditolak
var ErrJWTSecretRequired = errors.New("JWT_SECRET must be set in release mode")

// ConfigureJWT dipanggil sekali saat startup dari config. Secret default
// development hanya dipakai jika requireSecret false.
func ConfigureJWT(secret string, expiration time.Duration, issuer string, requireSecret bool) error {
	if secret == "" && requireSecret {
		return ErrJWTSecretRequired
	}
	if secret != "" {
		jwtSecret = []byte(secret)
	} else {
		ErrorLogger.Warn("JWT secret not configured, using development default")
	}
	if expiration > 0 {
		jwtExpiration = expiration
	}
	if issuer != "" {
		jwtIssuer = issuer
	}
	return nil
}

type CustomClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(userID uint, role string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	if IsTokenBlacklisted(tokenString) {
		return nil, errors.New("token has been revoked")
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// BlacklistToken -> token ditolak sampai masa berlakunya habis
func BlacklistToken(token string, until time.Time) {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	if until.IsZero() {
		until = time.Now().Add(jwtExpiration)
	}
	blacklistedTokens[token] = until
}

func IsTokenBlacklisted(token string) bool {
	blacklistMutex.RLock()
	expiry, exists := blacklistedTokens[token]
	blacklistMutex.RUnlock()

	if !exists {
		return false
	}
	if time.Now().Before(expiry) {
		return true
	}

	// Hapus token kadaluarsa dari blacklist
	blacklistMutex.Lock()
	delete(blacklistedTokens, token)
	blacklistMutex.Unlock()
	return false
}
