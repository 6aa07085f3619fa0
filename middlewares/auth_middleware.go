package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
)

// Key context yang diisi middleware auth
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextToken  = "token"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// AuthMiddleware -> wajib bearer token yang valid
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil || claims == nil || claims.UserID == 0 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextToken, tokenString)
		c.Next()
	}
}

// OptionalAuth -> endpoint publik yang tetap membaca token jika dikirim
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if claims, err := utils.ParseToken(tokenString); err == nil && claims.UserID != 0 {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextRole, claims.Role)
				c.Set(ContextToken, tokenString)
			}
		}
		c.Next()
	}
}

// Actor -> user id dan role dari context, ok=false jika tidak login
func Actor(c *gin.Context) (userID uint, role string, ok bool) {
	id, exists := c.Get(ContextUserID)
	if !exists {
		return 0, "", false
	}
	userID, _ = id.(uint)
	role = c.GetString(ContextRole)
	return userID, role, userID != 0
}
