package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CookieName = "jwt"
	userIDKey  = "user_id"
)

// UserExists reports whether the account behind a valid token still exists.
type UserExists func(id string) (bool, error)

// ProtectRoute authenticates the request from the session cookie (or a Bearer header
// for non-browser clients) and injects the user id into the gin context.
func ProtectRoute(issuer *TokenIssuer, exists UserExists) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized - No token provided"})
			return
		}

		claims, err := issuer.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized - Invalid token"})
			return
		}

		if exists != nil {
			ok, err := exists(claims.UserID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
				return
			}
			if !ok {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "User not found"})
				return
			}
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user set by ProtectRoute.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// SetSessionCookie stores the token in an httpOnly, SameSite=Strict cookie.
func SetSessionCookie(c *gin.Context, token string, maxAgeSeconds int, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, token, maxAgeSeconds, "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, "", -1, "/", "", secure, true)
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
