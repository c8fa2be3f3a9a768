package middleware

import (
	"net/http"
	"slices"
	"strings"

	"odatanode"
	"odatanode/internal/api/handler/response"
	"odatanode/pkg"

	"github.com/gin-gonic/gin"
)

// Roles carried in access tokens
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

const claimsKey = "claims"

// AuthMiddleware requires a valid bearer token outside dev mode and stores its claims
func AuthMiddleware(cfg odatanode.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Mode == "dev" {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "Bearer token required"})
			return
		}

		claims, err := pkg.ValidateToken(token, cfg.JWTConfig.Secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "Invalid or expired token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Set("userID", claims.UserID)
		c.Next()
	}
}

// RequireRole lets a request through when its token carries one of roles.
// Must run after AuthMiddleware.
func RequireRole(cfg odatanode.AppConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Mode == "dev" {
			c.Next()
			return
		}

		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "Missing credentials"})
			return
		}
		if !slices.Contains(roles, claims.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.APIError{Message: "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthMiddleware
func ClaimsFrom(c *gin.Context) (*pkg.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*pkg.Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
