package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"alumni/internal/access"
	"alumni/pkg/utils"
)

const principalKey = "principal"

// TokenValidator turns a bearer token into an account id.
type TokenValidator interface {
	ValidateToken(token string) (uuid.UUID, error)
}

// PrincipalResolver loads the role for an authenticated account.
type PrincipalResolver interface {
	Resolve(ctx context.Context, accountID uuid.UUID) (access.Principal, error)
}

// JWTAuthMiddleware rejects requests without a valid bearer token.
func JWTAuthMiddleware(tokens TokenValidator, resolver PrincipalResolver) gin.HandlerFunc {
	return authenticate(tokens, resolver, true)
}

// OptionalJWTMiddleware lets anonymous requests through but still rejects a
// token that is present and invalid.
func OptionalJWTMiddleware(tokens TokenValidator, resolver PrincipalResolver) gin.HandlerFunc {
	return authenticate(tokens, resolver, false)
}

func authenticate(tokens TokenValidator, resolver PrincipalResolver, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				unauthorized(c, "Authorization header missing or invalid")
				return
			}
			c.Set(principalKey, access.Anonymous())
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "Authorization header missing or invalid")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		accountID, err := tokens.ValidateToken(tokenString)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), accountID)
		if err != nil {
			utils.HandleServiceError(c, err)
			c.Abort()
			return
		}

		c.Set("user_id", accountID.String())
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin must run after JWTAuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := access.RequireAdmin(Principal(c)); err != nil {
			utils.HandleServiceError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Principal returns the caller set by the auth middleware, or an anonymous
// principal on routes without one.
func Principal(c *gin.Context) access.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(access.Principal); ok {
			return p
		}
	}
	return access.Anonymous()
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	utils.RespondError(c, http.StatusUnauthorized, message)
	c.Abort()
}
