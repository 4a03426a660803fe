package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-connect/campus-connect-api/internal/models"
	"github.com/campus-connect/campus-connect-api/internal/service"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
	"github.com/campus-connect/campus-connect-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// JWT protects routes by requiring a valid access token backed by a live,
// active account. Claims are refreshed from the account so a stale role or a
// suspended status never survives past this point.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := resolveBearer(c, authService)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when a usable token is present but does not
// block. Tokens whose account is gone or inactive are treated as anonymous.
func OptionalJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := resolveBearer(c, authService)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// resolveBearer extracts the bearer token, validates it and maps it to the
// account as it exists now, not as it was when the token was issued.
func resolveBearer(c *gin.Context, authService *service.AuthService) (*models.JWTClaims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, appErrors.ErrUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		return nil, err
	}

	user, err := authService.ResolveIdentity(c.Request.Context(), claims)
	if err != nil {
		return nil, err
	}

	claims.Role = user.Role
	claims.Email = user.Email
	claims.Year = user.Year
	return claims, nil
}
