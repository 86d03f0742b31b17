package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/farmtohome/backend/internal/infrastructure/auth"
	"github.com/farmtohome/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys for JWT claims
const (
	ContextKeyJWTClaims = "jwt_claims"
	ContextKeyJWTUserID = "jwt_user_id"
	ContextKeyJWTEmail  = "jwt_email"
	ContextKeyJWTRole   = "jwt_role"
)

// JWTMiddlewareConfig contains configuration for the JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService

	// TokenBlacklist is optional; when set, revoked tokens are rejected
	TokenBlacklist auth.TokenBlacklist

	// SkipPaths are exact paths that bypass authentication
	SkipPaths []string

	// SkipPathPrefixes are path prefixes that bypass authentication
	SkipPathPrefixes []string

	Logger *zap.Logger
}

// JWTAuthMiddleware validates the Bearer token on every request and stores
// the claims in the gin context for downstream handlers.
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skipPaths[p] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipPaths[path] {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		tokenString, err := extractBearerToken(c)
		if err != nil {
			handleAuthError(c, err)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, err)
			return
		}

		if cfg.TokenBlacklist != nil {
			if rejected := checkBlacklist(c, cfg, claims); rejected {
				return
			}
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWTAuthMiddleware validates the token when present but lets
// unauthenticated requests through. Invalid tokens are still rejected.
func OptionalJWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		tokenString, err := extractBearerToken(c)
		if err != nil {
			handleAuthError(c, err)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, err)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// checkBlacklist rejects revoked tokens. Blacklist lookups fail open so an
// unavailable Redis does not take authentication down with it.
func checkBlacklist(c *gin.Context, cfg JWTMiddlewareConfig, claims *auth.Claims) bool {
	ctx := c.Request.Context()

	blacklisted, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("token blacklist check failed, allowing request",
				zap.Error(err),
				zap.String("jti", claims.ID))
		}
	} else if blacklisted {
		handleAuthError(c, auth.ErrTokenBlacklisted)
		return true
	}

	invalidated, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("user token invalidation check failed, allowing request",
				zap.Error(err),
				zap.String("user_id", claims.UserID))
		}
	} else if invalidated {
		handleAuthError(c, auth.ErrTokenBlacklisted)
		return true
	}

	return false
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextKeyJWTClaims, claims)
	c.Set(ContextKeyJWTUserID, claims.UserID)
	c.Set(ContextKeyJWTEmail, claims.Email)
	c.Set(ContextKeyJWTRole, claims.Role)
}

var errMissingAuthHeader = errors.New("missing authorization header")
var errMalformedAuthHeader = errors.New("malformed authorization header")

func extractBearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errMissingAuthHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errMalformedAuthHeader
	}
	return parts[1], nil
}

func handleAuthError(c *gin.Context, err error) {
	code := dto.ErrCodeUnauthorized
	message := "Authentication required"

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		message = "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code = dto.ErrCodeTokenRevoked
		message = "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrMissingUserID),
		errors.Is(err, auth.ErrMissingRole):
		code = dto.ErrCodeTokenInvalid
		message = "Token is invalid"
	case errors.Is(err, errMalformedAuthHeader):
		message = "Authorization header must be: Bearer <token>"
	}

	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// GetJWTClaims returns the validated claims stored by the JWT middleware
func GetJWTClaims(c *gin.Context) (*auth.Claims, bool) {
	val, exists := c.Get(ContextKeyJWTClaims)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*auth.Claims)
	return claims, ok
}

// GetJWTUserID returns the authenticated user ID, or "" when unauthenticated
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(ContextKeyJWTUserID)
}

// GetJWTEmail returns the authenticated user's email, or "" when unauthenticated
func GetJWTEmail(c *gin.Context) string {
	return c.GetString(ContextKeyJWTEmail)
}

// GetJWTRole returns the authenticated user's role, or "" when unauthenticated
func GetJWTRole(c *gin.Context) string {
	return c.GetString(ContextKeyJWTRole)
}
