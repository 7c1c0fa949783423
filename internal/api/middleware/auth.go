package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	jwtpkg "github.com/finledger/ledger-service/internal/pkg/jwt"
	apperrors "github.com/finledger/ledger-service/internal/shared/errors"
)

const (
	// AuthorizationHeader is the header name for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// SubjectKey is the context key for the authenticated principal's subject
	SubjectKey = "principal_subject"
	// RolesKey is the context key for the authenticated principal's roles
	RolesKey = "principal_roles"
)

var (
	// ErrMissingAuthHeader is returned when the authorization header is missing
	ErrMissingAuthHeader = errors.New("authorization header is required")
	// ErrInvalidAuthHeader is returned when the authorization header format is invalid
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
	// ErrUnauthenticated is returned when no principal is present in the request context
	ErrUnauthenticated = errors.New("no authenticated principal in context")
)

// JWTAuth returns a Gin middleware that validates the bearer token on every
// request and populates the context with the principal's subject and roles.
func JWTAuth(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			abortWithAppError(c, apperrors.Unauthorized(err.Error()))
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, jwtpkg.ErrExpiredToken):
				abortWithAppError(c, apperrors.Unauthorized("token has expired"))
			case errors.Is(err, jwtpkg.ErrInvalidToken):
				abortWithAppError(c, apperrors.Unauthorized("invalid authentication token"))
			case errors.Is(err, jwtpkg.ErrInvalidClaims):
				abortWithAppError(c, apperrors.Unauthorized("invalid token claims"))
			default:
				abortWithAppError(c, apperrors.Unauthorized("authentication failed"))
			}
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Set(RolesKey, claims.Roles)

		c.Next()
	}
}

// RequireRole returns a Gin middleware that allows the request through only
// if the authenticated principal holds at least one of the given roles.
// JWTAuth must run first.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principalRoles, exists := c.Get(RolesKey)
		if !exists {
			abortWithAppError(c, apperrors.Unauthorized("authentication required"))
			return
		}

		rolesSlice, ok := principalRoles.([]string)
		if !ok {
			abortWithAppError(c, apperrors.Internal("invalid role type in context"))
			return
		}

		claims := jwtpkg.Claims{Roles: rolesSlice}
		for _, want := range roles {
			if claims.HasRole(want) {
				c.Next()
				return
			}
		}

		abortWithAppError(c, apperrors.Forbidden("insufficient role for this operation"))
	}
}

// GetSubject retrieves the authenticated principal's subject from the context.
func GetSubject(c *gin.Context) (string, error) {
	subject, exists := c.Get(SubjectKey)
	if !exists {
		return "", ErrUnauthenticated
	}

	subjectStr, ok := subject.(string)
	if !ok {
		return "", errors.New("invalid subject type in context")
	}

	return subjectStr, nil
}

// GetRoles retrieves the authenticated principal's roles from the context.
func GetRoles(c *gin.Context) ([]string, error) {
	roles, exists := c.Get(RolesKey)
	if !exists {
		return nil, ErrUnauthenticated
	}

	rolesSlice, ok := roles.([]string)
	if !ok {
		return nil, errors.New("invalid roles type in context")
	}

	return rolesSlice, nil
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", ErrInvalidAuthHeader
	}

	token := strings.TrimPrefix(authHeader, BearerPrefix)
	if token == "" {
		return "", ErrInvalidAuthHeader
	}

	return token, nil
}

func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.JSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
	c.Abort()
}
