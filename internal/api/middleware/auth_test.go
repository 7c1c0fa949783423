package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtpkg "github.com/finledger/ledger-service/internal/pkg/jwt"
)

func testRouter(manager *jwtpkg.Manager, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handlers := []gin.HandlerFunc{JWTAuth(manager)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		subject, err := GetSubject(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"subject": subject})
	})

	router.POST("/protected", handlers...)
	return router
}

func perform(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	manager := jwtpkg.NewManager(strings.Repeat("k", 48), 60)

	t.Run("missing token returns 401", func(t *testing.T) {
		rec := perform(testRouter(manager), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "AUTH")
	})

	t.Run("malformed header returns 401", func(t *testing.T) {
		router := testRouter(manager)
		req := httptest.NewRequest(http.MethodPost, "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token returns 401", func(t *testing.T) {
		rec := perform(testRouter(manager), "not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with a different key returns 401", func(t *testing.T) {
		other := jwtpkg.NewManager(strings.Repeat("x", 48), 60)
		token, err := other.GenerateToken("alice", []string{"admin"})
		require.NoError(t, err)

		rec := perform(testRouter(manager), token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes and exposes subject", func(t *testing.T) {
		token, err := manager.GenerateToken("alice", []string{"operator"})
		require.NoError(t, err)

		rec := perform(testRouter(manager), token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alice")
	})
}

func TestRequireRole(t *testing.T) {
	manager := jwtpkg.NewManager(strings.Repeat("k", 48), 60)

	t.Run("missing role returns 403", func(t *testing.T) {
		token, err := manager.GenerateToken("bob", []string{"viewer"})
		require.NoError(t, err)

		rec := perform(testRouter(manager, "admin"), token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "FORBIDDEN")
	})

	t.Run("admin role passes", func(t *testing.T) {
		token, err := manager.GenerateToken("carol", []string{"admin"})
		require.NoError(t, err)

		rec := perform(testRouter(manager, "admin"), token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("any of the allowed roles passes", func(t *testing.T) {
		token, err := manager.GenerateToken("dave", []string{"operator"})
		require.NoError(t, err)

		rec := perform(testRouter(manager, "admin", "operator"), token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no token at all returns 401 before the role check", func(t *testing.T) {
		rec := perform(testRouter(manager, "admin"), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
