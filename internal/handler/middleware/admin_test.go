//go:build unit

package middleware_test

import (
	"net/http"
	"testing"
	"time"

	"sosiego-api/internal/handler/middleware"
	"sosiego-api/internal/pkg/config"
	"sosiego-api/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newGuardedRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())

	admin := middleware.NewAdminMiddleware(cfg.Admin)
	router.GET("/guarded", admin.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func signToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestRequireAdmin(t *testing.T) {
	cfg := config.NewTestConfig()

	t.Run("valid token passes through", func(t *testing.T) {
		router := newGuardedRouter(t, cfg)
		token := signToken(t, cfg.Admin.JWTSecret, time.Hour)

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/guarded", nil, token)
		httptest.AssertSuccessResponse(t, rec, http.StatusOK, nil)
	})

	t.Run("missing bearer token is rejected", func(t *testing.T) {
		router := newGuardedRouter(t, cfg)

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/guarded", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Admin token required")
	})

	t.Run("token signed with the wrong secret is rejected", func(t *testing.T) {
		router := newGuardedRouter(t, cfg)
		token := signToken(t, "some-other-secret", time.Hour)

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/guarded", nil, token)
		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Invalid or expired token")
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		router := newGuardedRouter(t, cfg)
		token := signToken(t, cfg.Admin.JWTSecret, -time.Hour)

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/guarded", nil, token)
		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Invalid or expired token")
	})
}
