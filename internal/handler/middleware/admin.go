package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"sosiego-api/internal/handler/httperr"
	"sosiego-api/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var errMissingBearerToken = errors.New("missing bearer token")

// AdminMiddleware guards operational endpoints (expiry sweep, status lists)
// with a shared-secret HS256 bearer token.
type AdminMiddleware struct {
	secret []byte
}

func NewAdminMiddleware(cfg config.AdminConfig) *AdminMiddleware {
	return &AdminMiddleware{secret: []byte(cfg.JWTSecret)}
}

func (m *AdminMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			httperr.AbortWithError(c, http.StatusUnauthorized, errMissingBearerToken, "Admin token required", nil)
			return
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			slog.Warn("admin token validation failed", "error", err)
			if err == nil {
				err = jwt.ErrTokenUnverifiable
			}
			httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid or expired token", nil)
			return
		}

		c.Next()
	}
}
