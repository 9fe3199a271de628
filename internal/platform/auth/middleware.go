// Package auth implements the archive's role gate. Three fixed roles
// (admin, registrar, student) are each unlocked by a fixed password; a
// successful login yields an HMAC-signed token carrying the role. This is
// an access gate for a front-desk tool, not a security boundary.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	RoleKey contextKey = "role"
)

// Roles recognized by the gate.
const (
	RoleAdmin     = "admin"
	RoleRegistrar = "registrar"
	RoleStudent   = "student"
)

// Roles lists the three fixed roles.
var Roles = []string{RoleAdmin, RoleRegistrar, RoleStudent}

// KnownRole reports whether role is one of the three fixed roles.
func KnownRole(role string) bool {
	return role == RoleAdmin || role == RoleRegistrar || role == RoleStudent
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Config holds token signing settings.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// IssueToken signs a role token valid for cfg.TTL.
func IssueToken(cfg Config, role string) (string, error) {
	if !KnownRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   role,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// ParseToken validates a token string and returns its claims.
func ParseToken(cfg Config, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return cfg.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || !KnownRole(claims.Role) {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Middleware validates the bearer token and stores the role on the request
// context. Requests matched by skipper pass through unauthenticated.
func Middleware(cfg Config, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := ParseToken(cfg, parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			ctx := context.WithValue(c.Request().Context(), RoleKey, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RoleFromContext returns the authenticated role, or "" when absent.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

// DefaultSkipper passes health checks and the login endpoint through
// without a token.
func DefaultSkipper(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/health" || path == "/api/v1/auth/login"
}
