package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testCfg = Config{Secret: []byte("test-secret"), TTL: time.Hour}

func TestIssueAndParseToken(t *testing.T) {
	for _, role := range Roles {
		token, err := IssueToken(testCfg, role)
		if err != nil {
			t.Fatalf("IssueToken(%s) error = %v", role, err)
		}
		claims, err := ParseToken(testCfg, token)
		if err != nil {
			t.Fatalf("ParseToken(%s) error = %v", role, err)
		}
		if claims.Role != role {
			t.Errorf("claims role = %q, want %q", claims.Role, role)
		}
	}
}

func TestIssueToken_UnknownRole(t *testing.T) {
	if _, err := IssueToken(testCfg, "superuser"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := IssueToken(testCfg, RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	other := Config{Secret: []byte("different"), TTL: time.Hour}
	if _, err := ParseToken(other, token); err == nil {
		t.Error("expected error for token signed with another secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	expired := Config{Secret: testCfg.Secret, TTL: -time.Minute}
	token, err := IssueToken(expired, RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := ParseToken(testCfg, token); err == nil {
		t.Error("expected error for expired token")
	}
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestMiddleware(t *testing.T) {
	token, err := IssueToken(testCfg, RoleRegistrar)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic xyz", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}

	e := echo.New()
	mw := Middleware(testCfg, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := mw(okHandler)(c)
			if tt.wantCode == http.StatusOK {
				if err != nil {
					t.Fatalf("middleware error = %v", err)
				}
				if got := RoleFromContext(c.Request().Context()); got != RoleRegistrar {
					t.Errorf("role in context = %q, want registrar", got)
				}
				return
			}
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != tt.wantCode {
				t.Errorf("middleware = %v, want status %d", err, tt.wantCode)
			}
		})
	}
}

func TestMiddleware_Skipper(t *testing.T) {
	e := echo.New()
	mw := Middleware(testCfg, DefaultSkipper)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := mw(okHandler)(c); err != nil {
		t.Errorf("skipped path rejected: %v", err)
	}
}

func ctxWithRole(e *echo.Echo, role string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		req = req.WithContext(context.WithValue(req.Context(), RoleKey, role))
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole(RoleRegistrar)

	tests := []struct {
		name    string
		role    string
		allowed bool
	}{
		{"listed role", RoleRegistrar, true},
		{"admin always passes", RoleAdmin, true},
		{"unlisted role", RoleStudent, false},
		{"no role", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mw(okHandler)(ctxWithRole(e, tt.role))
			if tt.allowed {
				if err != nil {
					t.Errorf("role %q rejected: %v", tt.role, err)
				}
				return
			}
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusForbidden {
				t.Errorf("role %q = %v, want 403", tt.role, err)
			}
		})
	}
}

func testPasswords(role string) string {
	switch role {
	case RoleAdmin:
		return "admin-pass"
	case RoleRegistrar:
		return "registrar-pass"
	}
	return ""
}

func TestLogin(t *testing.T) {
	h := NewHandler(testCfg, testPasswords)
	e := echo.New()

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"correct password", `{"role":"admin","password":"admin-pass"}`, http.StatusOK},
		{"wrong password", `{"role":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"unknown role", `{"role":"superuser","password":"x"}`, http.StatusBadRequest},
		{"role with no password", `{"role":"student","password":""}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := h.Login(c)
			if tt.wantCode == http.StatusOK {
				if err != nil {
					t.Fatalf("Login() error = %v", err)
				}
				var resp struct {
					Token string `json:"token"`
					Role  string `json:"role"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshal response: %v", err)
				}
				if resp.Token == "" || resp.Role != "admin" {
					t.Errorf("response = %+v", resp)
				}
				claims, err := ParseToken(testCfg, resp.Token)
				if err != nil || claims.Role != RoleAdmin {
					t.Errorf("issued token does not parse: %v", err)
				}
				return
			}
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != tt.wantCode {
				t.Errorf("Login() = %v, want status %d", err, tt.wantCode)
			}
		})
	}
}
