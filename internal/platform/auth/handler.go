package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// PasswordLookup resolves the configured password for a role.
type PasswordLookup func(role string) string

type Handler struct {
	cfg       Config
	passwords PasswordLookup
}

func NewHandler(cfg Config, passwords PasswordLookup) *Handler {
	return &Handler{cfg: cfg, passwords: passwords}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
}

type loginRequest struct {
	Role     string `json:"role"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Login exchanges a role + password pair for a role token.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !KnownRole(req.Role) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}
	expected := h.passwords(req.Role)
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(req.Password)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect password")
	}
	token, err := IssueToken(h.cfg, req.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, Role: req.Role})
}
