package stats

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dental/archive/internal/domain/patient"
	"github.com/dental/archive/internal/domain/request"
	"github.com/dental/archive/internal/platform/auth"
)

// Handler serves the statistics dashboard.
type Handler struct {
	patients *patient.Service
	requests *request.Service
	now      func() time.Time
}

func NewHandler(patients *patient.Service, requests *request.Service) *Handler {
	return &Handler{patients: patients, requests: requests, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	dash := api.Group("/stats", auth.RequireRole("admin"))
	dash.GET("/dashboard", h.Dashboard)
}

// Dashboard returns the full summary for the current roster and request
// queue.
func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	patients, err := h.patients.List(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	requests, err := h.requests.List(ctx, "", "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, Summarize(patients, requests, h.now()))
}
