package ai

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dental/archive/internal/domain/patient"
	"github.com/dental/archive/internal/platform/auth"
)

// Handler exposes the assistant endpoints.
type Handler struct {
	bridge   *Bridge
	patients *patient.Service
}

func NewHandler(bridge *Bridge, patients *patient.Service) *Handler {
	return &Handler{bridge: bridge, patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	group := api.Group("/ai", auth.RequireRole("admin", "registrar", "student"))
	group.POST("/query", h.Query)
	group.POST("/patients/:id/summary", h.PatientSummary)
}

type queryRequest struct {
	Question string `json:"question"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

// Query runs a natural-language question over the roster. Service failures
// come back as a 200 with the fixed fallback text: the assistant surface
// never raises.
func (h *Handler) Query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}
	patients, err := h.patients.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	answer := h.bridge.Query(c.Request().Context(), req.Question, patients)
	return c.JSON(http.StatusOK, answerResponse{Answer: answer})
}

// PatientSummary generates a short clinical-risk summary for one patient.
func (h *Handler) PatientSummary(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.patients.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	answer := h.bridge.PatientSummary(c.Request().Context(), p)
	return c.JSON(http.StatusOK, answerResponse{Answer: answer})
}
