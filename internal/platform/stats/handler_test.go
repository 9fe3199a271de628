package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dental/archive/internal/domain/patient"
	"github.com/dental/archive/internal/domain/request"
)

type fixedPatientRepo struct{ patients []patient.Patient }

func (f *fixedPatientRepo) Create(context.Context, *patient.Patient) error { return nil }
func (f *fixedPatientRepo) GetByID(context.Context, uuid.UUID) (*patient.Patient, error) {
	return nil, echo.ErrNotFound
}
func (f *fixedPatientRepo) Update(context.Context, *patient.Patient) error { return nil }
func (f *fixedPatientRepo) Delete(context.Context, uuid.UUID) error        { return nil }
func (f *fixedPatientRepo) List(context.Context) ([]patient.Patient, error) {
	return f.patients, nil
}
func (f *fixedPatientRepo) ReplaceAll(context.Context, []patient.Patient) error { return nil }

type fixedRequestRepo struct{ requests []request.ClinicRequest }

func (f *fixedRequestRepo) Create(context.Context, *request.ClinicRequest) error { return nil }
func (f *fixedRequestRepo) GetByID(context.Context, uuid.UUID) (*request.ClinicRequest, error) {
	return nil, echo.ErrNotFound
}
func (f *fixedRequestRepo) UpdateStatus(context.Context, uuid.UUID, request.Status) error {
	return nil
}
func (f *fixedRequestRepo) List(context.Context) ([]request.ClinicRequest, error) {
	return f.requests, nil
}

func TestDashboard(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	patients := []patient.Patient{
		{ID: uuid.New(), Age: 30, Lost: true},
		{ID: uuid.New(), Age: 8},
	}
	requests := []request.ClinicRequest{
		{ID: uuid.New(), Date: "2026-06-15", Patients: patients[:1]},
	}

	h := NewHandler(
		patient.NewService(&fixedPatientRepo{patients: patients}),
		request.NewService(&fixedRequestRepo{requests: requests}),
	)
	h.now = func() time.Time { return now }

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Dashboard(c); err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.TotalPatients != 2 {
		t.Errorf("total = %d, want 2", got.TotalPatients)
	}
	if got.Status.Lost != 1 {
		t.Errorf("lost = %d, want 1", got.Status.Lost)
	}
	if got.Requests.Today != 1 {
		t.Errorf("today = %d, want 1", got.Requests.Today)
	}
}
