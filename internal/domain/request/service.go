package request

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dental/archive/internal/domain/patient"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new folder loan request. The requested
// patients are snapshotted by value before the request is stored.
func (s *Service) Create(ctx context.Context, r *ClinicRequest) error {
	if strings.TrimSpace(r.RequesterName) == "" {
		return fmt.Errorf("requester name is required")
	}
	if r.Date == "" {
		return fmt.Errorf("request date is required")
	}
	if len(r.Patients) == 0 {
		return fmt.Errorf("at least one patient is required")
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown request status %q", r.Status)
	}
	snapshots := make([]patient.Patient, 0, len(r.Patients))
	for _, p := range r.Patients {
		snapshots = append(snapshots, p.Clone())
	}
	r.Patients = snapshots
	return s.repo.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ClinicRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus records a lifecycle transition. Only the three known states
// are accepted; direction is by convention and not enforced.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown request status %q", status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// List returns requests, optionally filtered by status and requester name.
func (s *Service) List(ctx context.Context, status Status, requester string) ([]ClinicRequest, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	requester = strings.ToLower(strings.TrimSpace(requester))
	var out []ClinicRequest
	for _, r := range all {
		if status != "" && r.Status != status {
			continue
		}
		if requester != "" && !strings.Contains(strings.ToLower(r.RequesterName), requester) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
