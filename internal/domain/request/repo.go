package request

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for clinic requests. The
// collection is ordered newest first; requests are never removed.
type Repository interface {
	Create(ctx context.Context, r *ClinicRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*ClinicRequest, error)
	// UpdateStatus sets the lifecycle state by id. A miss is a silent no-op.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	List(ctx context.Context) ([]ClinicRequest, error)
}
