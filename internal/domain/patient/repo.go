package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for patient records. The
// collection is ordered: Create inserts at the front and List preserves
// insertion order, newest first.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// Update replaces the record with the same id. A miss is a silent no-op.
	Update(ctx context.Context, p *Patient) error
	// Delete removes the record by id. A miss is a silent no-op.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Patient, error)
	// ReplaceAll swaps in a whole new collection (spreadsheet import).
	ReplaceAll(ctx context.Context, patients []Patient) error
}
