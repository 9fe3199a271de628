package patient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dental/archive/internal/platform/store"
)

// SnapshotRepo keeps the ordered patient collection in memory and mirrors it
// to the snapshot store after every mutation. All reads are served from
// memory; the store is only read once, at construction.
type SnapshotRepo struct {
	mu       sync.RWMutex
	patients []Patient
	snap     store.Snapshotter
}

// NewSnapshotRepo loads the persisted collection (if any) and returns the repo.
func NewSnapshotRepo(ctx context.Context, snap store.Snapshotter) (*SnapshotRepo, error) {
	r := &SnapshotRepo{snap: snap}
	if _, err := snap.Load(ctx, store.BucketPatients, &r.patients); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	return r, nil
}

func (r *SnapshotRepo) persist(ctx context.Context) error {
	return r.snap.Save(ctx, store.BucketPatients, r.patients)
}

func (r *SnapshotRepo) Create(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	// Newest records go to the front of the collection.
	r.patients = append([]Patient{p.Clone()}, r.patients...)
	return r.persist(ctx)
}

func (r *SnapshotRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.patients {
		if r.patients[i].ID == id {
			cp := r.patients[i].Clone()
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("patient %s not found", id)
}

func (r *SnapshotRepo) Update(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.patients {
		if r.patients[i].ID == p.ID {
			p.CreatedAt = r.patients[i].CreatedAt
			p.UpdatedAt = time.Now()
			r.patients[i] = p.Clone()
			return r.persist(ctx)
		}
	}
	// Unknown id: no-op, matching the archive's lookup-miss policy.
	return nil
}

func (r *SnapshotRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.patients {
		if r.patients[i].ID == id {
			r.patients = append(r.patients[:i], r.patients[i+1:]...)
			return r.persist(ctx)
		}
	}
	return nil
}

func (r *SnapshotRepo) List(_ context.Context) ([]Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Patient, 0, len(r.patients))
	for i := range r.patients {
		out = append(out, r.patients[i].Clone())
	}
	return out, nil
}

func (r *SnapshotRepo) ReplaceAll(ctx context.Context, patients []Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]Patient, 0, len(patients))
	now := time.Now()
	for i := range patients {
		p := patients[i].Clone()
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		next = append(next, p)
	}
	prev := r.patients
	r.patients = next
	if err := r.persist(ctx); err != nil {
		r.patients = prev
		return err
	}
	return nil
}
