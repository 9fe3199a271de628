package request

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dental/archive/internal/platform/store"
)

// SnapshotRepo keeps the ordered request collection in memory and mirrors it
// to the snapshot store after every mutation.
type SnapshotRepo struct {
	mu       sync.RWMutex
	requests []ClinicRequest
	snap     store.Snapshotter
}

// NewSnapshotRepo loads the persisted collection (if any) and returns the repo.
func NewSnapshotRepo(ctx context.Context, snap store.Snapshotter) (*SnapshotRepo, error) {
	r := &SnapshotRepo{snap: snap}
	if _, err := snap.Load(ctx, store.BucketRequests, &r.requests); err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	return r, nil
}

func (r *SnapshotRepo) persist(ctx context.Context) error {
	return r.snap.Save(ctx, store.BucketRequests, r.requests)
}

func (r *SnapshotRepo) Create(ctx context.Context, req *ClinicRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	r.requests = append([]ClinicRequest{req.Clone()}, r.requests...)
	return r.persist(ctx)
}

func (r *SnapshotRepo) GetByID(_ context.Context, id uuid.UUID) (*ClinicRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.requests {
		if r.requests[i].ID == id {
			cp := r.requests[i].Clone()
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("request %s not found", id)
}

func (r *SnapshotRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.requests {
		if r.requests[i].ID == id {
			r.requests[i].Status = status
			return r.persist(ctx)
		}
	}
	return nil
}

func (r *SnapshotRepo) List(_ context.Context) ([]ClinicRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ClinicRequest, 0, len(r.requests))
	for i := range r.requests {
		out = append(out, r.requests[i].Clone())
	}
	return out, nil
}
