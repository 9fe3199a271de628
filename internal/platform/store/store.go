// Package store provides the durable snapshot store backing the archive.
// Each record collection is serialized in full to a fixed bucket key after
// every mutation; there is no delta persistence and no cross-bucket
// transaction. Buckets are written independently, so a crash between two
// writes can leave them out of step with each other (accepted).
package store

import "context"

const (
	BucketPatients = "patients"
	BucketRequests = "requests"
)

// Snapshotter persists whole-collection JSON snapshots under fixed bucket keys.
type Snapshotter interface {
	// Load unmarshals the snapshot stored under bucket into v. It returns
	// false with a nil error when the bucket has never been written.
	Load(ctx context.Context, bucket string, v interface{}) (bool, error)
	// Save marshals v and overwrites the bucket's snapshot wholesale.
	Save(ctx context.Context, bucket string, v interface{}) error
	Close() error
}
