package leave

import (
	"context"
	"time"
)

// ListFilter narrows List. Zero value lists everything. Scope filtering is
// the caller's responsibility; the store only filters on what it is given.
type ListFilter struct {
	RequesterIDs []string
	Status       Status
}

// RecordStore is the outbound boundary to whatever holds the requests.
// The engine never assumes a storage technology; implementations exist for
// postgres and in-memory use.
type RecordStore interface {
	// OpenRequests returns the requester's non-rejected requests, the
	// snapshot every submission is validated against.
	OpenRequests(ctx context.Context, requesterID string) ([]Request, error)
	Insert(ctx context.Context, req Request) error
	Get(ctx context.Context, id string) (Request, error)
	SetStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]Request, error)
}
