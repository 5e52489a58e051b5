// internal/jobboard/jobboard.go
//
// Stub integration with an external job board. The dashboard only
// displays the sync state and lets the operator re-trigger a publish;
// nothing here participates in the cache consistency contract.

package jobboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kingrea/opsdeck/internal/entity"
)

// Publisher is the surface the recruiting board consumes.
type Publisher interface {
	Publish(ctx context.Context, job entity.Job) (string, error)
	SyncStatus(ctx context.Context, jobID string) (entity.SyncState, error)
}

// Stub is an in-memory publisher used until the real integration lands.
// It accepts any open posting and remembers what it "published".
type Stub struct {
	mu       sync.Mutex
	external map[string]string
}

// NewStub creates an empty stub publisher.
func NewStub() *Stub {
	return &Stub{external: map[string]string{}}
}

// Publish registers the posting and returns a fake external listing id.
// Draft postings are rejected so the flow matches the real board's rules.
func (s *Stub) Publish(_ context.Context, job entity.Job) (string, error) {
	if job.Status != entity.JobOpen {
		return "", fmt.Errorf("jobboard: posting %s is %s, only open postings publish", job.ID, job.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.external[job.ID]; ok {
		return existing, nil
	}
	externalID := "jb-" + uuid.NewString()[:8]
	s.external[job.ID] = externalID
	return externalID, nil
}

// SyncStatus reports whether a posting was published through this stub.
func (s *Stub) SyncStatus(_ context.Context, jobID string) (entity.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.external[jobID]; ok {
		return entity.SyncSynced, nil
	}
	return entity.SyncNotSynced, nil
}
