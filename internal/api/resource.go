// internal/api/resource.go

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kingrea/opsdeck/internal/entity"
)

// Resource provides the per-kind endpoints (/api/leads, /api/tickets, ...)
// with typed decoding. A patched or created response may include the
// authoritative entity, whose normalized fields overwrite the optimistic
// local guess.
type Resource[E any] struct {
	client *Client
	kind   string
}

// NewResource binds a client to one entity kind's path segment.
func NewResource[E any](client *Client, kind string) *Resource[E] {
	return &Resource[E]{client: client, kind: strings.Trim(kind, "/")}
}

// Kind returns the path segment this resource talks to.
func (r *Resource[E]) Kind() string { return r.kind }

// List fetches the full collection to seed the session cache.
func (r *Resource[E]) List(ctx context.Context) ([]E, error) {
	env, err := r.client.do(ctx, http.MethodGet, "/api/"+r.kind, nil)
	if err != nil {
		return nil, err
	}
	if len(env.Entities) == 0 {
		return nil, nil
	}
	var items []E
	if err := json.Unmarshal(env.Entities, &items); err != nil {
		return nil, fmt.Errorf("api: decode %s list: %w", r.kind, err)
	}
	return items, nil
}

// Create persists a new record from a full input form and returns the
// server-assigned canonical entity, which seeds a new cache entry.
func (r *Resource[E]) Create(ctx context.Context, payload any) (E, error) {
	var zero E
	env, err := r.client.do(ctx, http.MethodPost, "/api/"+r.kind, payload)
	if err != nil {
		return zero, err
	}
	if len(env.Entity) == 0 {
		return zero, fmt.Errorf("api: create %s: response missing entity", r.kind)
	}
	var created E
	if err := json.Unmarshal(env.Entity, &created); err != nil {
		return zero, fmt.Errorf("api: decode created %s: %w", r.kind, err)
	}
	return created, nil
}

// Patch sends a partial field update. The returned entity is nil when the
// backend confirmed without echoing canonical values.
func (r *Resource[E]) Patch(ctx context.Context, id string, fields map[string]any) (*E, error) {
	env, err := r.client.do(ctx, http.MethodPatch, fmt.Sprintf("/api/%s/%s", r.kind, id), fields)
	if err != nil {
		return nil, err
	}
	if len(env.Entity) == 0 {
		return nil, nil
	}
	var updated E
	if err := json.Unmarshal(env.Entity, &updated); err != nil {
		return nil, fmt.Errorf("api: decode patched %s: %w", r.kind, err)
	}
	return &updated, nil
}

// Notes fetches the record's comment thread, most recent first.
func (r *Resource[E]) Notes(ctx context.Context, id string) ([]entity.Note, error) {
	env, err := r.client.do(ctx, http.MethodGet, fmt.Sprintf("/api/%s/%s/notes", r.kind, id), nil)
	if err != nil {
		return nil, err
	}
	return env.Notes, nil
}

// AddNote persists one comment and returns the stored note.
func (r *Resource[E]) AddNote(ctx context.Context, id, content string) (entity.Note, error) {
	body := map[string]string{"content": content}
	env, err := r.client.do(ctx, http.MethodPost, fmt.Sprintf("/api/%s/%s/notes", r.kind, id), body)
	if err != nil {
		return entity.Note{}, err
	}
	if env.Note == nil {
		return entity.Note{}, fmt.Errorf("api: add note to %s/%s: response missing note", r.kind, id)
	}
	return *env.Note, nil
}
