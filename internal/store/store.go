// internal/store/store.go
//
// The session-scoped entity cache behind every dashboard board. One store
// holds one kind of record, keyed by identifier, in first-insertion order.
// All mutation goes through Put/Apply so the no-duplicate invariant is
// enforced in exactly one place; callers never poke record fields directly.
//
// The cache lives for one session only: it is rebuilt from a full list
// response on startup (Reset) and there is no delete in the common path.

package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a patch targets an identifier that was
// never put into the cache.
var ErrNotFound = errors.New("store: entity not found")

// Record is a cached domain value. Stamped must return a copy with the
// last-update timestamp refreshed; records are never mutated in place.
type Record[E any] interface {
	EntityID() string
	Stamped(now time.Time) E
}

// Patch is a typed partial update. Apply performs a shallow merge: fields
// present in the patch overwrite, absent fields are preserved. Fields
// reports the wire form of the changed fields for the persistence call.
type Patch[E any] interface {
	Apply(E) E
	Fields() map[string]any
}

// Store is an ordered collection of records with unique identifiers.
type Store[E Record[E]] struct {
	order []string
	byID  map[string]E
}

// New creates an empty store.
func New[E Record[E]]() *Store[E] {
	return &Store[E]{byID: map[string]E{}}
}

// Len reports the number of cached records.
func (s *Store[E]) Len() int {
	return len(s.order)
}

// Get returns the cached record for id.
func (s *Store[E]) Get(id string) (E, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Put inserts a record, or replaces it wholesale if the identifier is
// already cached. Insertion order is preserved across replacement.
func (s *Store[E]) Put(e E) E {
	id := e.EntityID()
	if _, ok := s.byID[id]; !ok {
		s.order = append(s.order, id)
	}
	s.byID[id] = e
	return e
}

// Apply shallow-merges patch into the record for id and stamps the
// result with now. The merged record is returned so callers can mirror
// it into whatever view is showing it.
func (s *Store[E]) Apply(id string, patch Patch[E], now time.Time) (E, error) {
	current, ok := s.byID[id]
	if !ok {
		var zero E
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := patch.Apply(current).Stamped(now)
	if next.EntityID() != id {
		// A patch must never rewrite the identifier; refuse rather than
		// corrupt the order index.
		var zero E
		return zero, fmt.Errorf("store: patch changed identifier %s to %s", id, next.EntityID())
	}
	s.byID[id] = next
	return next, nil
}

// All returns the cached records in first-insertion order. The returned
// slice is a copy; derived views are free to sort or partition it.
func (s *Store[E]) All() []E {
	out := make([]E, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Reset rebuilds the cache from a full list response, dropping whatever
// the session accumulated. Later duplicates of an identifier win.
func (s *Store[E]) Reset(items []E) {
	s.order = s.order[:0]
	s.byID = make(map[string]E, len(items))
	for _, e := range items {
		s.Put(e)
	}
}

// Remove drops a record from the cache. Only explicit remove actions use
// this; ordinary lifecycle keeps records for the whole session.
func (s *Store[E]) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}
