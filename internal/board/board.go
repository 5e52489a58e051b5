// internal/board/board.go
//
// Board is the synchronization engine behind every dashboard view. It owns
// the session cache for one entity kind and funnels every user intent
// through the same optimistic path:
//
//	Stage  -> policy check, local apply + snapshot, in-flight mark
//	Commit -> exactly one persistence call (run off the UI loop)
//	Resolve-> authoritative merge on success, snapshot restore on rejection
//
// All Board methods must be called from the UI event loop; only the commit
// closures returned by Stage* are safe to run on another goroutine.

package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kingrea/opsdeck/internal/api"
	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/journal"
	"github.com/kingrea/opsdeck/internal/store"
)

var (
	// ErrInFlight rejects a duplicate of an action that is still waiting
	// on its persistence call.
	ErrInFlight = errors.New("board: action already in flight")

	// ErrBlankNote rejects empty or whitespace-only note content before
	// any network call.
	ErrBlankNote = errors.New("board: note content is empty")
)

// Entity is a record the board can manage.
type Entity[E any] interface {
	store.Record[E]
	StatusKey() string
}

// StatusPatch is implemented by patches that move a record's status, so
// the board can run the transition policy before applying anything.
type StatusPatch interface {
	StatusChange() (string, bool)
}

// Persister is the persistence surface a board needs; api.Resource
// satisfies it, tests substitute fakes.
type Persister[E any] interface {
	Patch(ctx context.Context, id string, fields map[string]any) (*E, error)
	Notes(ctx context.Context, id string) ([]entity.Note, error)
	AddNote(ctx context.Context, id, content string) (entity.Note, error)
}

// Result carries the outcome of a committed mutation back to the loop.
type Result[E any] struct {
	ID     string
	Action string
	Entity *E
	Err    error
}

// NotesResult carries a fetched thread back to the loop.
type NotesResult struct {
	ID    string
	Notes []entity.Note
	Err   error
}

// NoteResult carries an appended note back to the loop.
type NoteResult struct {
	ID   string
	Note entity.Note
	Err  error
}

// Commit performs the single persistence call for a staged mutation.
type Commit[E any] func(ctx context.Context) Result[E]

// Option customizes board construction.
type Option[E Entity[E]] func(*Board[E])

// WithPolicy installs a transition policy.
func WithPolicy[E Entity[E]](p Policy) Option[E] {
	return func(b *Board[E]) {
		if p != nil {
			b.policy = p
		}
	}
}

// WithJournal attaches the session activity journal.
func WithJournal[E Entity[E]](j *journal.Journal) Option[E] {
	return func(b *Board[E]) {
		b.journal = j
	}
}

// WithClock overrides the local timestamp source (used in tests).
func WithClock[E Entity[E]](clock func() time.Time) Option[E] {
	return func(b *Board[E]) {
		if clock != nil {
			b.now = clock
		}
	}
}

// WithNoteCounter teaches the board how to reflect a changed note count
// in the entity's core fields after a successful append.
func WithNoteCounter[E Entity[E]](counter func(count int) store.Patch[E]) Option[E] {
	return func(b *Board[E]) {
		b.noteCounter = counter
	}
}

// Board synchronizes one entity kind's cache, detail reference, and note
// threads against the persistence API.
type Board[E Entity[E]] struct {
	kind    string
	cache   *store.Store[E]
	persist Persister[E]
	policy  Policy
	journal *journal.Journal
	now     func() time.Time

	openID    string
	threads   map[string][]entity.Note
	drafts    map[string]string
	inflight  map[string]struct{}
	snapshots map[string]E

	noteCounter func(count int) store.Patch[E]
	lastErr     string
}

// New creates a board for one entity kind.
func New[E Entity[E]](kind string, persist Persister[E], opts ...Option[E]) *Board[E] {
	b := &Board[E]{
		kind:      kind,
		cache:     store.New[E](),
		persist:   persist,
		policy:    AllowAll(),
		now:       time.Now,
		threads:   map[string][]entity.Note{},
		drafts:    map[string]string{},
		inflight:  map[string]struct{}{},
		snapshots: map[string]E{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Kind returns the entity kind this board manages.
func (b *Board[E]) Kind() string { return b.kind }

// Load rebuilds the session cache from a full list response.
func (b *Board[E]) Load(items []E) {
	b.cache.Reset(items)
	if b.openID != "" {
		if _, ok := b.cache.Get(b.openID); !ok {
			b.openID = ""
		}
	}
}

// Created seeds a new cache entry from a successful create response.
func (b *Board[E]) Created(e E) {
	b.cache.Put(e)
	b.logf(journal.LevelInfo, "%s %s created", b.kind, e.EntityID())
}

// Get returns the cached record for id.
func (b *Board[E]) Get(id string) (E, bool) {
	return b.cache.Get(id)
}

// All returns the cached records in first-insertion order.
func (b *Board[E]) All() []E {
	return b.cache.All()
}

// Len reports the number of cached records.
func (b *Board[E]) Len() int {
	return b.cache.Len()
}

// Remove drops a record; an explicit remove action, not part of the
// ordinary lifecycle. An open detail pointing at it becomes no selection.
func (b *Board[E]) Remove(id string) bool {
	removed := b.cache.Remove(id)
	if removed && b.openID == id {
		b.openID = ""
	}
	return removed
}

// Stage validates and applies a mutation optimistically, then returns the
// commit that persists it. The local cache (and therefore any open detail)
// reflects the change before the network is involved. A second identical
// action on the same record while the first is in flight is rejected with
// ErrInFlight and changes nothing.
func (b *Board[E]) Stage(id string, patch store.Patch[E], action string) (Commit[E], error) {
	key := flightKey(id, action)
	if _, busy := b.inflight[key]; busy {
		return nil, fmt.Errorf("%w: %s on %s", ErrInFlight, action, id)
	}
	current, ok := b.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if sp, moves := patch.(StatusPatch); moves {
		if to, changed := sp.StatusChange(); changed {
			if err := b.policy.Allow(b.kind, current.StatusKey(), to); err != nil {
				return nil, err
			}
		}
	}

	if _, err := b.cache.Apply(id, patch, b.now()); err != nil {
		return nil, err
	}
	b.snapshots[key] = current
	b.inflight[key] = struct{}{}
	b.logf(journal.LevelInfo, "%s %s staged %s", b.kind, id, action)

	fields := patch.Fields()
	return func(ctx context.Context) Result[E] {
		updated, err := b.persist.Patch(ctx, id, fields)
		return Result[E]{ID: id, Action: action, Entity: updated, Err: err}
	}, nil
}

// Resolve folds a commit outcome back into the cache. A success with
// authoritative fields overwrites the optimistic guess; a definitive
// rejection restores the pre-mutation snapshot and records the error. A
// transport failure leaves the optimistic value in place (the save may
// have landed) and only surfaces the error so the operator can retry.
func (b *Board[E]) Resolve(r Result[E]) {
	key := flightKey(r.ID, r.Action)
	snapshot, hadSnapshot := b.snapshots[key]
	delete(b.inflight, key)
	delete(b.snapshots, key)

	if r.Err != nil {
		if api.IsRejection(r.Err) && hadSnapshot {
			b.cache.Put(snapshot)
			b.lastErr = fmt.Sprintf("%s on %s was rejected and rolled back: %v", r.Action, r.ID, r.Err)
			b.logf(journal.LevelWarn, "%s %s %s rejected, snapshot restored", b.kind, r.ID, r.Action)
			return
		}
		b.lastErr = fmt.Sprintf("%s on %s may not have saved: %v", r.Action, r.ID, r.Err)
		b.logf(journal.LevelError, "%s %s %s failed: %v", b.kind, r.ID, r.Action, r.Err)
		return
	}
	if r.Entity != nil {
		b.cache.Put(*r.Entity)
	}
	b.logf(journal.LevelInfo, "%s %s %s confirmed", b.kind, r.ID, r.Action)
}

// InFlight reports whether the given action is still waiting on its
// persistence call; views use this to disable the triggering control.
func (b *Board[E]) InFlight(id, action string) bool {
	_, busy := b.inflight[flightKey(id, action)]
	return busy
}

// LastError returns the most recent user-visible failure, if any.
func (b *Board[E]) LastError() string { return b.lastErr }

// ClearError dismisses the error banner.
func (b *Board[E]) ClearError() { b.lastErr = "" }

// --- detail reference ---------------------------------------------------

// OpenDetail selects a record for the detail panel. The reference keeps
// only the identifier and reads fields through the cache, so the panel can
// never drift from the list behind it. Returns false when the identifier
// is not cached.
func (b *Board[E]) OpenDetail(id string) bool {
	if _, ok := b.cache.Get(id); !ok {
		return false
	}
	b.openID = id
	return true
}

// CloseDetail clears the selection without touching the cache.
func (b *Board[E]) CloseDetail() {
	b.openID = ""
}

// OpenID returns the selected identifier, or "" when nothing is open.
func (b *Board[E]) OpenID() string { return b.openID }

// Detail returns the selected record, fresh from the cache. A reference
// to an identifier that is no longer cached reads as no selection.
func (b *Board[E]) Detail() (E, bool) {
	if b.openID == "" {
		var zero E
		return zero, false
	}
	return b.cache.Get(b.openID)
}

// --- note threads -------------------------------------------------------

// Thread returns the cached notes for a record, most recent first.
func (b *Board[E]) Thread(id string) []entity.Note {
	return b.threads[id]
}

// ThreadLoaded reports whether a thread fetch has completed for id.
func (b *Board[E]) ThreadLoaded(id string) bool {
	_, ok := b.threads[id]
	return ok
}

// FetchNotes returns the commit that loads a record's thread. Safe to
// call repeatedly: notes are immutable, so the last fetch simply wins.
func (b *Board[E]) FetchNotes(id string) func(ctx context.Context) NotesResult {
	return func(ctx context.Context) NotesResult {
		notes, err := b.persist.Notes(ctx, id)
		return NotesResult{ID: id, Notes: notes, Err: err}
	}
}

// ResolveNotes installs a fetched thread.
func (b *Board[E]) ResolveNotes(r NotesResult) {
	if r.Err != nil {
		b.lastErr = fmt.Sprintf("loading notes for %s failed: %v", r.ID, r.Err)
		b.logf(journal.LevelError, "%s %s notes fetch failed: %v", b.kind, r.ID, r.Err)
		return
	}
	notes := r.Notes
	if notes == nil {
		notes = []entity.Note{}
	}
	b.threads[r.ID] = notes
}

// SetDraft stores the note input buffer for a record. The buffer is only
// cleared by a successful append.
func (b *Board[E]) SetDraft(id, content string) {
	b.drafts[id] = content
}

// Draft returns the note input buffer for a record.
func (b *Board[E]) Draft(id string) string {
	return b.drafts[id]
}

// StageNote validates a note and returns the commit that persists it.
// Unlike field mutations, notes are not optimistic: nothing is cached
// until the backend confirms, and blank content never leaves the client.
func (b *Board[E]) StageNote(id, content string) (func(ctx context.Context) NoteResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrBlankNote
	}
	key := flightKey(id, "note")
	if _, busy := b.inflight[key]; busy {
		return nil, fmt.Errorf("%w: note on %s", ErrInFlight, id)
	}
	if _, ok := b.cache.Get(id); !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	b.inflight[key] = struct{}{}
	return func(ctx context.Context) NoteResult {
		note, err := b.persist.AddNote(ctx, id, content)
		return NoteResult{ID: id, Note: note, Err: err}
	}, nil
}

// ResolveNote prepends a confirmed note to its thread, clears the input
// buffer, and reflects the new count in the entity's core fields.
func (b *Board[E]) ResolveNote(r NoteResult) {
	delete(b.inflight, flightKey(r.ID, "note"))
	if r.Err != nil {
		b.lastErr = fmt.Sprintf("note on %s was not saved: %v", r.ID, r.Err)
		b.logf(journal.LevelError, "%s %s note append failed: %v", b.kind, r.ID, r.Err)
		return
	}
	b.threads[r.ID] = append([]entity.Note{r.Note}, b.threads[r.ID]...)
	delete(b.drafts, r.ID)
	if b.noteCounter != nil {
		if _, err := b.cache.Apply(r.ID, b.noteCounter(len(b.threads[r.ID])), b.now()); err != nil {
			b.logf(journal.LevelWarn, "%s %s note count update skipped: %v", b.kind, r.ID, err)
		}
	}
	b.logf(journal.LevelInfo, "%s %s note appended", b.kind, r.ID)
}

func (b *Board[E]) logf(level journal.Level, format string, args ...any) {
	if b.journal == nil {
		return
	}
	b.journal.Append(level, fmt.Sprintf(format, args...))
}

func flightKey(id, action string) string {
	return id + "|" + action
}
