package board

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kingrea/opsdeck/internal/api"
	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/store"
)

// fakePersister records calls and returns scripted outcomes.
type fakePersister struct {
	patchCalls  int
	patchFields map[string]any
	patchEntity *entity.Lead
	patchErr    error

	notes    []entity.Note
	notesErr error

	addNoteErr error
	noteSeq    int
}

func (f *fakePersister) Patch(_ context.Context, id string, fields map[string]any) (*entity.Lead, error) {
	f.patchCalls++
	f.patchFields = fields
	return f.patchEntity, f.patchErr
}

func (f *fakePersister) Notes(_ context.Context, id string) ([]entity.Note, error) {
	return f.notes, f.notesErr
}

func (f *fakePersister) AddNote(_ context.Context, id, content string) (entity.Note, error) {
	if f.addNoteErr != nil {
		return entity.Note{}, f.addNoteErr
	}
	f.noteSeq++
	return entity.Note{
		ID:        fmt.Sprintf("note-%d", f.noteSeq),
		Author:    "test",
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

var testClock = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func newLeadBoard(persist Persister[entity.Lead], opts ...Option[entity.Lead]) *Board[entity.Lead] {
	opts = append([]Option[entity.Lead]{
		WithClock[entity.Lead](func() time.Time { return testClock }),
	}, opts...)
	b := New[entity.Lead]("leads", persist, opts...)
	b.Load([]entity.Lead{
		{ID: "l1", Name: "Harbor View", Status: entity.LeadNew, UpdatedAt: testClock.Add(-time.Hour)},
		{ID: "l2", Name: "Depot Street", Status: entity.LeadContacted, UpdatedAt: testClock.Add(-time.Hour)},
	})
	return b
}

func statusPatch(s entity.LeadStatus) entity.LeadPatch {
	return entity.LeadPatch{Status: &s}
}

func TestStageAppliesOptimisticallyBeforeCommit(t *testing.T) {
	persist := &fakePersister{}
	b := newLeadBoard(persist)

	commit, err := b.Stage("l1", statusPatch(entity.LeadContacted), "status")
	if err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	// The cache reflects the change before the network runs.
	if persist.patchCalls != 0 {
		t.Fatal("Stage must not touch the network")
	}
	got, _ := b.Get("l1")
	if got.Status != entity.LeadContacted {
		t.Fatalf("expected optimistic status, got %q", got.Status)
	}
	if !got.UpdatedAt.Equal(testClock) {
		t.Fatalf("expected fresh timestamp, got %v", got.UpdatedAt)
	}

	result := commit(context.Background())
	if persist.patchCalls != 1 {
		t.Fatalf("expected exactly one persistence call, got %d", persist.patchCalls)
	}
	if result.Err != nil {
		t.Fatalf("commit failed: %v", result.Err)
	}
	if persist.patchFields["status"] != "contacted" {
		t.Fatalf("unexpected wire fields: %+v", persist.patchFields)
	}
}

func TestResolveSuccessMergesAuthoritativeEntity(t *testing.T) {
	canonical := entity.Lead{ID: "l1", Name: "Harbor View (normalized)", Status: entity.LeadContacted}
	persist := &fakePersister{patchEntity: &canonical}
	b := newLeadBoard(persist)

	commit, err := b.Stage("l1", statusPatch(entity.LeadContacted), "status")
	if err != nil {
		t.Fatal(err)
	}
	b.Resolve(commit(context.Background()))

	got, _ := b.Get("l1")
	if got.Name != "Harbor View (normalized)" {
		t.Fatalf("authoritative fields did not overwrite: %q", got.Name)
	}
	if b.InFlight("l1", "status") {
		t.Fatal("flight mark not cleared after resolve")
	}
}

func TestResolveRejectionRollsBackSnapshot(t *testing.T) {
	persist := &fakePersister{patchErr: &api.APIError{Status: 422, Message: "transition not allowed"}}
	b := newLeadBoard(persist)

	commit, err := b.Stage("l1", statusPatch(entity.LeadWon), "status")
	if err != nil {
		t.Fatal(err)
	}
	b.Resolve(commit(context.Background()))

	got, _ := b.Get("l1")
	if got.Status != entity.LeadNew {
		t.Fatalf("expected rollback to pre-mutation status, got %q", got.Status)
	}
	if b.LastError() == "" {
		t.Fatal("rejection must surface an error banner")
	}
}

func TestResolveTransportErrorKeepsOptimisticValue(t *testing.T) {
	persist := &fakePersister{patchErr: errors.New("dial tcp: connection refused")}
	b := newLeadBoard(persist)

	commit, err := b.Stage("l1", statusPatch(entity.LeadContacted), "status")
	if err != nil {
		t.Fatal(err)
	}
	b.Resolve(commit(context.Background()))

	// The save may have landed server-side; do not roll back.
	got, _ := b.Get("l1")
	if got.Status != entity.LeadContacted {
		t.Fatalf("transport failure must not roll back, got %q", got.Status)
	}
	if b.LastError() == "" {
		t.Fatal("transport failure must surface an error banner")
	}
}

func TestStageRejectsDuplicateInFlightAction(t *testing.T) {
	b := newLeadBoard(&fakePersister{})

	if _, err := b.Stage("l1", statusPatch(entity.LeadContacted), "status"); err != nil {
		t.Fatal(err)
	}
	_, err := b.Stage("l1", statusPatch(entity.LeadQualified), "status")
	if !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	// The duplicate must not have changed the cache.
	got, _ := b.Get("l1")
	if got.Status != entity.LeadContacted {
		t.Fatalf("duplicate action leaked into the cache: %q", got.Status)
	}

	// A different action on the same record is fine.
	assignee := "dcole"
	if _, err := b.Stage("l1", entity.LeadPatch{AssignedTo: &assignee}, "assign"); err != nil {
		t.Fatalf("independent action blocked: %v", err)
	}
}

func TestStageVetoedByPolicyChangesNothing(t *testing.T) {
	persist := &fakePersister{}
	veto := PolicyFunc(func(kind, from, to string) error {
		return fmt.Errorf("%s may not move %s -> %s", kind, from, to)
	})
	b := newLeadBoard(persist, WithPolicy[entity.Lead](veto))

	_, err := b.Stage("l1", statusPatch(entity.LeadWon), "status")
	if err == nil {
		t.Fatal("expected policy veto")
	}
	got, _ := b.Get("l1")
	if got.Status != entity.LeadNew {
		t.Fatalf("vetoed mutation touched the cache: %q", got.Status)
	}
	if persist.patchCalls != 0 {
		t.Fatal("vetoed mutation reached the network")
	}
}

func TestStageSameStatusIsIdempotentTouch(t *testing.T) {
	persist := &fakePersister{}
	b := newLeadBoard(persist)

	// Re-setting the current status changes nothing but the timestamp.
	commit, err := b.Stage("l1", statusPatch(entity.LeadNew), "status")
	if err != nil {
		t.Fatalf("idempotent status set rejected: %v", err)
	}
	got, _ := b.Get("l1")
	if got.Status != entity.LeadNew {
		t.Fatalf("status changed on idempotent set: %q", got.Status)
	}
	if !got.UpdatedAt.Equal(testClock) {
		t.Fatalf("timestamp not refreshed: %v", got.UpdatedAt)
	}
	b.Resolve(commit(context.Background()))
	if persist.patchCalls != 1 {
		t.Fatalf("idempotent set must still persist once, got %d calls", persist.patchCalls)
	}
}

func TestCreatedSeedsNewCacheEntry(t *testing.T) {
	b := newLeadBoard(&fakePersister{})
	before := b.Len()
	b.Created(entity.Lead{ID: "l9", Name: "Quarry Access Road", Status: entity.LeadNew})
	if b.Len() != before+1 {
		t.Fatalf("expected %d records, got %d", before+1, b.Len())
	}
	got, ok := b.Get("l9")
	if !ok || got.Name != "Quarry Access Road" {
		t.Fatalf("created record not cached: %+v", got)
	}
	// Order: the new record appends after the loaded ones.
	all := b.All()
	if all[len(all)-1].ID != "l9" {
		t.Fatalf("created record not at the end: %q", all[len(all)-1].ID)
	}
}

func TestStageUnknownIDReturnsNotFound(t *testing.T) {
	b := newLeadBoard(&fakePersister{})
	_, err := b.Stage("ghost", statusPatch(entity.LeadContacted), "status")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDetailReadsThroughCache(t *testing.T) {
	b := newLeadBoard(&fakePersister{})
	if !b.OpenDetail("l1") {
		t.Fatal("OpenDetail refused a cached id")
	}

	commit, err := b.Stage("l1", statusPatch(entity.LeadContacted), "status")
	if err != nil {
		t.Fatal(err)
	}
	detail, ok := b.Detail()
	if !ok {
		t.Fatal("detail lost after mutation")
	}
	if detail.Status != entity.LeadContacted {
		t.Fatalf("detail drifted from cache: %q", detail.Status)
	}
	b.Resolve(commit(context.Background()))

	if b.OpenDetail("ghost") {
		t.Fatal("OpenDetail accepted an unknown id")
	}
}

func TestLoadClearsDanglingDetail(t *testing.T) {
	b := newLeadBoard(&fakePersister{})
	b.OpenDetail("l2")
	b.Load([]entity.Lead{{ID: "l1", Status: entity.LeadNew}})
	if _, ok := b.Detail(); ok {
		t.Fatal("detail must clear when its record is gone from a reload")
	}
}

func TestStageNoteRejectsBlankContent(t *testing.T) {
	persist := &fakePersister{}
	b := newLeadBoard(persist)
	for _, content := range []string{"", "   ", "\n\t "} {
		if _, err := b.StageNote("l1", content); !errors.Is(err, ErrBlankNote) {
			t.Fatalf("content %q: expected ErrBlankNote, got %v", content, err)
		}
	}
	if persist.noteSeq != 0 {
		t.Fatal("blank note reached the persister")
	}
}

func TestResolveNotePrependsMostRecentFirst(t *testing.T) {
	persist := &fakePersister{}
	counter := func(count int) store.Patch[entity.Lead] {
		return entity.LeadPatch{NotesCount: &count}
	}
	b := newLeadBoard(persist, WithNoteCounter[entity.Lead](counter))
	b.ResolveNotes(NotesResult{ID: "l1", Notes: []entity.Note{}})

	for _, content := range []string{"first note", "second note"} {
		commit, err := b.StageNote("l1", content)
		if err != nil {
			t.Fatal(err)
		}
		b.ResolveNote(commit(context.Background()))
	}

	thread := b.Thread("l1")
	if len(thread) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(thread))
	}
	if thread[0].Content != "second note" || thread[1].Content != "first note" {
		t.Fatalf("thread not most-recent-first: %+v", thread)
	}
	got, _ := b.Get("l1")
	if got.NotesCount != 2 {
		t.Fatalf("note count not reflected on the record: %d", got.NotesCount)
	}
}

func TestNoteDraftClearsOnlyOnSuccess(t *testing.T) {
	persist := &fakePersister{addNoteErr: errors.New("boom")}
	b := newLeadBoard(persist)
	b.SetDraft("l1", "call the inspector back")

	commit, err := b.StageNote("l1", "call the inspector back")
	if err != nil {
		t.Fatal(err)
	}
	b.ResolveNote(commit(context.Background()))
	if b.Draft("l1") != "call the inspector back" {
		t.Fatal("failed append must keep the draft")
	}

	persist.addNoteErr = nil
	commit, err = b.StageNote("l1", "call the inspector back")
	if err != nil {
		t.Fatal(err)
	}
	b.ResolveNote(commit(context.Background()))
	if b.Draft("l1") != "" {
		t.Fatal("successful append must clear the draft")
	}
}

func TestResolveNotesInstallsThread(t *testing.T) {
	notes := []entity.Note{
		{ID: "n2", Content: "newer"},
		{ID: "n1", Content: "older"},
	}
	persist := &fakePersister{notes: notes}
	b := newLeadBoard(persist)

	if b.ThreadLoaded("l1") {
		t.Fatal("thread must start unloaded")
	}
	fetch := b.FetchNotes("l1")
	b.ResolveNotes(fetch(context.Background()))
	if !b.ThreadLoaded("l1") {
		t.Fatal("thread should be loaded after resolve")
	}
	thread := b.Thread("l1")
	if len(thread) != 2 || thread[0].ID != "n2" {
		t.Fatalf("unexpected thread: %+v", thread)
	}
}

func TestRemoveClearsOpenDetail(t *testing.T) {
	b := newLeadBoard(&fakePersister{})
	b.OpenDetail("l1")
	if !b.Remove("l1") {
		t.Fatal("Remove refused a cached id")
	}
	if b.OpenID() != "" {
		t.Fatal("open detail must clear when its record is removed")
	}
}
