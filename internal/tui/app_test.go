package tui

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/opsdeck/internal/api"
	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/jobboard"
)

// stubPersister satisfies board.Persister for any entity kind.
type stubPersister[E any] struct {
	patchErr error
}

func (s *stubPersister[E]) Patch(context.Context, string, map[string]any) (*E, error) {
	return nil, s.patchErr
}

func (s *stubPersister[E]) Notes(context.Context, string) ([]entity.Note, error) {
	return nil, nil
}

func (s *stubPersister[E]) AddNote(_ context.Context, id, content string) (entity.Note, error) {
	return entity.Note{ID: "note-1", EntityID: id, Content: content, CreatedAt: time.Now()}, nil
}

func testBackend() Backend {
	return Backend{
		Leads:        &stubPersister[entity.Lead]{},
		Tickets:      &stubPersister[entity.Ticket]{},
		Partners:     &stubPersister[entity.Partner]{},
		Applications: &stubPersister[entity.Application]{},
		Jobs:         &stubPersister[entity.Job]{},
		ListLeads: func(context.Context) ([]entity.Lead, error) {
			return []entity.Lead{{ID: "l1", Name: "Harbor View", Status: entity.LeadNew}}, nil
		},
		ListTickets: func(context.Context) ([]entity.Ticket, error) {
			return []entity.Ticket{{ID: "t1", Title: "HVAC down", Status: entity.TicketOpen, Urgency: entity.UrgencyCritical}}, nil
		},
		ListPartners: func(context.Context) ([]entity.Partner, error) {
			return []entity.Partner{{ID: "p1", Company: "Voltline Electric", Status: entity.PartnerPending}}, nil
		},
		ListApplications: func(context.Context) ([]entity.Application, error) {
			return []entity.Application{{ID: "a1", Candidate: "T. Nguyen", Status: entity.ApplicationApplied}}, nil
		},
		ListJobs: func(context.Context) ([]entity.Job, error) {
			return []entity.Job{{ID: "j1", Title: "Estimator", Status: entity.JobOpen, BoardSync: entity.SyncNotSynced}}, nil
		},
		Invite: func(_ context.Context, partnerID string) (api.Invite, error) {
			return api.Invite{URL: "https://uploads.example.com/d/" + partnerID}, nil
		},
		JobBoard: jobboard.NewStub(),
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(t.TempDir(), WithBackend(testBackend()))
	if err != nil {
		t.Fatalf("NewApp returned error: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func loadAll(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()
	leads, _ := a.backend.ListLeads(ctx)
	a.leads.Update(listLoadedMsg[entity.Lead]{items: leads})
	tickets, _ := a.backend.ListTickets(ctx)
	a.tickets.Update(listLoadedMsg[entity.Ticket]{items: tickets})
	partners, _ := a.backend.ListPartners(ctx)
	a.partners.Update(listLoadedMsg[entity.Partner]{items: partners})
	apps, _ := a.backend.ListApplications(ctx)
	a.recruiting.Update(listLoadedMsg[entity.Application]{items: apps})
	jobs, _ := a.backend.ListJobs(ctx)
	a.recruiting.Update(jobsLoadedMsg{items: jobs})
}

func TestNewAppStartsOnMainMenu(t *testing.T) {
	app := newTestApp(t)
	if app.state != stateMainMenu {
		t.Fatalf("expected main menu state, got %v", app.state)
	}
	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should schedule the initial fetches")
	}
}

func TestListLoadSeedsBoardCaches(t *testing.T) {
	app := newTestApp(t)
	loadAll(t, app)
	if app.leads.board.Len() != 1 {
		t.Fatalf("leads cache not seeded: %d", app.leads.board.Len())
	}
	if app.tickets.board.Len() != 1 {
		t.Fatalf("tickets cache not seeded: %d", app.tickets.board.Len())
	}
	if app.recruiting.jobs.Len() != 1 {
		t.Fatalf("jobs cache not seeded: %d", app.recruiting.jobs.Len())
	}
}

func TestStatusKeyStagesOptimistically(t *testing.T) {
	app := newTestApp(t)
	loadAll(t, app)
	app.state = stateBoard
	app.activeBoard = "leads"

	// "2" moves the selected lead to the second pipeline stage.
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if model != app {
		t.Fatal("Update must return the same model")
	}
	if cmd == nil {
		t.Fatal("expected a commit command")
	}
	lead, _ := app.leads.board.Get("l1")
	if lead.Status != entity.LeadContacted {
		t.Fatalf("expected optimistic stage change, got %q", lead.Status)
	}

	// Resolving the commit's message clears the flight mark.
	msg := cmd()
	app.Update(msg)
	if app.leads.board.InFlight("l1", "status") {
		t.Fatal("flight mark not cleared after resolve")
	}
}

func TestMutationResultRoutesAcrossBoards(t *testing.T) {
	app := newTestApp(t)
	loadAll(t, app)
	app.state = stateBoard
	app.activeBoard = "leads"

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if cmd == nil {
		t.Fatal("expected a commit command")
	}

	// Operator switches to another board before the commit resolves.
	app.activeBoard = "tickets"
	app.Update(cmd())
	if app.leads.board.InFlight("l1", "status") {
		t.Fatal("result must resolve even when its board is not active")
	}
}

func TestRejectedCommitRollsBackAndSetsBanner(t *testing.T) {
	backend := testBackend()
	backend.Leads = &stubPersister[entity.Lead]{
		patchErr: &api.APIError{Status: 422, Message: "transition not allowed"},
	}
	app, err := NewApp(t.TempDir(), WithBackend(backend))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(app.Close)
	loadAll(t, app)
	app.state = stateBoard
	app.activeBoard = "leads"

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if cmd == nil {
		t.Fatal("expected a commit command")
	}
	app.Update(cmd())

	lead, _ := app.leads.board.Get("l1")
	if lead.Status != entity.LeadNew {
		t.Fatalf("rejected commit must roll back, got %q", lead.Status)
	}
	if app.statusMsg == "" {
		t.Fatal("rejection must surface in the footer banner")
	}
}

func TestInviteMessageLandsOnPartnerRecord(t *testing.T) {
	app := newTestApp(t)
	loadAll(t, app)

	_, cmd := app.Update(inviteMsg{partnerID: "p1", invite: api.Invite{URL: "https://uploads.example.com/d/p1"}})
	if cmd == nil {
		t.Fatal("expected a commit command for the invite patch")
	}
	partner, _ := app.partners.board.Get("p1")
	if partner.InviteURL != "https://uploads.example.com/d/p1" {
		t.Fatalf("invite URL not stored: %q", partner.InviteURL)
	}
	app.Update(cmd())
}

func TestPublishMessageUpdatesJobSyncState(t *testing.T) {
	app := newTestApp(t)
	loadAll(t, app)

	_, cmd := app.Update(publishMsg{jobID: "j1", externalID: "jb-1234abcd"})
	if cmd == nil {
		t.Fatal("expected a commit command for the sync patch")
	}
	job, _ := app.recruiting.jobs.Get("j1")
	if job.BoardSync != entity.SyncSynced || job.ExternalID != "jb-1234abcd" {
		t.Fatalf("publish outcome not applied: %+v", job)
	}
	app.Update(cmd())
}

func TestQuitFromMainMenu(t *testing.T) {
	app := newTestApp(t)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q on the main menu should quit")
	}
	if msg := cmd(); fmt.Sprintf("%T", msg) != "tea.QuitMsg" {
		t.Fatalf("expected tea.QuitMsg, got %T", msg)
	}
}

func TestViewRendersWithoutPanic(t *testing.T) {
	app := newTestApp(t)
	loadAll(t, app)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	for _, id := range []string{"leads", "tickets", "partners", "recruiting"} {
		app.state = stateBoard
		app.activeBoard = id
		if app.View() == "" {
			t.Fatalf("empty view for board %q", id)
		}
	}
	app.state = stateMainMenu
	if app.View() == "" {
		t.Fatal("empty main menu view")
	}
}
