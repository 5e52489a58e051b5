// internal/tui/tickets.go
//
// The tickets board is an SLA queue: urgency rank first, then ascending
// due time, so the most overdue critical work is always at the top.

package tui

import (
	"fmt"
	"time"

	"github.com/kingrea/opsdeck/internal/board"
	"github.com/kingrea/opsdeck/internal/derive"
	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/store"
)

func newTicketsView(app *App) *boardView[entity.Ticket] {
	b := board.New[entity.Ticket]("tickets", app.backend.Tickets,
		board.WithPolicy[entity.Ticket](app.policy),
		board.WithJournal[entity.Ticket](app.journal),
		board.WithNoteCounter[entity.Ticket](func(count int) store.Patch[entity.Ticket] {
			return entity.TicketPatch{NotesCount: &count}
		}),
	)
	cfg := boardConfig[entity.Ticket]{
		id:          "tickets",
		title:       "Facility Tickets",
		stages:      derive.StageOrder(entity.TicketStates()),
		facetKey:    "status",
		facetValues: append([]string{derive.FacetAll}, derive.StageOrder(entity.TicketStates())...),
		list:        app.backend.ListTickets,
		arrange:     derive.SortTickets,
		header:      ticketHeader,
		renderRow:   renderTicketRow,
		detailLines: ticketDetailLines,
		statusPatch: func(status string) store.Patch[entity.Ticket] {
			s := entity.TicketStatus(status)
			return entity.TicketPatch{Status: &s}
		},
		assignee: func(t entity.Ticket) string { return t.AssignedTo },
		assignPatch: func(member string) store.Patch[entity.Ticket] {
			return entity.TicketPatch{AssignedTo: &member}
		},
	}
	return newBoardView(app, b, cfg)
}

func ticketHeader(items []entity.Ticket) string {
	now := time.Now()
	overdue := 0
	for _, t := range items {
		if t.Status != entity.TicketResolved && derive.Overdue(t.SLADueAt, now) {
			overdue++
		}
	}
	if overdue == 0 {
		return okStyle.Render("All tickets inside SLA")
	}
	return overdueStyle.Render(fmt.Sprintf("%d ticket(s) past SLA", overdue))
}

func renderTicketRow(t entity.Ticket, width int) string {
	due := "no SLA"
	if t.SLADueAt != nil {
		due = t.SLADueAt.Format("Jan 2 15:04")
		if derive.Overdue(t.SLADueAt, time.Now()) && t.Status != entity.TicketResolved {
			due = overdueStyle.Render(due + " OVERDUE")
		}
	}
	urgency := urgencyStyle(t.Urgency.Rank()).Render(fmt.Sprintf("%-8s", t.Urgency))
	row := fmt.Sprintf("%s [%-11s] %-28s %-14s %s", urgency, t.Status, truncate(t.Title, 28), truncate(t.Facility, 14), due)
	return row
}

func ticketDetailLines(t entity.Ticket) []string {
	lines := []string{
		t.Title,
		fmt.Sprintf("Facility: %s", t.Facility),
		fmt.Sprintf("Status: %s · Urgency: %s", t.Status, t.Urgency),
		fmt.Sprintf("Assigned: %s", orUnassigned(t.AssignedTo)),
	}
	if t.SLADueAt != nil {
		state := "due"
		if derive.Overdue(t.SLADueAt, time.Now()) {
			state = "OVERDUE since"
		}
		lines = append(lines, fmt.Sprintf("SLA %s %s", state, t.SLADueAt.Format("Jan 2 15:04")))
	}
	lines = append(lines, fmt.Sprintf("Opened: %s", t.CreatedAt.Format("Jan 2 15:04")))
	return lines
}
