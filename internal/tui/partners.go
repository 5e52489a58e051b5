// internal/tui/partners.go
//
// The partners board tracks subcontractor prequalification. Besides the
// shared board actions it can request a time-boxed document upload link
// ("i"), which lands on the partner record as an invite URL.

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/opsdeck/internal/api"
	"github.com/kingrea/opsdeck/internal/board"
	"github.com/kingrea/opsdeck/internal/derive"
	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/store"
)

type inviteMsg struct {
	partnerID string
	invite    api.Invite
	err       error
}

func newPartnersView(app *App) *boardView[entity.Partner] {
	b := board.New[entity.Partner]("partners", app.backend.Partners,
		board.WithPolicy[entity.Partner](app.policy),
		board.WithJournal[entity.Partner](app.journal),
		board.WithNoteCounter[entity.Partner](func(count int) store.Patch[entity.Partner] {
			return entity.PartnerPatch{NotesCount: &count}
		}),
	)
	cfg := boardConfig[entity.Partner]{
		id:          "partners",
		title:       "Partners",
		stages:      derive.StageOrder(entity.PartnerStates()),
		facetKey:    "trade",
		facetValues: []string{derive.FacetAll, "electrical", "plumbing", "hvac", "concrete", "roofing"},
		list:        app.backend.ListPartners,
		header:      partnerExpiryHeader,
		renderRow:   renderPartnerRow,
		detailLines: partnerDetailLines,
		statusPatch: func(status string) store.Patch[entity.Partner] {
			s := entity.PartnerStatus(status)
			return entity.PartnerPatch{Status: &s}
		},
		assignee: func(p entity.Partner) string { return p.AssignedTo },
		assignPatch: func(member string) store.Patch[entity.Partner] {
			return entity.PartnerPatch{AssignedTo: &member}
		},
		extraKey: partnerExtraKey(app),
	}
	return newBoardView(app, b, cfg)
}

func partnerExtraKey(app *App) func(v *boardView[entity.Partner], key string) (tea.Cmd, bool) {
	return func(v *boardView[entity.Partner], key string) (tea.Cmd, bool) {
		if key != "i" {
			return nil, false
		}
		item, ok := v.focusedItem()
		if !ok {
			return nil, true
		}
		id := item.EntityID()
		if v.board.InFlight(id, "invite") {
			app.setStatus(fmt.Sprintf("Invite for %s still pending", id))
			return nil, true
		}
		invite := app.backend.Invite
		if invite == nil {
			return nil, true
		}
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
			defer cancel()
			link, err := invite(ctx, id)
			return inviteMsg{partnerID: id, invite: link, err: err}
		}, true
	}
}

// handleInvite folds an invite response into the partner record; the
// engine only stores and displays the URL.
func (a *App) handleInvite(msg inviteMsg) tea.Cmd {
	if msg.err != nil {
		a.setStatus(fmt.Sprintf("Invite for %s failed: %v", msg.partnerID, msg.err))
		return nil
	}
	url := msg.invite.URL
	return a.partners.stage(msg.partnerID, entity.PartnerPatch{InviteURL: &url}, "invite_url")
}

func partnerExpiryHeader(items []entity.Partner) string {
	groups := derive.GroupByExpiry(items, func(p entity.Partner) *time.Time {
		return p.NextExpiry()
	}, time.Now())
	parts := make([]string, 0, len(groups))
	for _, group := range groups {
		if len(group.Items) == 0 {
			continue
		}
		label := fmt.Sprintf("%s:%d", group.Bucket, len(group.Items))
		if group.Bucket == derive.BucketExpired {
			label = overdueStyle.Render(label)
		} else {
			label = columnStyle.Render(label)
		}
		parts = append(parts, label)
	}
	if len(parts) == 0 {
		return dimStyle.Render("no compliance documents on file")
	}
	return strings.Join(parts, "  ")
}

func renderPartnerRow(p entity.Partner, width int) string {
	expiry := "no docs"
	if end := p.NextExpiry(); end != nil {
		bucket := derive.ClassifyExpiry(*end, time.Now())
		expiry = fmt.Sprintf("%s (%dd)", bucket, derive.DaysUntil(*end, time.Now()))
		if bucket == derive.BucketExpired {
			expiry = overdueStyle.Render(expiry)
		}
	}
	row := fmt.Sprintf("[%-8s] %-26s %-12s %s", p.Status, truncate(p.Company, 26), truncate(p.Trade, 12), expiry)
	return row
}

func partnerDetailLines(p entity.Partner) []string {
	lines := []string{
		p.Company,
		fmt.Sprintf("Contact: %s %s", p.Contact, p.Email),
		fmt.Sprintf("Trade: %s · Status: %s", p.Trade, p.Status),
		fmt.Sprintf("Assigned: %s", orUnassigned(p.AssignedTo)),
	}
	now := time.Now()
	if p.InsuranceExpiresAt != nil {
		lines = append(lines, fmt.Sprintf("Insurance: %s (%s)", p.InsuranceExpiresAt.Format("Jan 2 2006"), derive.ClassifyExpiry(*p.InsuranceExpiresAt, now)))
	}
	if p.LicenseExpiresAt != nil {
		lines = append(lines, fmt.Sprintf("License: %s (%s)", p.LicenseExpiresAt.Format("Jan 2 2006"), derive.ClassifyExpiry(*p.LicenseExpiresAt, now)))
	}
	if p.InviteURL != "" {
		lines = append(lines, fmt.Sprintf("Upload link: %s", p.InviteURL))
	}
	lines = append(lines, "Press i to generate a document upload link")
	return lines
}
