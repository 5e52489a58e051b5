// internal/tui/leads.go
//
// The leads board renders the sales pipeline: records grouped into the
// fixed stage order, with a per-stage count header derived from the
// filtered cache on every render.

package tui

import (
	"fmt"
	"strings"

	"github.com/kingrea/opsdeck/internal/board"
	"github.com/kingrea/opsdeck/internal/derive"
	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/store"
)

func newLeadsView(app *App) *boardView[entity.Lead] {
	stages := derive.StageOrder(entity.LeadStages())
	b := board.New[entity.Lead]("leads", app.backend.Leads,
		board.WithPolicy[entity.Lead](app.policy),
		board.WithJournal[entity.Lead](app.journal),
		board.WithNoteCounter[entity.Lead](func(count int) store.Patch[entity.Lead] {
			return entity.LeadPatch{NotesCount: &count}
		}),
	)
	cfg := boardConfig[entity.Lead]{
		id:          "leads",
		title:       "Leads",
		stages:      stages,
		facetKey:    "source",
		facetValues: []string{derive.FacetAll, "website", "referral", "phone", "event"},
		list:        app.backend.ListLeads,
		arrange:     arrangeLeadPipeline(stages),
		header:      leadPipelineHeader(stages),
		renderRow:   renderLeadRow,
		detailLines: leadDetailLines,
		statusPatch: func(status string) store.Patch[entity.Lead] {
			s := entity.LeadStatus(status)
			return entity.LeadPatch{Status: &s}
		},
		assignee: func(l entity.Lead) string { return l.AssignedTo },
		assignPatch: func(member string) store.Patch[entity.Lead] {
			return entity.LeadPatch{AssignedTo: &member}
		},
	}
	return newBoardView(app, b, cfg)
}

// arrangeLeadPipeline flattens the stage grouping back into one list, so
// the rendered order is pipeline order while cache order is kept within
// each stage.
func arrangeLeadPipeline(stages []string) func([]entity.Lead) []entity.Lead {
	return func(items []entity.Lead) []entity.Lead {
		buckets := derive.GroupByStage(items, stages)
		out := make([]entity.Lead, 0, len(items))
		for _, bucket := range buckets {
			out = append(out, bucket.Items...)
		}
		return out
	}
}

func leadPipelineHeader(stages []string) func([]entity.Lead) string {
	return func(items []entity.Lead) string {
		buckets := derive.GroupByStage(items, stages)
		parts := make([]string, len(buckets))
		for i, bucket := range buckets {
			parts[i] = columnStyle.Render(fmt.Sprintf("%s:%d", bucket.Stage, len(bucket.Items)))
		}
		return strings.Join(parts, "  ")
	}
}

func renderLeadRow(l entity.Lead, width int) string {
	assignee := l.AssignedTo
	if assignee == "" {
		assignee = "unassigned"
	}
	row := fmt.Sprintf("[%-9s] %-24s %-18s %s", l.Status, truncate(l.Name, 24), truncate(l.Company, 18), assignee)
	if l.EstimatedValue > 0 {
		row += fmt.Sprintf("  $%d", l.EstimatedValue)
	}
	return truncate(row, width)
}

func leadDetailLines(l entity.Lead) []string {
	lines := []string{
		fmt.Sprintf("%s · %s", l.Name, l.Company),
		fmt.Sprintf("Stage: %s", l.Status),
		fmt.Sprintf("Source: %s · Type: %s", l.Source, l.ProjectType),
		fmt.Sprintf("Contact: %s %s", l.Email, l.Phone),
		fmt.Sprintf("Assigned: %s", orUnassigned(l.AssignedTo)),
	}
	if l.EstimatedValue > 0 {
		lines = append(lines, fmt.Sprintf("Estimated value: $%d", l.EstimatedValue))
	}
	if l.NextActionAt != nil {
		lines = append(lines, fmt.Sprintf("Next action: %s", l.NextActionAt.Format("Jan 2 2006")))
	}
	lines = append(lines, fmt.Sprintf("Updated: %s", l.UpdatedAt.Format("Jan 2 15:04")))
	return lines
}

func orUnassigned(member string) string {
	if member == "" {
		return "unassigned"
	}
	return member
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
