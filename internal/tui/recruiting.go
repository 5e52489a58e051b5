// internal/tui/recruiting.go
//
// Recruiting shows two collections: job postings (with their external
// job-board sync state) and the application funnel. Applications use the
// shared board view; postings are a strip above it with their own small
// board so publish results merge through the same upsert path.

package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/opsdeck/internal/board"
	"github.com/kingrea/opsdeck/internal/derive"
	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/store"
)

type publishMsg struct {
	jobID      string
	externalID string
	err        error
}

type jobsLoadedMsg struct {
	items []entity.Job
	err   error
}

type recruitingView struct {
	app          *App
	applications *boardView[entity.Application]
	jobs         *board.Board[entity.Job]
	jobSelection int
	jobsLoaded   bool
}

func newRecruitingView(app *App) *recruitingView {
	appBoard := board.New[entity.Application]("applications", app.backend.Applications,
		board.WithPolicy[entity.Application](app.policy),
		board.WithJournal[entity.Application](app.journal),
		board.WithNoteCounter[entity.Application](func(count int) store.Patch[entity.Application] {
			return entity.ApplicationPatch{NotesCount: &count}
		}),
	)
	stages := derive.StageOrder(entity.ApplicationStages())
	cfg := boardConfig[entity.Application]{
		id:          "applications",
		title:       "Applications",
		stages:      stages,
		facetKey:    "status",
		facetValues: append([]string{derive.FacetAll}, stages...),
		list:        app.backend.ListApplications,
		arrange: func(items []entity.Application) []entity.Application {
			buckets := derive.GroupByStage(items, stages)
			out := make([]entity.Application, 0, len(items))
			for _, bucket := range buckets {
				out = append(out, bucket.Items...)
			}
			return out
		},
		header:      applicationHeader(stages),
		renderRow:   renderApplicationRow,
		detailLines: applicationDetailLines,
		statusPatch: func(status string) store.Patch[entity.Application] {
			s := entity.ApplicationStatus(status)
			return entity.ApplicationPatch{Status: &s}
		},
		assignee: func(a entity.Application) string { return a.AssignedTo },
		assignPatch: func(member string) store.Patch[entity.Application] {
			return entity.ApplicationPatch{AssignedTo: &member}
		},
	}
	jobs := board.New[entity.Job]("jobs", app.backend.Jobs,
		board.WithPolicy[entity.Job](app.policy),
		board.WithJournal[entity.Job](app.journal),
	)
	view := &recruitingView{app: app, jobs: jobs}
	view.applications = newBoardView(app, appBoard, cfg)
	return view
}

// Init fetches both collections.
func (v *recruitingView) Init() tea.Cmd {
	return v.fetchLists()
}

func (v *recruitingView) fetchLists() tea.Cmd {
	return tea.Batch(v.applications.fetchList(), v.fetchJobs())
}

func (v *recruitingView) fetchJobs() tea.Cmd {
	listJobs := v.app.backend.ListJobs
	if listJobs == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		items, err := listJobs(ctx)
		return jobsLoadedMsg{items: items, err: err}
	}
}

func (v *recruitingView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case jobsLoadedMsg:
		if m.err != nil {
			v.app.setStatus(fmt.Sprintf("Loading jobs failed: %v", m.err))
			return nil
		}
		v.jobsLoaded = true
		v.jobs.Load(m.items)
		return nil
	case mutationDoneMsg[entity.Job]:
		v.jobs.Resolve(m.result)
		if banner := v.jobs.LastError(); banner != "" {
			v.app.setStatus(banner)
			v.jobs.ClearError()
		}
		return nil
	case tea.KeyMsg:
		switch m.String() {
		case "J":
			if count := v.jobs.Len(); count > 0 {
				v.jobSelection = (v.jobSelection + 1) % count
			}
			return nil
		case "p":
			return v.publishSelectedJob()
		}
		return v.applications.Update(msg)
	}
	return v.applications.Update(msg)
}

// publishSelectedJob re-triggers the job board sync for the selected
// posting. The resulting external id and sync state land on the record
// through a staged mutation like any other field change.
func (v *recruitingView) publishSelectedJob() tea.Cmd {
	jobs := v.jobs.All()
	if len(jobs) == 0 {
		return nil
	}
	if v.jobSelection >= len(jobs) {
		v.jobSelection = len(jobs) - 1
	}
	job := jobs[v.jobSelection]
	publisher := v.app.backend.JobBoard
	if publisher == nil {
		return nil
	}
	if v.jobs.InFlight(job.ID, "publish") {
		v.app.setStatus(fmt.Sprintf("Publish for %s still pending", job.ID))
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		externalID, err := publisher.Publish(ctx, job)
		return publishMsg{jobID: job.ID, externalID: externalID, err: err}
	}
}

// handlePublish folds a publish outcome into the posting record.
func (a *App) handlePublish(msg publishMsg) tea.Cmd {
	v := a.recruiting
	if msg.err != nil {
		errState := entity.SyncError
		a.setStatus(fmt.Sprintf("Publishing %s failed: %v", msg.jobID, msg.err))
		return v.stageJobPatch(msg.jobID, entity.JobPatch{BoardSync: &errState})
	}
	synced := entity.SyncSynced
	return v.stageJobPatch(msg.jobID, entity.JobPatch{
		BoardSync:  &synced,
		ExternalID: &msg.externalID,
	})
}

func (v *recruitingView) stageJobPatch(id string, patch entity.JobPatch) tea.Cmd {
	commit, err := v.jobs.Stage(id, patch, "publish")
	if err != nil {
		v.app.setStatus(err.Error())
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		return mutationDoneMsg[entity.Job]{result: commit(ctx)}
	}
}

func (v *recruitingView) View(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Job Postings"))
	b.WriteString("\n")
	jobs := v.jobs.All()
	if len(jobs) == 0 {
		if v.jobsLoaded {
			b.WriteString(dimStyle.Render("no postings"))
		} else {
			b.WriteString(dimStyle.Render("loading postings..."))
		}
		b.WriteString("\n")
	}
	for i, job := range jobs {
		row := renderJobRow(job)
		if i == v.jobSelection {
			row = selectedStyle.Render("> " + row)
		} else {
			row = rowStyle.Render("  " + row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("J next posting · p publish"))
	b.WriteString("\n\n")
	b.WriteString(v.applications.View(width, height))
	return b.String()
}

func renderJobRow(j entity.Job) string {
	sync := string(j.BoardSync)
	switch j.BoardSync {
	case entity.SyncSynced:
		sync = okStyle.Render(sync)
	case entity.SyncError:
		sync = errorStyle.Render(sync)
	default:
		sync = dimStyle.Render(sync)
	}
	row := fmt.Sprintf("[%-6s] %-28s %-14s %s", j.Status, truncate(j.Title, 28), truncate(j.Location, 14), sync)
	if j.ExternalID != "" {
		row += dimStyle.Render("  " + j.ExternalID)
	}
	return row
}

func applicationHeader(stages []string) func([]entity.Application) string {
	return func(items []entity.Application) string {
		buckets := derive.GroupByStage(items, stages)
		parts := make([]string, len(buckets))
		for i, bucket := range buckets {
			parts[i] = columnStyle.Render(fmt.Sprintf("%s:%d", bucket.Stage, len(bucket.Items)))
		}
		return strings.Join(parts, "  ")
	}
}

func renderApplicationRow(a entity.Application, width int) string {
	row := fmt.Sprintf("[%-9s] %-24s %-24s %s", a.Status, truncate(a.Candidate, 24), truncate(a.JobTitle, 24), orUnassigned(a.AssignedTo))
	return truncate(row, width)
}

func applicationDetailLines(a entity.Application) []string {
	return []string{
		a.Candidate,
		fmt.Sprintf("Applying for: %s", a.JobTitle),
		fmt.Sprintf("Stage: %s", a.Status),
		fmt.Sprintf("Email: %s", a.Email),
		fmt.Sprintf("Assigned: %s", orUnassigned(a.AssignedTo)),
		fmt.Sprintf("Applied: %s", a.CreatedAt.Format("Jan 2 2006")),
	}
}
