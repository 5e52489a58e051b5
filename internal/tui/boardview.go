// internal/tui/boardview.go
//
// boardView is the shared dashboard view over one synchronization board.
// Every concrete board (leads, tickets, partners, recruiting) is a
// boardConfig: how to list, arrange, render, and patch its entity kind.
// The view itself only does what all boards share — search, facet cycling,
// selection, the detail panel with its note thread, and turning user
// intents into staged mutations plus commit commands.

package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/opsdeck/internal/board"
	"github.com/kingrea/opsdeck/internal/derive"
	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/store"
)

const commitTimeout = 15 * time.Second

// viewEntity is what the shared view needs from an entity kind: the
// board contract plus the filter's search/facet surface.
type viewEntity[E any] interface {
	board.Entity[E]
	derive.Searchable
}

// Messages carry the entity kind in the type parameter, so the app can
// route them to the right view with a plain type switch.
type listLoadedMsg[E viewEntity[E]] struct {
	items []E
	err   error
}

type mutationDoneMsg[E viewEntity[E]] struct {
	result board.Result[E]
}

type notesLoadedMsg[E viewEntity[E]] struct {
	result board.NotesResult
}

type noteSavedMsg[E viewEntity[E]] struct {
	result board.NoteResult
}

// boardConfig adapts one entity kind to the shared view.
type boardConfig[E viewEntity[E]] struct {
	id          string
	title       string
	stages      []string
	facetKey    string
	facetValues []string
	list        func(ctx context.Context) ([]E, error)
	arrange     func([]E) []E
	header      func(items []E) string // derived summary line, recomputed every render
	renderRow   func(e E, width int) string
	detailLines func(e E) []string
	statusPatch func(status string) store.Patch[E]
	assignee    func(e E) string
	assignPatch func(member string) store.Patch[E]
	// extraKey handles board-specific actions (invites, publishing).
	// It reports whether the key was consumed.
	extraKey func(v *boardView[E], key string) (tea.Cmd, bool)
}

type boardView[E viewEntity[E]] struct {
	app   *App
	board *board.Board[E]
	cfg   boardConfig[E]

	search    textinput.Model
	noteInput textinput.Model
	searching bool
	noting    bool

	facetIdx  int
	selection int
	loading   bool
	loaded    bool
}

func newBoardView[E viewEntity[E]](app *App, b *board.Board[E], cfg boardConfig[E]) *boardView[E] {
	search := textinput.New()
	search.Placeholder = "search"
	search.CharLimit = 80
	noteInput := textinput.New()
	noteInput.Placeholder = "add a note"
	noteInput.CharLimit = 400
	return &boardView[E]{
		app:       app,
		board:     b,
		cfg:       cfg,
		search:    search,
		noteInput: noteInput,
	}
}

// Init triggers the initial list fetch.
func (v *boardView[E]) Init() tea.Cmd {
	return v.fetchList()
}

func (v *boardView[E]) fetchList() tea.Cmd {
	if v.cfg.list == nil {
		return nil
	}
	v.loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		items, err := v.cfg.list(ctx)
		return listLoadedMsg[E]{items: items, err: err}
	}
}

// facets returns the active facet constraints.
func (v *boardView[E]) facets() map[string]string {
	if v.cfg.facetKey == "" || v.facetIdx == 0 {
		return nil
	}
	return map[string]string{v.cfg.facetKey: v.cfg.facetValues[v.facetIdx]}
}

// visible recomputes the rendered list from the cache on every call:
// filter first, then the board's own arrangement.
func (v *boardView[E]) visible() []E {
	items := derive.Filter(v.board.All(), v.search.Value(), v.facets())
	if v.cfg.arrange != nil {
		items = v.cfg.arrange(items)
	}
	return items
}

func (v *boardView[E]) selected() (E, bool) {
	items := v.visible()
	if len(items) == 0 {
		var zero E
		return zero, false
	}
	if v.selection >= len(items) {
		v.selection = len(items) - 1
	}
	if v.selection < 0 {
		v.selection = 0
	}
	return items[v.selection], true
}

// stage applies a mutation optimistically and returns the commit command.
func (v *boardView[E]) stage(id string, patch store.Patch[E], action string) tea.Cmd {
	commit, err := v.board.Stage(id, patch, action)
	if err != nil {
		v.app.setStatus(err.Error())
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		return mutationDoneMsg[E]{result: commit(ctx)}
	}
}

func (v *boardView[E]) fetchNotes(id string) tea.Cmd {
	fetch := v.board.FetchNotes(id)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		return notesLoadedMsg[E]{result: fetch(ctx)}
	}
}

func (v *boardView[E]) saveNote(id, content string) tea.Cmd {
	commit, err := v.board.StageNote(id, content)
	if err != nil {
		v.app.setStatus(err.Error())
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		return noteSavedMsg[E]{result: commit(ctx)}
	}
}

// Update handles this board's messages and, when the board is active,
// its key input. Returns the follow-up command, if any.
func (v *boardView[E]) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case listLoadedMsg[E]:
		v.loading = false
		if m.err != nil {
			v.app.setStatus(fmt.Sprintf("Loading %s failed: %v", v.cfg.id, m.err))
			return nil
		}
		v.loaded = true
		v.board.Load(m.items)
		return nil
	case mutationDoneMsg[E]:
		v.board.Resolve(m.result)
		if banner := v.board.LastError(); banner != "" {
			v.app.setStatus(banner)
			v.board.ClearError()
		}
		return nil
	case notesLoadedMsg[E]:
		v.board.ResolveNotes(m.result)
		if banner := v.board.LastError(); banner != "" {
			v.app.setStatus(banner)
			v.board.ClearError()
		}
		return nil
	case noteSavedMsg[E]:
		v.board.ResolveNote(m.result)
		if banner := v.board.LastError(); banner != "" {
			v.app.setStatus(banner)
			v.board.ClearError()
		} else {
			v.noteInput.SetValue("")
		}
		return nil
	case tea.KeyMsg:
		return v.handleKey(m)
	}
	return nil
}

func (v *boardView[E]) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if v.searching {
		switch key {
		case "enter", "esc":
			v.searching = false
			v.search.Blur()
			return nil
		default:
			var cmd tea.Cmd
			v.search, cmd = v.search.Update(msg)
			v.selection = 0
			return cmd
		}
	}
	if v.noting {
		switch key {
		case "esc":
			v.noting = false
			v.noteInput.Blur()
			// Keep the buffer: drafts survive until the save succeeds.
			if id := v.board.OpenID(); id != "" {
				v.board.SetDraft(id, v.noteInput.Value())
			}
			return nil
		case "enter":
			id := v.board.OpenID()
			if id == "" {
				return nil
			}
			v.noting = false
			v.noteInput.Blur()
			v.board.SetDraft(id, v.noteInput.Value())
			return v.saveNote(id, v.noteInput.Value())
		default:
			var cmd tea.Cmd
			v.noteInput, cmd = v.noteInput.Update(msg)
			return cmd
		}
	}

	if v.cfg.extraKey != nil {
		if cmd, handled := v.cfg.extraKey(v, key); handled {
			return cmd
		}
	}

	switch key {
	case "up", "k":
		if v.selection > 0 {
			v.selection--
		}
	case "down", "j":
		if v.selection < len(v.visible())-1 {
			v.selection++
		}
	case "/":
		v.searching = true
		return v.search.Focus()
	case "f":
		if len(v.cfg.facetValues) > 0 {
			v.facetIdx = (v.facetIdx + 1) % len(v.cfg.facetValues)
			v.selection = 0
		}
	case "r":
		return v.fetchList()
	case "enter":
		return v.openSelected()
	case "esc":
		if v.board.OpenID() != "" {
			v.board.CloseDetail()
			return nil
		}
		return v.app.returnToMenuCmd()
	case "n":
		if id := v.board.OpenID(); id != "" {
			v.noting = true
			v.noteInput.SetValue(v.board.Draft(id))
			return v.noteInput.Focus()
		}
	case "a":
		return v.cycleAssignee()
	default:
		if idx, err := strconv.Atoi(key); err == nil {
			return v.setStatusByIndex(idx)
		}
	}
	return nil
}

func (v *boardView[E]) openSelected() tea.Cmd {
	item, ok := v.selected()
	if !ok {
		return nil
	}
	id := item.EntityID()
	if !v.board.OpenDetail(id) {
		return nil
	}
	v.noteInput.SetValue(v.board.Draft(id))
	if !v.board.ThreadLoaded(id) {
		return v.fetchNotes(id)
	}
	return nil
}

// setStatusByIndex moves the focused record to the Nth stage (1-based,
// as rendered in the footer legend).
func (v *boardView[E]) setStatusByIndex(idx int) tea.Cmd {
	if v.cfg.statusPatch == nil || idx < 1 || idx > len(v.cfg.stages) {
		return nil
	}
	item, ok := v.focusedItem()
	if !ok {
		return nil
	}
	target := v.cfg.stages[idx-1]
	id := item.EntityID()
	if v.board.InFlight(id, "status") {
		v.app.setStatus(fmt.Sprintf("Status change for %s still saving", id))
		return nil
	}
	return v.stage(id, v.cfg.statusPatch(target), "status")
}

// cycleAssignee walks the focused record through the configured team
// roster, ending on unassigned.
func (v *boardView[E]) cycleAssignee() tea.Cmd {
	if v.cfg.assignPatch == nil || v.cfg.assignee == nil {
		return nil
	}
	item, ok := v.focusedItem()
	if !ok {
		return nil
	}
	team := v.app.config.Team()
	if len(team) == 0 {
		v.app.setStatus("No team members configured; edit .opsdeck/config.yaml")
		return nil
	}
	id := item.EntityID()
	if v.board.InFlight(id, "assign") {
		v.app.setStatus(fmt.Sprintf("Assignment for %s still saving", id))
		return nil
	}
	current := v.cfg.assignee(item)
	next := ""
	for i, member := range team {
		if member.ID == current {
			if i+1 < len(team) {
				next = team[i+1].ID
			}
			break
		}
		if current == "" && i == 0 {
			next = member.ID
			break
		}
	}
	if current == "" && next == "" && len(team) > 0 {
		next = team[0].ID
	}
	return v.stage(id, v.cfg.assignPatch(next), "assign")
}

// focusedItem prefers the open detail record over the list selection, so
// keyboard actions hit the record the operator is actually looking at.
func (v *boardView[E]) focusedItem() (E, bool) {
	if detail, ok := v.board.Detail(); ok {
		return detail, true
	}
	return v.selected()
}

// View renders the list plus, when a record is open, the detail panel.
func (v *boardView[E]) View(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(v.cfg.title))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(v.filterSummary()))
	b.WriteString("\n\n")

	if v.loading && !v.loaded {
		b.WriteString(dimStyle.Render("Loading..."))
		return b.String()
	}

	items := v.visible()
	if v.cfg.header != nil {
		b.WriteString(v.cfg.header(items))
		b.WriteString("\n\n")
	}
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("Nothing matches."))
	}
	listWidth := width
	if v.board.OpenID() != "" {
		listWidth = width * 2 / 3
	}
	for i, item := range items {
		row := v.cfg.renderRow(item, listWidth)
		if i == v.selection {
			row = selectedStyle.Render("> " + row)
		} else {
			row = rowStyle.Render("  " + row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	content := b.String()
	if detail, ok := v.board.Detail(); ok {
		panel := v.renderDetail(detail, width-listWidth-2)
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}
	content += "\n" + dimStyle.Render(v.legend())
	return content
}

func (v *boardView[E]) filterSummary() string {
	parts := []string{}
	if q := strings.TrimSpace(v.search.Value()); q != "" {
		parts = append(parts, fmt.Sprintf("search: %q", q))
	}
	if facets := v.facets(); facets != nil {
		parts = append(parts, fmt.Sprintf("%s: %s", v.cfg.facetKey, facets[v.cfg.facetKey]))
	}
	if v.searching {
		parts = append(parts, "typing: "+v.search.View())
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d records", v.board.Len())
	}
	return strings.Join(parts, " · ")
}

func (v *boardView[E]) renderDetail(detail E, width int) string {
	if width < 20 {
		width = 20
	}
	lines := v.cfg.detailLines(detail)
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(detailStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(columnStyle.Render("Notes"))
	b.WriteString("\n")
	id := detail.EntityID()
	if !v.board.ThreadLoaded(id) {
		b.WriteString(dimStyle.Render("loading notes..."))
		b.WriteString("\n")
	} else {
		thread := v.board.Thread(id)
		if len(thread) == 0 {
			b.WriteString(dimStyle.Render("no notes yet"))
			b.WriteString("\n")
		}
		for _, note := range thread {
			b.WriteString(renderNote(note))
			b.WriteString("\n")
		}
	}
	if v.noting {
		b.WriteString("\n")
		b.WriteString(v.noteInput.View())
	}
	return panelStyle.Width(width).Render(b.String())
}

func renderNote(note entity.Note) string {
	stamp := note.CreatedAt.Format("Jan 2 15:04")
	header := dimStyle.Render(fmt.Sprintf("%s · %s", note.Author, stamp))
	return header + "\n" + rowStyle.Render(note.Content)
}

func (v *boardView[E]) legend() string {
	parts := []string{"/ search", "f facet", "enter detail", "esc back", "r refresh"}
	if v.cfg.statusPatch != nil {
		stages := make([]string, len(v.cfg.stages))
		for i, stage := range v.cfg.stages {
			stages[i] = fmt.Sprintf("%d:%s", i+1, stage)
		}
		parts = append(parts, strings.Join(stages, " "))
	}
	if v.cfg.assignPatch != nil {
		parts = append(parts, "a assign")
	}
	if v.board.OpenID() != "" {
		parts = append(parts, "n note")
	}
	return strings.Join(parts, " · ")
}
