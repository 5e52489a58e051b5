// internal/tui/app.go
//
// This is the main TUI for the opsdeck dashboard. It uses bubbletea,
// which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// All board caches are mutated inside Update, on one goroutine; network
// work runs as commands and comes back as messages.

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/opsdeck/internal/api"
	"github.com/kingrea/opsdeck/internal/board"
	"github.com/kingrea/opsdeck/internal/config"
	"github.com/kingrea/opsdeck/internal/entity"
	"github.com/kingrea/opsdeck/internal/jobboard"
	"github.com/kingrea/opsdeck/internal/journal"
	"github.com/kingrea/opsdeck/internal/logging"
	"github.com/kingrea/opsdeck/plugins"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu appState = iota // Main menu with one entry per board
	stateBoard                    // One of the four dashboard boards
)

// Backend bundles the persistence surfaces the boards talk to. The
// default backend is the HTTP API client; tests inject fakes.
type Backend struct {
	Leads        board.Persister[entity.Lead]
	Tickets      board.Persister[entity.Ticket]
	Partners     board.Persister[entity.Partner]
	Applications board.Persister[entity.Application]
	Jobs         board.Persister[entity.Job]

	ListLeads        func(ctx context.Context) ([]entity.Lead, error)
	ListTickets      func(ctx context.Context) ([]entity.Ticket, error)
	ListPartners     func(ctx context.Context) ([]entity.Partner, error)
	ListApplications func(ctx context.Context) ([]entity.Application, error)
	ListJobs         func(ctx context.Context) ([]entity.Job, error)

	Invite   func(ctx context.Context, partnerID string) (api.Invite, error)
	JobBoard jobboard.Publisher
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithBackend overrides the persistence backend used by all boards.
func WithBackend(backend Backend) AppOption {
	return func(a *App) {
		a.backend = backend
	}
}

// WithPolicy overrides the transition policy (normally loaded from
// .opsdeck/policies).
func WithPolicy(p board.Policy) AppOption {
	return func(a *App) {
		if p != nil {
			a.policy = p
		}
	}
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	id    string
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

type refreshTickMsg struct{}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	logger  *logging.Logger
	journal *journal.Journal
	policy  board.Policy
	backend Backend

	leads      *boardView[entity.Lead]
	tickets    *boardView[entity.Ticket]
	partners   *boardView[entity.Partner]
	recruiting *recruitingView

	mainMenu    list.Model
	activeBoard string
	statusMsg   string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(projectDir)
	if err != nil {
		return nil, err
	}
	jrnl, err := journal.New(cfg.JournalPath())
	if err == nil {
		jrnl.Append(journal.LevelInfo, "session opened")
	}

	policy, policyFiles, err := plugins.LoadTransitionPolicy(cfg)
	if err != nil {
		return nil, fmt.Errorf("tui: load transition policies: %w", err)
	}

	app := &App{
		state:   stateMainMenu,
		config:  cfg,
		logger:  logger,
		journal: jrnl,
		policy:  policy,
	}
	app.backend = defaultBackend(cfg, logger)
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	app.leads = newLeadsView(app)
	app.tickets = newTicketsView(app)
	app.partners = newPartnersView(app)
	app.recruiting = newRecruitingView(app)

	app.mainMenu = buildMainMenu(cfg.DefaultBoard())
	if len(policyFiles) > 0 {
		app.statusMsg = fmt.Sprintf("Loaded %d transition policy file(s)", len(policyFiles))
	}
	return app, nil
}

func defaultBackend(cfg *config.Config, logger *logging.Logger) Backend {
	client := api.New(cfg.APIBaseURL(), cfg.APIToken(),
		api.WithLogger(logger),
		api.WithTimeout(cfg.APITimeout()),
	)
	leads := api.NewResource[entity.Lead](client, "leads")
	tickets := api.NewResource[entity.Ticket](client, "tickets")
	partners := api.NewResource[entity.Partner](client, "partners")
	applications := api.NewResource[entity.Application](client, "applications")
	jobs := api.NewResource[entity.Job](client, "jobs")
	return Backend{
		Leads:            leads,
		Tickets:          tickets,
		Partners:         partners,
		Applications:     applications,
		Jobs:             jobs,
		ListLeads:        leads.List,
		ListTickets:      tickets.List,
		ListPartners:     partners.List,
		ListApplications: applications.List,
		ListJobs:         jobs.List,
		Invite: func(ctx context.Context, partnerID string) (api.Invite, error) {
			return client.Invite(ctx, "partners", partnerID)
		},
		JobBoard: jobboard.NewStub(),
	}
}

// buildMainMenu creates one entry per dashboard board, with the
// configured default board pre-selected.
func buildMainMenu(defaultID string) list.Model {
	items := []list.Item{
		menuItem{id: "leads", title: "Leads", desc: "Sales pipeline from intake to won/lost"},
		menuItem{id: "tickets", title: "Facility Tickets", desc: "Maintenance queue ordered by urgency and SLA"},
		menuItem{id: "partners", title: "Partners", desc: "Subcontractor prequalification and document expiry"},
		menuItem{id: "recruiting", title: "Recruiting", desc: "Job postings and the hiring funnel"},
		menuItem{id: "exit", title: "Exit", desc: "Quit opsdeck"},
	}
	menu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	menu.Title = "⬡ OPSDECK"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	for i, item := range items {
		if mi, ok := item.(menuItem); ok && mi.id == defaultID {
			menu.Select(i)
			break
		}
	}
	return menu
}

func (a *App) setStatus(msg string) {
	a.statusMsg = msg
}

// returnToMenuCmd switches back to the main menu. Pending commits keep
// running; their results still land in the right board's cache.
func (a *App) returnToMenuCmd() tea.Cmd {
	a.state = stateMainMenu
	a.activeBoard = ""
	return nil
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.leads.Init(),
		a.tickets.Init(),
		a.partners.Init(),
		a.recruiting.Init(),
	}
	if interval := a.config.RefreshInterval(); interval > 0 {
		cmds = append(cmds, a.scheduleRefresh(interval))
	}
	return tea.Batch(cmds...)
}

func (a *App) scheduleRefresh(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		return a, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{
			a.leads.fetchList(),
			a.tickets.fetchList(),
			a.partners.fetchList(),
			a.recruiting.fetchLists(),
		}
		if interval := a.config.RefreshInterval(); interval > 0 {
			cmds = append(cmds, a.scheduleRefresh(interval))
		}
		return a, tea.Batch(cmds...)

	case inviteMsg:
		return a, a.handleInvite(msg)

	case publishMsg:
		return a, a.handlePublish(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateMainMenu {
				return a, tea.Quit
			}
		case "x":
			a.statusMsg = ""
			return a, nil
		}
		if a.state == stateMainMenu {
			return a.updateMainMenu(msg)
		}
		return a, a.routeToActive(msg)
	}

	// Results and loads are routed to every view; each one picks out its
	// own message types, so a commit resolves even after the operator
	// switched boards.
	cmds := []tea.Cmd{
		a.leads.Update(msg),
		a.tickets.Update(msg),
		a.partners.Update(msg),
		a.recruiting.Update(msg),
	}
	return a, tea.Batch(cmds...)
}

func (a *App) updateMainMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		item, ok := a.mainMenu.SelectedItem().(menuItem)
		if !ok {
			return a, nil
		}
		if item.id == "exit" {
			return a, tea.Quit
		}
		a.state = stateBoard
		a.activeBoard = item.id
		return a, nil
	case "s":
		// Remember the highlighted board as the startup default.
		item, ok := a.mainMenu.SelectedItem().(menuItem)
		if !ok || item.id == "exit" {
			return a, nil
		}
		if err := a.config.SetDefaultBoard(item.id); err != nil {
			a.setStatus(fmt.Sprintf("Saving default board failed: %v", err))
			return a, nil
		}
		a.setStatus(fmt.Sprintf("%s is now the default board", item.title))
		return a, nil
	}
	var cmd tea.Cmd
	a.mainMenu, cmd = a.mainMenu.Update(msg)
	return a, cmd
}

func (a *App) routeToActive(msg tea.Msg) tea.Cmd {
	switch a.activeBoard {
	case "leads":
		return a.leads.Update(msg)
	case "tickets":
		return a.tickets.Update(msg)
	case "partners":
		return a.partners.Update(msg)
	case "recruiting":
		return a.recruiting.Update(msg)
	}
	return nil
}

// View renders the whole screen.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateBoard:
		width := max(40, a.width-4)
		height := max(10, a.height-8)
		switch a.activeBoard {
		case "leads":
			content = a.leads.View(width, height)
		case "tickets":
			content = a.tickets.View(width, height)
		case "partners":
			content = a.partners.View(width, height)
		case "recruiting":
			content = a.recruiting.View(width, height)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, a.renderFooter())
}

func (a *App) renderFooter() string {
	var parts []string
	if a.statusMsg != "" {
		parts = append(parts, errorStyle.Render(a.statusMsg+"  (x to dismiss)"))
	}
	if tail := a.journal.Tail(2); len(tail) > 0 {
		parts = append(parts, dimStyle.Render(strings.Join(tail, "\n")))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n" + strings.Join(parts, "\n")
}

// Close releases the app's file handles; call after the program exits.
func (a *App) Close() {
	if a.journal != nil {
		a.journal.Append(journal.LevelInfo, "session closed")
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
