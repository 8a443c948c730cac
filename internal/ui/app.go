// Package ui provides the Bubble Tea dashboard for the cohort client.
package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cohortlab/cohort/internal/api"
	"github.com/cohortlab/cohort/internal/config"
	"github.com/cohortlab/cohort/internal/feed"
	"github.com/cohortlab/cohort/internal/profile"
)

// View represents the current active view.
type View int

const (
	ViewFeed View = iota
	ViewCohort
	ViewProfile
	ViewSearch
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    *api.Client
	Store     *feed.Store
	Config    *config.Config
	ThemeName string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx    context.Context
	client *api.Client
	store  *feed.Store
	config *config.Config

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	snapshot    feed.Snapshot
	lastUpdated time.Time

	// Feed state
	selectedPost int
	feedViewport viewport.Model
	composer     textinput.Model
	composing    bool
	editingPost  int // post id being edited, 0 when composing fresh
	commentInput textinput.Model
	commenting   bool

	// Profile state
	profileForm profileForm

	// Search state
	searchInput   textinput.Model
	searchResults []api.User

	// Transient status line (errors, confirmations)
	status string

	// Help overlay
	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}

	composer := textinput.New()
	composer.Placeholder = "What's on your mind?"
	composer.CharLimit = 500

	commentInput := textinput.New()
	commentInput.Placeholder = "Write a comment"
	commentInput.CharLimit = 500

	searchInput := textinput.New()
	searchInput.Placeholder = "Search people by name"

	return Model{
		ctx:          ctx,
		client:       opts.Client,
		store:        opts.Store,
		config:       opts.Config,
		theme:        GetTheme(themeName),
		currentView:  ViewFeed,
		composer:     composer,
		commentInput: commentInput,
		searchInput:  searchInput,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen}
	if m.store != nil {
		cmds = append(cmds, loadCmd(m.ctx, m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.feedViewport = viewport.New(msg.Width, contentHeight(msg.Height))
		} else {
			m.feedViewport.Width = msg.Width
			m.feedViewport.Height = contentHeight(msg.Height)
		}
		m.ready = true
		m.updateFeedViewport()
		return m, nil

	case snapshotMsg:
		m.snapshot = feed.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampSelection()
		m.updateFeedViewport()
		return m, nil

	case mutationDoneMsg:
		m.snapshot = feed.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.status = ""
		m.clampSelection()
		m.updateFeedViewport()
		return m, nil

	case profileSavedMsg:
		m.status = "Profile saved"
		m.profileForm.setOwner(api.User(msg))
		return m, nil

	case searchResultsMsg:
		m.searchResults = msg
		return m, nil

	case errMsg:
		m.status = msg.err.Error()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// While a text input is active it owns the keyboard apart from
	// esc/enter, so "q" and friends stay typeable.
	if m.composing || m.commenting {
		return m.handleComposerKey(msg)
	}
	if m.currentView == ViewProfile && m.profileForm.editing {
		return m.handleProfileKey(msg)
	}
	if m.currentView == ViewSearch && m.searchInput.Focused() {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, nil

	case "r":
		return m, loadCmd(m.ctx, m.store)

	case "f", "esc":
		m.currentView = ViewFeed
		return m, nil

	case "o":
		m.currentView = ViewCohort
		return m, nil

	case "p":
		m.profileForm = newProfileForm(m.store.User(), m.store.User())
		m.currentView = ViewProfile
		return m, nil

	case "s":
		m.searchInput.SetValue("")
		m.searchResults = nil
		m.searchInput.Focus()
		m.currentView = ViewSearch
		return m, nil
	}

	switch m.currentView {
	case ViewFeed:
		return m.handleFeedKey(msg)
	case ViewProfile:
		return m.handleProfileKey(msg)
	case ViewSearch:
		return m.handleSearchKey(msg)
	}

	return m, nil
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeed:
		return m.renderFeed()
	case ViewCohort:
		return m.renderCohort()
	case ViewProfile:
		return m.renderProfile()
	case ViewSearch:
		return m.renderSearch()
	default:
		return ""
	}
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	user := m.store.User()

	left := styles.Logo.Render("cohort")
	who := styles.MutedText.Render("  " + user.FullName())
	badge := styles.RoleBadge(roleLabel(user)).Render(roleLabel(user))
	return styles.Header.Width(m.width).Render(left + who + "  " + badge)
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.status != "" {
		return styles.Footer.Width(m.width).Render(styles.DangerText.Render(m.status))
	}
	hints := "f feed · o cohort · p profile · s search · n new post · r reload · ? help · q quit"
	return styles.Footer.Width(m.width).Render(hints)
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	lines := []string{
		styles.AccentText.Render("Keys"),
		"",
		"  f        feed",
		"  o        cohort",
		"  p        my profile",
		"  s        search people",
		"  n        new post",
		"  e        edit selected post (own posts)",
		"  d        delete selected post (own posts)",
		"  c        comment on selected post",
		"  j/k      move selection",
		"  r        reload from server",
		"  T        cycle theme",
		"  q        quit",
		"",
		styles.MutedText.Render("press any key to close"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) clampSelection() {
	if n := len(m.snapshot.Posts); m.selectedPost >= n {
		m.selectedPost = n - 1
	}
	if m.selectedPost < 0 {
		m.selectedPost = 0
	}
}

func contentHeight(total int) int {
	// Header, footer and their separators.
	h := total - 4
	if h < 1 {
		h = 1
	}
	return h
}

func roleLabel(u api.User) string {
	if u.IsTeacher() {
		return "teacher"
	}
	return "student"
}

// Messages

type snapshotMsg feed.Snapshot

type mutationDoneMsg feed.Snapshot

type profileSavedMsg api.User

type searchResultsMsg []api.User

type errMsg struct{ err error }

// Commands

func loadCmd(ctx context.Context, store *feed.Store) tea.Cmd {
	return func() tea.Msg {
		store.Load(ctx)
		return snapshotMsg(store.Snapshot())
	}
}

func saveProfileCmd(ctx context.Context, client *api.Client, ownerID int, req api.UpdateUserRequest) tea.Cmd {
	return func() tea.Msg {
		updated, err := profile.Save(ctx, client, ownerID, req)
		if err != nil {
			return errMsg{err}
		}
		return profileSavedMsg(*updated)
	}
}

func searchCmd(ctx context.Context, client *api.Client, name string) tea.Cmd {
	return func() tea.Msg {
		users, err := client.SearchUsers(ctx, name)
		if err != nil {
			return errMsg{err}
		}
		return searchResultsMsg(users)
	}
}

// mutationCmd runs a feed mutation and reports the resulting snapshot.
func mutationCmd(store *feed.Store, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return mutationDoneMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
