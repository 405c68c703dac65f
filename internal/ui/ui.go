package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/clipx/internal/formatter"
	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/shared"
	"github.com/desertthunder/clipx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FeedView ViewState = iota
	DetailView
)

// FeedAPI is the part of the API client the TUI calls.
type FeedAPI interface {
	tasks.ClipAPI
	LikeClip(ctx context.Context, id string) (*models.LikeResult, error)
}

// Session is the part of the session store the TUI reads.
type Session interface {
	IsAuthenticated() bool
	User() *models.User
	HandleAuthFailure(err error) bool
}

// Options configures a [Model].
type Options struct {
	API      FeedAPI
	Session  Session
	PageSize int
	Logger   *log.Logger
	Open     func(url string) error // Browser opener (default: [shared.OpenBrowser])
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	api      FeedAPI
	session  Session
	feed     *tasks.Feed
	feedList list.Model
	detail   *tasks.ClipThread
	loading  bool
	status   string
	width    int
	height   int
	help     help.Model
	keys     keyMap
	logger   *log.Logger
	open     func(string) error
	now      func() time.Time
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	feedList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	feedList.Title = "Clips"
	feedList.SetFilteringEnabled(false)
	feedList.SetShowHelp(false)

	return &Model{
		ctx:      ctx,
		view:     FeedView,
		api:      opts.API,
		session:  opts.Session,
		feed:     tasks.NewFeed(opts.API, opts.PageSize),
		feedList: feedList,
		help:     help.New(),
		keys:     newKeyMap(),
		logger:   opts.Logger,
		open:     opts.Open,
		now:      time.Now,
	}
}

// Init loads the first page of the feed.
func (m *Model) Init() tea.Cmd {
	return m.loadNextPage()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.feedList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case FeedView:
			return m.handleFeedKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.feedList, cmd = m.feedList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageLoaded:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("failed to load feed page", "error", msg.err)
			m.status = styles.err.Render(fmt.Sprintf("Failed to load clips: %v", msg.err))
			return m, nil
		}
		m.status = ""
		m.refreshItems()
		return m, nil

	case MsgClipLoaded:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("failed to load clip", "error", msg.err)
			m.status = styles.err.Render(fmt.Sprintf("Failed to load clip: %v", msg.err))
			return m, nil
		}
		m.detail = msg.data.(*tasks.ClipThread)
		m.status = ""
		m.view = DetailView
		return m, nil

	case MsgLikeToggled:
		data := msg.data.(likeToggled)
		if msg.err != nil {
			if m.session.HandleAuthFailure(msg.err) {
				m.status = styles.err.Render("Session expired, log in again to like clips")
				return m, nil
			}
			m.logger.Error("failed to toggle like", "clip", data.clipID, "error", msg.err)
			m.status = styles.err.Render(fmt.Sprintf("Failed to like clip: %v", msg.err))
			return m, nil
		}
		m.applyLike(data.clipID, *data.result)
		if data.result.IsLiked {
			m.status = styles.ok.Render("♥ Liked")
		} else {
			m.status = styles.help.Render("Like removed")
		}
		return m, nil

	case MsgBrowserOpened:
		if msg.err != nil {
			m.status = styles.warn.Render(fmt.Sprintf("Could not open browser, visit %s", msg.data))
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if clip, ok := m.selected(); ok && !m.loading {
			m.loading = true
			return m, m.loadClip(clip.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.like):
		if clip, ok := m.selected(); ok {
			return m, m.toggleLike(clip.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.open):
		if clip, ok := m.selected(); ok {
			return m, m.openBrowser(clip.WatchURL())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.feedList, cmd = m.feedList.Update(msg)
	return m, tea.Batch(cmd, m.maybeLoadMore())
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = FeedView
		m.detail = nil
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.like):
		return m, m.toggleLike(m.detail.Clip.ID)
	case key.Matches(msg, m.keys.open):
		return m, m.openBrowser(m.detail.Clip.WatchURL())
	}
	return m, nil
}

// maybeLoadMore loads the next page once the cursor sits on the last loaded clip.
func (m *Model) maybeLoadMore() tea.Cmd {
	n := len(m.feedList.Items())
	if n == 0 || m.feedList.Index() < n-1 || !m.feed.HasMore() {
		return nil
	}
	return m.loadNextPage()
}

func (m *Model) selected() (models.Clip, bool) {
	item, ok := m.feedList.SelectedItem().(clipItem)
	if !ok {
		return models.Clip{}, false
	}
	return item.clip, true
}

func (m *Model) refreshItems() {
	m.feedList.SetItems(clipItems(m.feed.Clips(), m.now()))
}

func (m *Model) applyLike(clipID string, res models.LikeResult) {
	m.feed.ApplyLike(clipID, res)
	m.refreshItems()
	if m.detail != nil && m.detail.Clip.ID == clipID {
		m.detail.Clip.LikesCount = res.LikesCount
		m.detail.Clip.IsLiked = res.IsLiked
	}
}

func (m *Model) loadNextPage() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	m.status = styles.help.Render("Loading clips...")
	return func() tea.Msg {
		added, err := m.feed.Next(m.ctx)
		return pageLoadedMsg(added, err)
	}
}

func (m *Model) loadClip(id string) tea.Cmd {
	return func() tea.Msg {
		thread, err := tasks.LoadClip(m.ctx, m.api, id)
		return clipLoadedMsg(thread, err)
	}
}

func (m *Model) toggleLike(id string) tea.Cmd {
	if !m.session.IsAuthenticated() {
		m.status = styles.err.Render(fmt.Sprintf("Error: %v, run `clipx auth login` to like clips", shared.ErrNotAuthenticated))
		return nil
	}
	return func() tea.Msg {
		res, err := m.api.LikeClip(m.ctx, id)
		return likeToggledMsg(id, res, err)
	}
}

func (m *Model) openBrowser(url string) tea.Cmd {
	return func() tea.Msg {
		return browserOpenedMsg(url, m.open(url))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case FeedView:
		return m.renderFeed()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) renderFeed() string {
	var footer string
	switch {
	case m.loading:
		footer = styles.help.Render("Loading...")
	case len(m.feedList.Items()) == 0 && !m.feed.HasMore():
		footer = styles.help.Render("No clips yet.")
	case !m.feed.HasMore():
		footer = styles.help.Render("You've reached the end.")
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.like, m.keys.open, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", m.feedList.View(), footer, m.status, m.account(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	if m.detail == nil || m.detail.Clip == nil {
		return styles.err.Render("No clip selected\n\nPress esc to go back")
	}

	title := styles.title.Render(m.detail.Clip.Title)
	body := styles.body.Render(string(formatter.ClipDetail(*m.detail.Clip, m.detail.Comments, m.now())))

	helpKeys := []key.Binding{m.keys.like, m.keys.open, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, body, m.status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) account() string {
	if u := m.session.User(); u != nil {
		return styles.help.Render("Signed in as @" + u.Username)
	}
	return styles.help.Render("Not signed in")
}
