// Package tui provides a Bubble Tea terminal user interface for
// manga-downloader.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/handiism/manga-downloader/internal/app"
	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/library"
	"github.com/handiism/manga-downloader/internal/model"
	mprogress "github.com/handiism/manga-downloader/internal/progress"
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateLoading
	StateDownloading
	StateComplete
	StateError
)

const maxLogs = 10

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	urlInput textinput.Model
	selInput textinput.Model
	spinner  spinner.Model
	progress progress.Model
	settings *config.Settings
	session  *app.Session
	logs     []LogEntry
	logFeed  <-chan LogEntry
	err      error

	// ctx is cancelled on quit; runCtx ends the snapshot feed of a run.
	ctx       context.Context
	cancel    context.CancelFunc
	runCancel context.CancelFunc

	series   *model.Series
	snapshot mprogress.Snapshot
	received int64
	result   app.Result

	width  int
	height int
}

// NewModel creates a TUI model downloading with settings. Runs are
// recorded in store when it is not nil.
func NewModel(settings *config.Settings, store *library.Store) (Model, error) {
	sink := newLogSink(64)
	log := zerolog.New(sink).Level(zerolog.InfoLevel)
	if lvl, err := zerolog.ParseLevel(settings.LogLevel); err == nil && lvl != zerolog.NoLevel {
		log = log.Level(lvl)
	}

	session, err := app.NewSession(settings, store, log)
	if err != nil {
		return Model{}, err
	}

	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com/manga/series-name"
	urlInput.Focus()
	urlInput.CharLimit = 500
	urlInput.Width = 60

	selInput := textinput.New()
	selInput.Placeholder = "all"
	selInput.CharLimit = 200
	selInput.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    StateInput,
		urlInput: urlInput,
		selInput: selInput,
		spinner:  sp,
		progress: prog,
		settings: settings,
		session:  session,
		logFeed:  sink.entries,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForLog(m.logFeed))
}

// Message types
type (
	// SeriesMsg is sent when the series and its pages were discovered.
	SeriesMsg struct {
		Series *model.Series
		Err    error
	}

	// SnapshotMsg carries a progress update of the running download.
	SnapshotMsg struct {
		Snapshot mprogress.Snapshot
		feed     <-chan mprogress.Snapshot
	}

	// LogMsg carries one log line.
	LogMsg struct {
		Entry LogEntry
	}

	// DownloadDoneMsg is sent when the run, packing included, finished.
	DownloadDoneMsg struct {
		Result app.Result
		Err    error
	}

	// TickMsg is for periodic byte counter updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case LogMsg:
		m.logs = append(m.logs, msg.Entry)
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}
		cmds = append(cmds, waitForLog(m.logFeed))

	case SeriesMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.series = msg.Series
		m.state = StateDownloading

		runCtx, runCancel := context.WithCancel(m.ctx)
		m.runCancel = runCancel
		feed := m.session.Orchestrator().Tracker().Feed(runCtx, 16)
		cmds = append(cmds, m.startDownload(runCtx), waitForSnapshot(feed), tickStats())

	case SnapshotMsg:
		if m.state != StateDownloading {
			break
		}
		m.snapshot = msg.Snapshot
		cmds = append(cmds, m.progress.SetPercent(msg.Snapshot.Percent()/100), waitForSnapshot(msg.feed))

	case TickMsg:
		if m.state == StateDownloading {
			m.received = m.session.Orchestrator().Stats().ReceivedBytes
			cmds = append(cmds, tickStats())
		}

	case DownloadDoneMsg:
		if m.runCancel != nil {
			m.runCancel()
		}
		m.result = msg.Result
		m.received = msg.Result.Stats.ReceivedBytes
		m.snapshot = msg.Result.Stats.Snapshot
		switch {
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		default:
			m.state = StateComplete
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		if m.urlInput.Focused() {
			m.urlInput, cmd = m.urlInput.Update(msg)
		} else {
			m.selInput, cmd = m.selInput.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	orch := m.session.Orchestrator()

	switch msg.String() {
	case "ctrl+c":
		orch.Stop()
		m.cancel()
		return m, tea.Quit, true

	case "esc":
		switch m.state {
		case StateInput:
			m.cancel()
			return m, tea.Quit, true
		case StateLoading:
			m.cancel()
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
			return m, nil, true
		case StateDownloading:
			orch.Stop()
			return m, nil, true
		}

	case "tab":
		if m.state == StateInput {
			if m.urlInput.Focused() {
				m.urlInput.Blur()
				m.selInput.Focus()
			} else {
				m.selInput.Blur()
				m.urlInput.Focus()
			}
			return m, nil, true
		}

	case "ctrl+f":
		if m.state == StateInput {
			m.settings.Format = nextFormat(m.settings.Format)
			return m, nil, true
		}

	case "enter":
		if m.state == StateInput && m.urlInput.Value() != "" {
			sel, err := model.ParseSelection(m.selInput.Value())
			if err != nil {
				m.err = err
				return m, nil, true
			}
			m.err = nil
			m.state = StateLoading
			return m, tea.Batch(m.loadSeries(sel), m.spinner.Tick), true
		}

	case "p":
		if m.state == StateDownloading {
			if m.snapshot.Status == mprogress.StatusPaused {
				orch.Resume()
			} else {
				orch.Pause()
			}
			return m, nil, true
		}

	case "s":
		if m.state == StateDownloading {
			orch.Stop()
			return m, nil, true
		}

	case "q":
		switch m.state {
		case StateDownloading:
			orch.Stop()
			m.cancel()
			return m, tea.Quit, true
		case StateComplete, StateError:
			m.cancel()
			return m, tea.Quit, true
		}

	case "r":
		if m.state == StateComplete || m.state == StateError {
			m.state = StateInput
			m.logs = nil
			m.err = nil
			m.series = nil
			m.snapshot = mprogress.Snapshot{}
			m.received = 0
			m.result = app.Result{}
			m.ctx, m.cancel = context.WithCancel(context.Background())
			m.urlInput.SetValue("")
			m.selInput.SetValue("")
			m.selInput.Blur()
			m.urlInput.Focus()
			return m, m.progress.SetPercent(0), true
		}
	}
	return m, nil, false
}

func nextFormat(current string) string {
	for i, f := range config.Formats {
		if f == current {
			return config.Formats[(i+1)%len(config.Formats)]
		}
	}
	return config.Formats[0]
}

// loadSeries fetches the series page and discovers the selected chapters.
func (m Model) loadSeries(sel model.Selection) tea.Cmd {
	ctx, session, url := m.ctx, m.session, m.urlInput.Value()
	return func() tea.Msg {
		series, err := session.Load(ctx, url, sel)
		return SeriesMsg{Series: series, Err: err}
	}
}

// startDownload runs the download in background.
func (m Model) startDownload(ctx context.Context) tea.Cmd {
	session, series := m.session, m.series
	return func() tea.Msg {
		res, err := session.Download(ctx, series)
		return DownloadDoneMsg{Result: res, Err: err}
	}
}

// waitForSnapshot delivers the next progress snapshot of feed. It yields
// no message once the feed is closed.
func waitForSnapshot(feed <-chan mprogress.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-feed
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: s, feed: feed}
	}
}

func waitForLog(feed <-chan LogEntry) tea.Cmd {
	return func() tea.Msg {
		return LogMsg{Entry: <-feed}
	}
}

func tickStats() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Run starts the TUI application.
func Run(settings *config.Settings, store *library.Store) error {
	m, err := NewModel(settings, store)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
