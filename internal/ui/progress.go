package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/showlist/internal/tasks"
)

// maxLogLines is how many finished batch items stay visible under the bar.
const maxLogLines = 8

type progressUpdateMsg tasks.ProgressUpdate

type progressDoneMsg struct{}

// keyMap defines the key bindings for the progress view.
type keyMap struct {
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "cancel"),
		),
	}
}

// ProgressModel follows a running conversion until its progress channel is closed.
//
// Quitting early calls cancel so the conversion stops instead of running on without a display.
type ProgressModel struct {
	title    string
	updates  <-chan tasks.ProgressUpdate
	cancel   context.CancelFunc
	spinner  spinner.Model
	bar      progress.Model
	help     help.Model
	keys     keyMap
	current  tasks.ProgressUpdate
	started  bool
	logs     []string
	done     bool
	canceled bool
}

// NewProgressModel creates a progress view titled title that reads updates until the channel closes.
func NewProgressModel(title string, updates <-chan tasks.ProgressUpdate, cancel context.CancelFunc) *ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = NewStyle("#1DB954")

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 50

	return &ProgressModel{
		title:   title,
		updates: updates,
		cancel:  cancel,
		spinner: sp,
		bar:     bar,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner and waits for the first update.
func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && !m.done {
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		update := tasks.ProgressUpdate(msg)
		m.current = update
		m.started = true
		if update.Phase == tasks.BatchConvert && update.Step > 0 {
			m.logs = append(m.logs, update.Message)
			if len(m.logs) > maxLogLines {
				m.logs = m.logs[len(m.logs)-maxLogLines:]
			}
		}

		cmds := []tea.Cmd{m.waitForProgress()}
		if update.Total > 0 {
			cmds = append(cmds, m.bar.SetPercent(m.Percent()))
		}
		return m, tea.Batch(cmds...)

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd

	case progressDoneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *ProgressModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return progressDoneMsg{}
		}
		return progressUpdateMsg(update)
	}
}

// Percent is the completed share of the current phase, or 0 when its size is unknown.
func (m *ProgressModel) Percent() float64 {
	if m.current.Total <= 0 {
		return 0
	}
	return min(float64(m.current.Step)/float64(m.current.Total), 1)
}

// Done reports whether the progress channel was closed.
func (m *ProgressModel) Done() bool { return m.done }

// Canceled reports whether the user quit before the conversion finished.
func (m *ProgressModel) Canceled() bool { return m.canceled }

// View renders the current phase, a bar when the phase has a known size, and recent batch results.
func (m *ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(Styles.Title(m.title))
	b.WriteString("\n\n")

	switch {
	case m.done:
		b.WriteString(Styles.OK("Finished"))
		b.WriteString("\n")
		return b.String()
	case m.canceled:
		b.WriteString(Styles.Err("Canceled"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.started {
		b.WriteString(phaseLabel(m.current))
	} else {
		b.WriteString("Starting...")
	}
	b.WriteString("\n")

	if m.started && m.current.Total > 0 {
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(m.Percent()))
		b.WriteString("\n")
	}

	if len(m.logs) > 0 {
		b.WriteString("\n")
		for _, line := range m.logs {
			b.WriteString(Styles.Help(line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func phaseLabel(update tasks.ProgressUpdate) string {
	switch update.Phase {
	case tasks.FetchTracks:
		return fmt.Sprintf("Fetching tracks (page %d)", update.Step)
	case tasks.FetchAlbums:
		return fmt.Sprintf("Looking up %d albums", update.Total)
	case tasks.BatchConvert:
		return fmt.Sprintf("Converting playlists (%d/%d)", update.Step, update.Total)
	default:
		return update.Message
	}
}
