// Package tui renders the project dashboard in a terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ikusi/acta-ui/internal/acta"
	"github.com/ikusi/acta-ui/internal/dashboard"
)

const maxToasts = 5

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f2f2f2")).Background(lipgloss.Color("#101F38")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#2a3850")).Padding(0, 1)
)

// actionDoneMsg is delivered when a controller action returns.
type actionDoneMsg struct {
	action dashboard.Action
	err    error
}

// SignedOutMsg ends the dashboard when the session is closed from outside.
type SignedOutMsg struct {
	Reason string
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx    context.Context
	ctrl   *dashboard.Controller
	queue  *dashboard.Queue
	touch  func()
	title  string
	keys   keyMap
	help   help.Model
	spin   spinner.Model
	input  textinput.Model
	cursor int

	prompting bool
	toasts    []dashboard.Toast
	width     int
	quitting  bool
	signedOut string
}

// New builds the model. queue must be the Notifier the controller was
// built with; touch is called on every key press and may be nil.
func New(ctx context.Context, ctrl *dashboard.Controller, queue *dashboard.Queue, title string, touch func()) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	in := textinput.New()
	in.Placeholder = "client@example.com"
	in.Prompt = "Recipient: "
	in.CharLimit = 254

	if touch == nil {
		touch = func() {}
	}
	return Model{
		ctx:   ctx,
		ctrl:  ctrl,
		queue: queue,
		touch: touch,
		title: title,
		keys:  defaultKeys(),
		help:  help.New(),
		spin:  sp,
		input: in,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.run(dashboard.ActionRefresh, m.ctrl.Refresh))
}

func (m Model) run(action dashboard.Action, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case actionDoneMsg:
		m.collectToasts()
		if msg.action == dashboard.ActionRefresh {
			m.clampCursor()
			if _, ok := m.ctrl.Selected(); !ok {
				if projects := m.ctrl.Projects(); len(projects) > 0 {
					m.ctrl.Select(projects[m.cursor].ID)
				}
			}
		}
		return m, nil

	case SignedOutMsg:
		m.signedOut = msg.Reason
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		m.touch()
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		recipient := strings.TrimSpace(m.input.Value())
		m.prompting = false
		m.input.Blur()
		m.input.Reset()
		return m, m.run(dashboard.ActionSendApproval, func(ctx context.Context) error {
			return m.ctrl.SendApproval(ctx, recipient)
		})
	case tea.KeyEsc:
		m.prompting = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.run(dashboard.ActionRefresh, m.ctrl.Refresh)
	case key.Matches(msg, m.keys.Generate):
		return m, m.run(dashboard.ActionGenerate, m.ctrl.Generate)
	case key.Matches(msg, m.keys.Preview):
		return m, m.run(dashboard.ActionPreview, m.ctrl.Preview)
	case key.Matches(msg, m.keys.PDF):
		return m, m.run(dashboard.ActionDownload, m.ctrl.DownloadPDF)
	case key.Matches(msg, m.keys.Word):
		return m, m.run(dashboard.ActionDownload, m.ctrl.DownloadWord)
	case key.Matches(msg, m.keys.Send):
		if _, ok := m.ctrl.Selected(); !ok {
			m.queue.Notify(dashboard.Toast{Level: dashboard.LevelWarning, Message: dashboard.MsgSelectProject})
			m.collectToasts()
			return m, nil
		}
		m.prompting = true
		cmd := m.input.Focus()
		return m, cmd
	}
	return m, nil
}

func (m *Model) move(delta int) {
	projects := m.ctrl.Projects()
	if len(projects) == 0 {
		return
	}
	m.cursor += delta
	m.clampCursor()
	m.ctrl.Select(projects[m.cursor].ID)
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Projects())
	switch {
	case n == 0:
		m.cursor = 0
	case m.cursor >= n:
		m.cursor = n - 1
	case m.cursor < 0:
		m.cursor = 0
	}
}

func (m *Model) collectToasts() {
	m.toasts = append(m.toasts, m.queue.Drain()...)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
}

// SignedOut is the reason the session ended, or "" if the user quit.
func (m Model) SignedOut() string {
	return m.signedOut
}

func (m Model) View() string {
	if m.quitting {
		if m.signedOut != "" {
			return fmt.Sprintf("Signed out (%s).\n", m.signedOut)
		}
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.projectList())
	b.WriteString("\n")

	if status := m.loadingLine(); status != "" {
		b.WriteString(m.spin.View() + " " + status + "\n")
	}
	for _, t := range m.toasts {
		b.WriteString(dashboard.Render(t) + "\n")
	}
	if m.prompting {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) projectList() string {
	projects := m.ctrl.Projects()
	if len(projects) == 0 {
		if m.ctrl.Loading(dashboard.ActionRefresh, "") {
			return boxStyle.Render("Loading projects...")
		}
		return boxStyle.Render(mutedStyle.Render("No projects."))
	}

	selected, _ := m.ctrl.Selected()
	var rows []string
	for i, p := range projects {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		row := fmt.Sprintf("%s%-18s %-40s %s", cursor, p.ID, truncate(p.Name, 40), mutedStyle.Render(p.ActaStatus))
		if p.ID == selected.ID {
			row = selectedStyle.Render(row)
		}
		rows = append(rows, row)
	}
	return boxStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) loadingLine() string {
	labels := []struct {
		action dashboard.Action
		format acta.Format
		label  string
	}{
		{dashboard.ActionRefresh, "", "loading projects"},
		{dashboard.ActionGenerate, "", "generating"},
		{dashboard.ActionPreview, acta.FormatPDF, "opening preview"},
		{dashboard.ActionDownload, acta.FormatPDF, "downloading pdf"},
		{dashboard.ActionDownload, acta.FormatDOCX, "downloading word"},
		{dashboard.ActionSendApproval, "", "sending approval"},
	}
	var active []string
	for _, l := range labels {
		if m.ctrl.Loading(l.action, l.format) {
			active = append(active, l.label)
		}
	}
	return strings.Join(active, ", ")
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
