package dashboard

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Toast is a short user-facing notification.
type Toast struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(Toast)
}

// Queue collects toasts until they are drained. Safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
}

func (q *Queue) Notify(t Toast) {
	q.mu.Lock()
	q.toasts = append(q.toasts, t)
	q.mu.Unlock()
}

// Drain returns and forgets the queued toasts.
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.toasts
	q.toasts = nil
	return out
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
)

// Style returns the color used for a toast level.
func Style(l Level) lipgloss.Style {
	switch l {
	case LevelSuccess:
		return successStyle
	case LevelWarning:
		return warningStyle
	case LevelError:
		return errorStyle
	default:
		return infoStyle
	}
}

var icons = map[Level]string{
	LevelInfo:    "i",
	LevelSuccess: "✓",
	LevelWarning: "!",
	LevelError:   "✗",
}

// Render formats a toast for a terminal.
func Render(t Toast) string {
	return Style(t.Level).Render(icons[t.Level]) + " " + t.Message
}

// TerminalNotifier prints toasts as styled lines.
type TerminalNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{w: w}
}

func (n *TerminalNotifier) Notify(t Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, Render(t))
}
