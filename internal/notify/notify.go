// Package notify shows toast notifications: short, fire-and-forget messages
// telling the user how an operation went.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/events"
)

// Kind is the severity of a toast.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// maxMessageLen caps how much of a message a toast shows.
const maxMessageLen = 300

// Notifier shows a toast. Implementations must not block for long and
// never fail; a toast that cannot be shown is dropped.
type Notifier interface {
	Show(kind Kind, message string)
}

// Terminal writes one styled line per toast.
type Terminal struct {
	out     io.Writer
	enabled bool
	mu      sync.Mutex

	styles map[Kind]lipgloss.Style
	plain  bool
}

var symbols = map[Kind]string{
	Success: "✔",
	Error:   "✖",
	Info:    "ℹ",
}

// NewTerminal creates a terminal notifier writing to out (stderr when nil).
// With color off the symbols are printed without styling.
func NewTerminal(out io.Writer, color bool) *Terminal {
	if out == nil {
		out = os.Stderr
	}
	r := lipgloss.NewRenderer(out)
	return &Terminal{
		out:     out,
		enabled: true,
		plain:   !color,
		styles: map[Kind]lipgloss.Style{
			Success: r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
			Error:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			Info:    r.NewStyle().Foreground(lipgloss.Color("39")),
		},
	}
}

// SetEnabled enables or disables toasts.
func (t *Terminal) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// IsEnabled returns whether toasts are shown.
func (t *Terminal) IsEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Show prints the toast.
func (t *Terminal) Show(kind Kind, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}

	symbol, ok := symbols[kind]
	if !ok {
		symbol = "•"
	}
	prefix := symbol
	if style, ok := t.styles[kind]; ok && !t.plain {
		prefix = style.Render(symbol)
	}
	fmt.Fprintf(t.out, "%s %s\n", prefix, truncate(message, maxMessageLen))
}

// Bus republishes toasts on the event bus.
type Bus struct {
	bus *events.EventBus
}

// NewBus creates a notifier publishing ToastEvents on bus.
func NewBus(bus *events.EventBus) *Bus {
	return &Bus{bus: bus}
}

// Show publishes the toast.
func (b *Bus) Show(kind Kind, message string) {
	b.bus.PublishToast(events.ToastLevel(kind), message)
}

// Multi shows every toast on each of its notifiers in order.
type Multi []Notifier

// Show fans the toast out.
func (m Multi) Show(kind Kind, message string) {
	for _, n := range m {
		if n != nil {
			n.Show(kind, message)
		}
	}
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
