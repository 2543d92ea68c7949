package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Minimal color palette
var (
	DimColor     = lipgloss.Color("#6c6c6c")
	TextColor    = lipgloss.Color("#e0e0e0")
	AccentColor  = lipgloss.Color("#7aa2f7")
	ErrorColor   = lipgloss.Color("#f7768e")
	SuccessColor = lipgloss.Color("#9ece6a")
	WarningColor = lipgloss.Color("#e0af68")
)

var (
	InfoStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	MessageStyle = lipgloss.NewStyle().
			Foreground(TextColor)
)

// Prefixes per level
const (
	InfoPrefix    = "  info "
	SuccessPrefix = "  ok "
	WarningPrefix = "  warn "
	ErrorPrefix   = "  error "
)

// Terminal writes styled notifications, one per line, to an io.Writer
// (normally stderr so stdout stays clean for response data).
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) Notify(n Notification) {
	style, prefix := styleFor(n.Level)

	line := style.Render(prefix)
	if n.Title != "" {
		line += style.Bold(true).Render(n.Title) + " "
	}
	line += MessageStyle.Render(n.Message)

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, line)
}

func styleFor(level Level) (lipgloss.Style, string) {
	switch level {
	case Success:
		return SuccessStyle, SuccessPrefix
	case Warning:
		return WarningStyle, WarningPrefix
	case Error:
		return ErrorStyle, ErrorPrefix
	default:
		return InfoStyle, InfoPrefix
	}
}
