// Package style holds the lipgloss styles shared by the CLI and the
// terminal error formatter.
package style

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var renderer = lipgloss.NewRenderer(os.Stdout)

var (
	Success = renderer.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	Warn    = renderer.NewStyle().Foreground(lipgloss.Color("#fab387"))
	Error   = renderer.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	Muted   = renderer.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	Header  = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	Route   = renderer.NewStyle().Bold(true)
	Code    = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#f38ba8"))
	Where   = renderer.NewStyle().Foreground(lipgloss.Color("#89dceb"))
	Link    = renderer.NewStyle().Underline(true).Foreground(lipgloss.Color("#89b4fa"))
)

var (
	mu    sync.Mutex
	saved *termenv.Profile
)

// SetPlain turns all styling off, or back to the detected profile.
func SetPlain(plain bool) {
	mu.Lock()
	defer mu.Unlock()

	if plain {
		if saved == nil {
			p := renderer.ColorProfile()
			saved = &p
		}
		renderer.SetColorProfile(termenv.Ascii)
		return
	}
	if saved != nil {
		renderer.SetColorProfile(*saved)
		saved = nil
	}
}

// Block returns a style that wraps text at width and indents it by indent.
func Block(width, indent int) lipgloss.Style {
	return renderer.NewStyle().Width(width).PaddingLeft(indent)
}
