package terminal

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Discord renders only the basic 16 colour ANSI palette inside ```ansi
// blocks, so styles are rendered with a fixed ANSI profile rather than one
// detected from the host terminal.
var renderer = func() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return r
}()

var (
	errorStyle    = renderer.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle       = renderer.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle     = renderer.NewStyle().Foreground(lipgloss.Color("3"))
	dirStyle      = renderer.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	accentStyle   = renderer.NewStyle().Foreground(lipgloss.Color("6"))
	progressStyle = renderer.NewStyle().Foreground(lipgloss.Color("2"))
)

// Error styles text red.
func Error(s string) string { return errorStyle.Render(s) }

// OK styles text green.
func OK(s string) string { return okStyle.Render(s) }

// Warn styles text yellow.
func Warn(s string) string { return warnStyle.Render(s) }

// Dir styles a directory name bold blue, the way ls colours it.
func Dir(s string) string { return dirStyle.Render(s) }

// Accent styles text cyan.
func Accent(s string) string { return accentStyle.Render(s) }

// Progress formats one line of a staged animation.
func Progress(s string) string { return progressStyle.Render("[+]") + " " + s }

// Failure renders a standalone failure message.
func Failure(s string) string {
	return Fence(Error("✖ " + EscapeBackticks(s)))
}
