package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	clrBrand = lipgloss.Color("75") // blue
	clrGreen = lipgloss.Color("114")
	clrDim   = lipgloss.Color("245")
)

// styles wraps lipgloss renderers that respect TTY detection.  When output
// is piped or redirected all styling is disabled and raw text is emitted.
type styles struct {
	enabled bool

	Brand lipgloss.Style
	Green lipgloss.Style
	Dim   lipgloss.Style
	Bold  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = term.IsTerminal(int(f.Fd()))
	}

	s := styles{enabled: enabled}
	if !enabled {
		return s
	}
	s.Brand = lipgloss.NewStyle().Foreground(clrBrand).Bold(true)
	s.Green = lipgloss.NewStyle().Foreground(clrGreen)
	s.Dim = lipgloss.NewStyle().Foreground(clrDim)
	s.Bold = lipgloss.NewStyle().Bold(true)
	return s
}

func (s styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}

// swatch renders a colored block for a hex color on TTYs, or the hex code
// itself otherwise.
func (s styles) swatch(hex string) string {
	if !s.enabled {
		return hex
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    ") + " " + hex
}
