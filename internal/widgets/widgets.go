// Package widgets ships the embedded UI template skeletons that tool results
// reference by name.  The assistant runtime fetches the template named in a
// result's ui metadata and hydrates it with the structured payload.
package widgets

import (
	"embed"
	"fmt"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names used in tool result metadata.
const (
	SlideViewer   = "slide-viewer"
	SlideCarousel = "slide-carousel"
	ThemePicker   = "theme-picker"
)

var required = []string{SlideViewer, SlideCarousel, ThemePicker}

// Set holds the loaded widget templates.
type Set struct {
	templates map[string][]byte
}

// Load reads every required template from the embedded filesystem.  A
// missing or empty template is a packaging error and aborts server startup.
func Load() (*Set, error) {
	s := &Set{templates: make(map[string][]byte, len(required))}
	for _, name := range required {
		data, err := templateFS.ReadFile("templates/" + name + ".html")
		if err != nil {
			return nil, fmt.Errorf("widget asset %q: %w", name, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("widget asset %q is empty", name)
		}
		s.templates[name] = data
	}
	return s, nil
}

// Template returns the raw template for name.
func (s *Set) Template(name string) ([]byte, bool) {
	data, ok := s.templates[name]
	return data, ok
}

// Names lists the loaded template names.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for _, name := range required {
		if _, ok := s.templates[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
