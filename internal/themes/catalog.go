// Package themes holds the static theme catalog shipped with the server.
// The catalog is embedded at build time and parsed once at startup; a
// malformed catalog is a configuration error that aborts startup rather than
// a runtime request error.
package themes

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed themes.toml
var rawCatalog []byte

// Theme is one entry of the catalog.
type Theme struct {
	ID          string `toml:"id" json:"id"`
	Name        string `toml:"name" json:"name"`
	Description string `toml:"description" json:"description"`
	Primary     string `toml:"primary" json:"primary"`
	Secondary   string `toml:"secondary" json:"secondary"`
	Background  string `toml:"background" json:"background"`
	Text        string `toml:"text" json:"text"`
	Accent      string `toml:"accent" json:"accent"`
}

// Catalog is the full set of selectable themes.
type Catalog struct {
	DefaultRecommendation string  `toml:"default_recommendation"`
	Themes                []Theme `toml:"theme"`

	byID map[string]Theme
}

// Load parses the embedded catalog.  Called once at startup; any error is
// fatal to the server.
func Load() (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(rawCatalog, &c); err != nil {
		return nil, fmt.Errorf("theme catalog: %w", err)
	}
	if len(c.Themes) == 0 {
		return nil, fmt.Errorf("theme catalog: no themes defined")
	}
	c.byID = make(map[string]Theme, len(c.Themes))
	for _, t := range c.Themes {
		if t.ID == "" {
			return nil, fmt.Errorf("theme catalog: theme %q has empty id", t.Name)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("theme catalog: duplicate theme id %q", t.ID)
		}
		c.byID[t.ID] = t
	}
	if c.DefaultRecommendation != "" {
		if _, ok := c.byID[c.DefaultRecommendation]; !ok {
			return nil, fmt.Errorf("theme catalog: default recommendation %q is not in the catalog", c.DefaultRecommendation)
		}
	}
	return &c, nil
}

// All returns every theme in catalog order.
func (c *Catalog) All() []Theme {
	return c.Themes
}

// Get returns the theme with the given id.
func (c *Catalog) Get(id string) (Theme, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Valid reports whether id names a theme in the catalog.
func (c *Catalog) Valid(id string) bool {
	_, ok := c.byID[id]
	return ok
}
