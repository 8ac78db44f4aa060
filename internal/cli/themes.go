package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"slides2mcp/internal/config"
	"slides2mcp/internal/slidesgpt"
	"slides2mcp/internal/themes"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the theme catalog, or pick and apply one interactively",
	RunE:  runThemes,
}

var (
	themesPick bool
	themesDeck string
)

func init() {
	themesCmd.Flags().BoolVar(&themesPick, "pick", false, "open an interactive picker (requires a terminal)")
	themesCmd.Flags().StringVar(&themesDeck, "deck", "", "deck id to apply the picked theme to")
}

func runThemes(_ *cobra.Command, _ []string) error {
	catalog, err := themes.Load()
	if err != nil {
		exitWith(ExitAssetFailure, "ERROR: "+err.Error())
	}

	if themesPick {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			exitWith(ExitGenericError, "ERROR: --pick needs an interactive terminal")
		}
		cfg, err := config.Load(config.Options{ConfigPath: globalFlags.ConfigPath})
		if err != nil {
			exitWith(ExitConfigInvalid, "ERROR: invalid configuration: "+err.Error())
		}
		client := slidesgpt.NewClient(cfg.SlidesGPT.BaseURL, cfg.SlidesGPT.APIKey)
		client.MaxRetries = cfg.SlidesGPT.MaxRetries
		return runThemePicker(catalog, client, themesDeck)
	}

	st := newStyles(os.Stdout)
	for _, t := range catalog.All() {
		marker := "  "
		if t.ID == catalog.DefaultRecommendation {
			marker = st.render(st.Green, "* ")
		}
		fmt.Printf("%s%s %s\n", marker, st.render(st.Brand, t.ID), st.render(st.Dim, "("+t.Name+")"))
		fmt.Printf("    %s\n", t.Description)
		fmt.Printf("    %s  %s\n", st.swatch(t.Primary), st.swatch(t.Accent))
	}
	if catalog.DefaultRecommendation != "" {
		fmt.Println(st.render(st.Dim, "* recommended"))
	}
	return nil
}
