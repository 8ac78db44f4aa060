package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"slides2mcp/internal/config"
	"slides2mcp/internal/slidesgpt"
)

var searchCmd = &cobra.Command{
	Use:   "search [caption]",
	Short: "Local convenience: query image search without going through MCP",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 8, "maximum candidates to print")
}

func runSearch(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Options{ConfigPath: globalFlags.ConfigPath})
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: invalid configuration: "+err.Error())
	}

	client := slidesgpt.NewClient(cfg.SlidesGPT.BaseURL, cfg.SlidesGPT.APIKey)
	client.MaxRetries = cfg.SlidesGPT.MaxRetries

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := client.SearchImages(ctx, args[0])
	if err != nil {
		return err
	}

	st := newStyles(os.Stdout)
	if len(results) == 0 {
		fmt.Println(st.render(st.Dim, "no images found"))
		return nil
	}
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}
	for i, r := range results {
		fmt.Printf("%s %s\n", st.render(st.Bold, fmt.Sprintf("%2d.", i+1)), st.render(st.Brand, r.ImageID))
		fmt.Printf("    %s\n", r.Caption)
		if r.AuthorName != "" {
			fmt.Printf("    %s\n", st.render(st.Dim, "by "+r.AuthorName))
		}
		fmt.Printf("    %s\n", st.render(st.Dim, r.PreviewURL))
	}
	return nil
}
