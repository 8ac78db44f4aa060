// Package cli wires the cobra command tree for the slides2mcp binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitSuccess       = 0
	ExitGenericError  = 1
	ExitConfigInvalid = 2
	ExitAssetFailure  = 3
	ExitBindFailure   = 4
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	ConfigPath string
	Quiet      bool
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:   "slides2mcp",
	Short: "MCP server that turns SlidesGPT into assistant tools",
	Long: "slides2mcp exposes the SlidesGPT presentation API as MCP tools " +
		"(create_slide, create_slide_carousel, search_images, apply_theme, " +
		"show_theme_picker) with in-memory presentation continuity.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "config file path (default .slides2mcp.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Quiet, "quiet", false, "reduce output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(themesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// exitWith prints message to stderr and exits with code.
func exitWith(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
