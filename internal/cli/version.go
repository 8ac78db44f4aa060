package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overridable at link time.
var Version = "1.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the slides2mcp version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("slides2mcp " + Version)
	},
}
