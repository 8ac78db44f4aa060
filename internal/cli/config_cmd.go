package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"slides2mcp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration as YAML",
	RunE:  runConfigPrint,
}

func init() {
	configCmd.AddCommand(configPrintCmd)
}

func runConfigPrint(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{
		ConfigPath:   globalFlags.ConfigPath,
		SkipValidate: true,
	})
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	// Never echo credentials.
	redacted := *cfg
	if redacted.SlidesGPT.APIKey != "" {
		redacted.SlidesGPT.APIKey = "<redacted>"
	}

	out, err := yaml.Marshal(redacted)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	if err == nil {
		fmt.Println()
	}
	return err
}
