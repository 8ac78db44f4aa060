package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"slides2mcp/internal/config"
	"slides2mcp/internal/mcp"
	"slides2mcp/internal/registry"
	"slides2mcp/internal/slidesgpt"
	"slides2mcp/internal/themes"
	"slides2mcp/internal/widgets"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE:  runServe,
}

var (
	serveListen    string
	serveTransport string
	serveAPIKey    string
	serveBaseURL   string
)

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "host:port for SSE/HTTP transports")
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "transport: stdio|sse|http")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "SlidesGPT API key (overrides env/config)")
	serveCmd.Flags().StringVar(&serveBaseURL, "base-url", "", "SlidesGPT base URL (overrides env/config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	overrides := &config.Overrides{}
	if cmd.Flags().Changed("listen") {
		overrides.Listen = &serveListen
	}
	if cmd.Flags().Changed("transport") {
		overrides.Transport = &serveTransport
	}
	if cmd.Flags().Changed("api-key") {
		overrides.APIKey = &serveAPIKey
	}
	if cmd.Flags().Changed("base-url") {
		overrides.BaseURL = &serveBaseURL
	}

	cfg, err := config.Load(config.Options{
		ConfigPath: globalFlags.ConfigPath,
		Overrides:  overrides,
	})
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: invalid configuration: "+err.Error())
	}

	// On stdio the protocol owns stdout; everything we say goes to stderr.
	logLevel := slog.LevelInfo
	if globalFlags.Quiet {
		logLevel = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// Static assets are a startup concern: a deck cannot be themed and a
	// result cannot name a widget if either catalog failed to ship.
	catalog, err := themes.Load()
	if err != nil {
		exitWith(ExitAssetFailure, "ERROR: "+err.Error())
	}
	widgetSet, err := widgets.Load()
	if err != nil {
		exitWith(ExitAssetFailure, "ERROR: "+err.Error())
	}

	reg := registry.New(
		registry.WithTTL(cfg.Registry.TTL.Std()),
		registry.WithSweepInterval(cfg.Registry.SweepInterval.Std()),
		registry.WithLogger(logger),
	)

	client := slidesgpt.NewClient(cfg.SlidesGPT.BaseURL, cfg.SlidesGPT.APIKey)
	client.Logger = logger
	client.MaxRetries = cfg.SlidesGPT.MaxRetries

	srv := mcp.New(cfg, reg, client, catalog, widgetSet, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reg.Run(ctx)

	switch cfg.Server.Transport {
	case config.TransportStdio:
		err = srv.ServeStdio(ctx)
	case config.TransportHTTP:
		err = srv.ServeHTTP(ctx, cfg.Server.Listen)
	default:
		err = srv.ServeSSE(ctx, cfg.Server.Listen)
	}
	if err != nil && ctx.Err() == nil {
		exitWith(ExitBindFailure, "ERROR: "+err.Error())
	}
	return nil
}
