// Package mcp is the tool dispatcher: it exposes the presentation tools over
// the Model Context Protocol and converts every registry or remote failure
// into a flagged, non-crashing tool result.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"slides2mcp/internal/config"
	"slides2mcp/internal/protocol"
	"slides2mcp/internal/registry"
	"slides2mcp/internal/slidesgpt"
	"slides2mcp/internal/themes"
	"slides2mcp/internal/widgets"
)

const (
	serverName    = "slides2mcp"
	serverVersion = "1.1.0"
)

// Server wires the registry, the remote client, and the static catalogs into
// an MCP server instance.
type Server struct {
	mcp      *mcpsrv.MCPServer
	reg      *registry.Registry
	client   *slidesgpt.Client
	catalog  *themes.Catalog
	widgets  *widgets.Set
	cfg      *config.Config
	logger   *slog.Logger
	validate *validator.Validate
}

// New builds a fully-registered server.  All collaborators are injected;
// nothing here owns global state.
func New(cfg *config.Config, reg *registry.Registry, client *slidesgpt.Client, catalog *themes.Catalog, ws *widgets.Set, lg *slog.Logger) *Server {
	if lg == nil {
		lg = slog.Default()
	}
	s := &Server{
		reg:      reg,
		client:   client,
		catalog:  catalog,
		widgets:  ws,
		cfg:      cfg,
		logger:   lg,
		validate: validator.New(),
	}

	mcpServer := mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithInstructions(instructions()),
		mcpsrv.WithToolHandlerMiddleware(s.logCalls),
	)
	for _, t := range s.tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}
	s.mcp = mcpServer
	return s
}

func instructions() string {
	return `You are connected to a SlidesGPT presentation server.

Slides are built one deck per conversation: the first create_slide (or
create_slide_carousel) call returns a presentation_id; pass that id on every
later call to keep adding slides to the same deck.  Once at least one slide
exists you can restyle the whole deck with apply_theme, browse styles with
show_theme_picker, and find stock imagery with search_images.`
}

// logCalls logs every tool invocation with its outcome and duration.
func (s *Server) logCalls(next mcpsrv.ToolHandlerFunc) mcpsrv.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		start := time.Now()
		res, err := next(ctx, req)
		attrs := []any{
			"tool", req.Params.Name,
			"duration", time.Since(start).Round(time.Millisecond).String(),
		}
		switch {
		case err != nil:
			s.logger.ErrorContext(ctx, "tool call failed", append(attrs, "error", err)...)
		case res != nil && res.IsError:
			s.logger.WarnContext(ctx, "tool call returned error result", attrs...)
		default:
			s.logger.InfoContext(ctx, "tool call ok", attrs...)
		}
		return res, err
	}
}

// ServeStdio runs the server over stdin/stdout until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeSSE runs the session-muxing SSE transport on addr until ctx is
// cancelled.  Each client opens one long-lived stream on /sse, is assigned a
// session id, and posts correlated messages to /message; the session is torn
// down when the stream closes.  Sessions are transport multiplexing only —
// the presentation registry stays process-global underneath them.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sse := mcpsrv.NewSSEServer(s.mcp,
		mcpsrv.WithSSEEndpoint(protocol.SSEEndpoint),
		mcpsrv.WithMessageEndpoint(protocol.MessageEndpoint),
	)

	r := s.router()
	r.Handle(protocol.SSEEndpoint, sse)
	r.Handle(protocol.MessageEndpoint, sse)

	return s.serveHTTP(ctx, addr, r, "sse")
}

// ServeHTTP runs the streamable HTTP transport on addr until ctx is
// cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	streamable := mcpsrv.NewStreamableHTTPServer(s.mcp)

	r := s.router()
	r.Handle("/mcp", streamable)

	return s.serveHTTP(ctx, addr, r, "http")
}

// router mounts the non-MCP endpoints every HTTP transport carries.
func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Get(protocol.HealthEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "ok presentations=%d\n", s.reg.Len())
	})
	if token := s.cfg.SlidesGPT.VerificationToken; token != "" {
		r.Get(protocol.VerificationEndpoint, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintln(w, token)
		})
	}
	return r
}

func (s *Server) serveHTTP(ctx context.Context, addr string, handler http.Handler, transport string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.InfoContext(ctx, "mcp server listening", "transport", transport, "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp %s server error: %w", transport, err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "mcp server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mcp %s server shutdown error: %w", transport, err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
