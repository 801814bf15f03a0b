// Package servecmder provides the serve command that runs the tales HTTP API
// with its MCP endpoint.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/tales/api"
	"github.com/papercomputeco/tales/api/mcp"
	"github.com/papercomputeco/tales/cmd/tales/cmdutil"
	"github.com/papercomputeco/tales/pkg/bootstrap"
	"github.com/papercomputeco/tales/pkg/config"
	"github.com/papercomputeco/tales/pkg/logger"
)

const serveLongDesc string = `Run the tales API server.

Serves sessions over HTTP so any client can play:
  POST   /v1/sessions                 start a session
  PUT    /v1/sessions                 resume a session from a snapshot
  GET    /v1/sessions/:id             session snapshot
  DELETE /v1/sessions/:id             end a session
  POST   /v1/sessions/:id/turns       play a turn
  GET    /v1/sessions/:id/traces      narrator calls of a session
  GET    /v1/memories/search          search world memory
  GET    /metrics                     Prometheus metrics
  /mcp                                MCP tools over streamable HTTP

World lore is seeded on start; records already present are skipped.

Examples:
  tales serve
  tales serve --listen :9000 --trace-driver postgres --trace-target postgres://...`

const serveShortDesc string = "Run the tales API server"

type serveCommander struct {
	debug  bool
	logger *slog.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}
	keys := append([]string{config.FlagAPIListen}, cmdutil.WorldFlags...)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, keys...)
			if err != nil {
				return err
			}
			cmder.debug = cmdutil.Debug(cmd)
			return cmder.run(cmd.Context(), cfg, cmdutil.ConfigDir(cmd))
		},
	}

	cmdutil.AddFlags(cmd, keys...)

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config, configDir string) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithPrefix("tales"))

	rt, err := bootstrap.Open(ctx, bootstrap.Options{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.SeedLore(ctx); err != nil {
		return fmt.Errorf("seeding lore: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Memory: rt.Memory,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		Games:      rt.Factory,
		Memory:     rt.Memory,
		Traces:     rt.Traces,
		MCP:        mcpServer.Handler(),
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := apiServer.Run(); err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return rt.WatchPrompts(gctx)
	})

	// Shut down on signal or when either goroutine fails.
	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down")
		return apiServer.Shutdown()
	})

	return g.Wait()
}
