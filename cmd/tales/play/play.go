// Package playcmder provides the play command: an interactive console
// adventure narrated by the configured model.
package playcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/tales/cmd/tales/cmdutil"
	"github.com/papercomputeco/tales/pkg/bootstrap"
	"github.com/papercomputeco/tales/pkg/cliui"
	"github.com/papercomputeco/tales/pkg/config"
	"github.com/papercomputeco/tales/pkg/dotdir"
	"github.com/papercomputeco/tales/pkg/logger"
)

const logFileName = "tales.log"

const playLongDesc string = `Play an interactive text adventure.

Every turn your command is classified, relevant world memory is recalled,
and the narrator continues the story. Combat and exploration are tracked as
game phases; health, inventory and events persist as the story unfolds.

Logs are written as JSON to tales.log in the .tales/ directory. With --debug
they are also printed to stderr.

Examples:
  tales play
  tales play --name Wren
  tales play --load quicksave
  tales play --provider gemini --model gemini-2.5-flash`

const playShortDesc string = "Play an interactive text adventure"

type playCommander struct {
	load string
}

func NewPlayCmd() *cobra.Command {
	cmder := &playCommander{}
	keys := append([]string{config.FlagPlayerName}, cmdutil.WorldFlags...)

	cmd := &cobra.Command{
		Use:   "play",
		Short: playShortDesc,
		Long:  playLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, keys...)
			if err != nil {
				return err
			}
			return cmder.run(cmd, cfg)
		},
	}

	cmdutil.AddFlags(cmd, keys...)
	cmd.Flags().StringVar(&cmder.load, "load", "", "Resume from a save slot")

	return cmd
}

func (c *playCommander) run(cmd *cobra.Command, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	configDir := cmdutil.ConfigDir(cmd)

	logPath, err := dotdir.NewManager().Path(configDir, logFileName)
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	debug := cmdutil.Debug(cmd)
	log := logger.New(logger.WithJSON(true), logger.WithDebug(debug), logger.WithWriter(logFile))
	if debug {
		log = logger.Multi(log, logger.New(
			logger.WithPretty(true),
			logger.WithDebug(true),
			logger.WithPrefix("tales"),
			logger.WithWriter(cmd.ErrOrStderr()),
		))
	}

	var rt *bootstrap.Runtime
	if err := cliui.Step(out, "Opening the world", func() error {
		rt, err = bootstrap.Open(ctx, bootstrap.Options{
			Config:    cfg,
			ConfigDir: configDir,
			Logger:    log,
		})
		if err != nil {
			return err
		}
		_, err = rt.SeedLore(ctx)
		return err
	}); err != nil {
		if rt != nil {
			_ = rt.Close()
		}
		return err
	}
	defer rt.Close()

	// Watcher errors are logged after the game ends.
	var watchers errgroup.Group
	watchers.Go(func() error {
		return rt.WatchPrompts(ctx)
	})

	var eng Game
	if c.load != "" {
		snap, err := dotdir.NewManager().LoadGame(c.load, configDir)
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no save named %q", c.load)
		}
		eng, err = rt.Factory.Resume(*snap)
		if err != nil {
			return err
		}
	} else {
		err = cliui.Step(out, "Walking into the unknown", func() error {
			eng = rt.Factory.NewGame(ctx, cfg.Game.PlayerName)
			return nil
		})
		if err != nil {
			return err
		}
	}

	con := newConsole(eng, cmd.InOrStdin(), out, configDir, log)
	con.intro()
	runErr := con.run(ctx)

	cancel()
	if err := watchers.Wait(); err != nil {
		log.Warn("prompt watcher stopped", "error", err)
	}
	return runErr
}
