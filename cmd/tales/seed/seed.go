// Package seedcmder provides the seed command that loads world lore into
// memory.
package seedcmder

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tales/cmd/tales/cmdutil"
	"github.com/papercomputeco/tales/pkg/bootstrap"
	"github.com/papercomputeco/tales/pkg/cliui"
	"github.com/papercomputeco/tales/pkg/config"
	"github.com/papercomputeco/tales/pkg/dotdir"
	"github.com/papercomputeco/tales/pkg/logger"
	"github.com/papercomputeco/tales/pkg/memory"
)

const seedLongDesc string = `Seed world lore into memory.

Loads lore records from the configured YAML lore file, or the embedded
default lore, embeds them and writes them to the world memory index.
Records whose id is already stored are skipped, so seeding is safe to
repeat.

Examples:
  tales seed
  tales seed --lore ./lore.yaml
  tales seed --vector-store-provider qdrant --vector-store-target localhost:6334`

const seedShortDesc string = "Seed world lore into memory"

var seedFlags = []string{
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLoreFile,
}

func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, seedFlags...)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	cmdutil.AddFlags(cmd, seedFlags...)

	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	log := logger.New(
		logger.WithDebug(cmdutil.Debug(cmd)),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	dir, err := dotdir.NewManager().Target(cmdutil.ConfigDir(cmd))
	if err != nil {
		return err
	}

	records, err := bootstrap.LoadLore(cfg.Game.LoreFile)
	if err != nil {
		return err
	}

	embedder, err := bootstrap.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return err
	}
	driver, err := bootstrap.NewMemoryDriver(ctx, cfg, dir, log)
	if err != nil {
		_ = embedder.Close()
		return err
	}
	store := memory.NewStore(embedder, driver, log)
	defer store.Close()

	var result memory.SeedResult
	if err := cliui.Step(w, fmt.Sprintf("Seeding %d lore records", len(records)), func() error {
		var seedErr error
		result, seedErr = store.Seed(ctx, records)
		return seedErr
	}); err != nil {
		return err
	}

	printResult(w, result, cfg.VectorStore.Provider)
	return nil
}

func printResult(w io.Writer, result memory.SeedResult, provider string) {
	fmt.Fprintf(w, "\n  %s Seeded %s records %s into %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(result.Added)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d already present)", result.Skipped)),
		cliui.DimStyle.Render(provider),
	)
}
