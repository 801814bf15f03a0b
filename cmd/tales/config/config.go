// Package configcmder provides the config command for managing persistent
// tales configuration stored in the .tales/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tales/pkg/cliui"
	"github.com/papercomputeco/tales/pkg/config"
)

const configLongDesc string = `Manage persistent tales configuration.

Configuration is stored as config.toml in the .tales/ directory and provides
default values for command flags. CLI flags and TALES_* environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  narrator.provider, narrator.model, narrator.base_url, narrator.temperature,
  narrator.timeout, narrator.retries,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  game.player_name, game.lore_file, game.tables_file, game.prompt_dir,
  trace.driver, trace.target, trace.file, trace.kafka_brokers, trace.kafka_topic,
  api.listen

Use subcommands to get, set, or list configuration values:
  tales config set <key> <value>    Set a configuration value
  tales config get <key>            Get a configuration value
  tales config list                 List all configuration values

Examples:
  tales config set narrator.provider gemini
  tales config set embedding.model nomic-embed-text
  tales config get narrator.provider
  tales config list`

const configShortDesc string = "Manage persistent tales configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
