// Package cmdutil holds the flag and config plumbing shared by the tales
// commands that open a world.
package cmdutil

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tales/pkg/config"
)

// WorldFlags are the registry keys every world-opening command accepts.
var WorldFlags = []string{
	config.FlagProvider,
	config.FlagModel,
	config.FlagBaseURL,
	config.FlagTimeout,
	config.FlagRetries,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLoreFile,
	config.FlagTablesFile,
	config.FlagPromptDir,
	config.FlagTraceDriver,
	config.FlagTraceTarget,
	config.FlagTraceFile,
	config.FlagKafkaBrokers,
}

var uintFlags = map[string]bool{
	config.FlagRetries:       true,
	config.FlagEmbeddingDims: true,
}

// AddFlags registers the given registry flags on cmd. Values are read back
// through viper, so the flag variables themselves are discarded.
func AddFlags(cmd *cobra.Command, keys ...string) {
	for _, key := range keys {
		if uintFlags[key] {
			var v uint
			config.AddUintFlag(cmd, config.Flags, key, &v)
			continue
		}
		var s string
		config.AddStringFlag(cmd, config.Flags, key, &s)
	}
}

// LoadConfig resolves the config for cmd: flags, then TALES_* env, then
// config.toml in the selected .tales directory, then defaults.
func LoadConfig(cmd *cobra.Command, keys ...string) (*config.Config, error) {
	v, err := config.InitViper(ConfigDir(cmd))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	cfg := config.FromViper(v)
	if _, err := cfg.Narrator.TimeoutDuration(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Debug reports the persistent --debug flag.
func Debug(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}

// ConfigDir reports the persistent --config-dir flag.
func ConfigDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("config-dir")
	return dir
}
