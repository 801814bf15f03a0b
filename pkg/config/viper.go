package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/tales/pkg/dotdir"
)

// EnvPrefix is the prefix of every environment variable viper reads.
const EnvPrefix = "TALES"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the TALES_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (TALES_NARRATOR_PROVIDER, TALES_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper keys.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Narrator: NarratorConfig{
			Provider:    v.GetString("narrator.provider"),
			Model:       v.GetString("narrator.model"),
			BaseURL:     v.GetString("narrator.base_url"),
			Temperature: v.GetFloat64("narrator.temperature"),
			Timeout:     v.GetString("narrator.timeout"),
			Retries:     v.GetUint("narrator.retries"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			Collection: v.GetString("vector_store.collection"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		Game: GameConfig{
			PlayerName: v.GetString("game.player_name"),
			LoreFile:   v.GetString("game.lore_file"),
			TablesFile: v.GetString("game.tables_file"),
			PromptDir:  v.GetString("game.prompt_dir"),
		},
		Trace: TraceConfig{
			Driver:       v.GetString("trace.driver"),
			Target:       v.GetString("trace.target"),
			File:         v.GetString("trace.file"),
			KafkaBrokers: v.GetString("trace.kafka_brokers"),
			KafkaTopic:   v.GetString("trace.kafka_topic"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Narrator
	v.SetDefault("narrator.provider", d.Narrator.Provider)
	v.SetDefault("narrator.model", d.Narrator.Model)
	v.SetDefault("narrator.base_url", d.Narrator.BaseURL)
	v.SetDefault("narrator.temperature", d.Narrator.Temperature)
	v.SetDefault("narrator.timeout", d.Narrator.Timeout)
	v.SetDefault("narrator.retries", d.Narrator.Retries)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.collection", d.VectorStore.Collection)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Game
	v.SetDefault("game.player_name", d.Game.PlayerName)
	v.SetDefault("game.lore_file", d.Game.LoreFile)
	v.SetDefault("game.tables_file", d.Game.TablesFile)
	v.SetDefault("game.prompt_dir", d.Game.PromptDir)

	// Trace
	v.SetDefault("trace.driver", d.Trace.Driver)
	v.SetDefault("trace.target", d.Trace.Target)
	v.SetDefault("trace.file", d.Trace.File)
	v.SetDefault("trace.kafka_brokers", d.Trace.KafkaBrokers)
	v.SetDefault("trace.kafka_topic", d.Trace.KafkaTopic)

	// API
	v.SetDefault("api.listen", d.API.Listen)
}
