package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// on "tales play" and "tales serve" cannot drift.
type Flag struct {
	// Name is the long flag name (e.g. "provider").
	Name string

	// Shorthand is the one-letter short flag (e.g. "p"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "narrator.provider").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagProvider        = "provider"
	FlagModel           = "model"
	FlagBaseURL         = "base-url"
	FlagTimeout         = "timeout"
	FlagRetries         = "retries"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagPlayerName      = "player-name"
	FlagLoreFile        = "lore-file"
	FlagTablesFile      = "tables-file"
	FlagPromptDir       = "prompt-dir"
	FlagTraceDriver     = "trace-driver"
	FlagTraceTarget     = "trace-target"
	FlagTraceFile       = "trace-file"
	FlagKafkaBrokers    = "kafka-brokers"
	FlagAPIListen       = "listen"
)

// Flags is the registry shared by every tales command.
var Flags = FlagSet{
	FlagProvider:        {Name: "provider", Shorthand: "p", ViperKey: "narrator.provider", Description: "Narrator provider (gemini, openai, anthropic, ollama)"},
	FlagModel:           {Name: "model", Shorthand: "m", ViperKey: "narrator.model", Description: "Narrator model name"},
	FlagBaseURL:         {Name: "base-url", ViperKey: "narrator.base_url", Description: "Narrator API base URL"},
	FlagTimeout:         {Name: "timeout", ViperKey: "narrator.timeout", Description: "Timeout for a single narrator call"},
	FlagRetries:         {Name: "retries", ViperKey: "narrator.retries", Description: "Narrator retries before a turn degrades"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "World memory index (memory, sqlite, chroma, qdrant)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "World memory index target (path, URL or host:port)"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, gemini)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	FlagPlayerName:      {Name: "name", Shorthand: "n", ViperKey: "game.player_name", Description: "Player character name"},
	FlagLoreFile:        {Name: "lore", ViperKey: "game.lore_file", Description: "YAML lore file (embedded lore when empty)"},
	FlagTablesFile:      {Name: "tables", ViperKey: "game.tables_file", Description: "YAML world tables file (embedded tables when empty)"},
	FlagPromptDir:       {Name: "prompts", ViperKey: "game.prompt_dir", Description: "Directory of prompt template overrides"},
	FlagTraceDriver:     {Name: "trace-driver", ViperKey: "trace.driver", Description: "Turn trace store (none, memory, sqlite, postgres)"},
	FlagTraceTarget:     {Name: "trace-target", ViperKey: "trace.target", Description: "Turn trace store path or connection string"},
	FlagTraceFile:       {Name: "trace-file", ViperKey: "trace.file", Description: "Append turn traces as JSON lines to this file"},
	FlagKafkaBrokers:    {Name: "kafka-brokers", ViperKey: "trace.kafka_brokers", Description: "Comma separated Kafka brokers for turn events"},
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
