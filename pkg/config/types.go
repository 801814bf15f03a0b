package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent tales configuration stored as config.toml
// in the .tales/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Narrator    NarratorConfig    `toml:"narrator"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Game        GameConfig        `toml:"game"`
	Trace       TraceConfig       `toml:"trace"`
	API         APIConfig         `toml:"api"`
}

// NarratorConfig selects the generative model that narrates each turn.
type NarratorConfig struct {
	Provider    string  `toml:"provider,omitempty"`
	Model       string  `toml:"model,omitempty"`
	BaseURL     string  `toml:"base_url,omitempty"`
	Temperature float64 `toml:"temperature,omitempty"`

	// Timeout bounds a single model call, e.g. "60s".
	Timeout string `toml:"timeout,omitempty"`
	Retries uint   `toml:"retries,omitempty"`
}

// TimeoutDuration parses Timeout, returning zero for an empty value.
func (n NarratorConfig) TimeoutDuration() (time.Duration, error) {
	if n.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(n.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid narrator.timeout %q: %w", n.Timeout, err)
	}
	return d, nil
}

// VectorStoreConfig holds world memory index settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// GameConfig holds world content settings. Empty paths select the embedded
// defaults.
type GameConfig struct {
	PlayerName string `toml:"player_name,omitempty"`
	LoreFile   string `toml:"lore_file,omitempty"`
	TablesFile string `toml:"tables_file,omitempty"`
	PromptDir  string `toml:"prompt_dir,omitempty"`
}

// TraceConfig selects where turn traces are written. Kafka is enabled when
// brokers are set.
type TraceConfig struct {
	Driver       string `toml:"driver,omitempty"`
	Target       string `toml:"target,omitempty"`
	File         string `toml:"file,omitempty"`
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"narrator.provider": stringKey(func(c *Config) *string { return &c.Narrator.Provider }),
	"narrator.model":    stringKey(func(c *Config) *string { return &c.Narrator.Model }),
	"narrator.base_url": stringKey(func(c *Config) *string { return &c.Narrator.BaseURL }),
	"narrator.temperature": {
		get: func(c *Config) string {
			if c.Narrator.Temperature == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Narrator.Temperature, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for narrator.temperature: %w", err)
			}
			if f < 0 || f > 2 {
				return fmt.Errorf("invalid value for narrator.temperature: %v out of range [0, 2]", f)
			}
			c.Narrator.Temperature = f
			return nil
		},
	},
	"narrator.timeout": {
		get: func(c *Config) string { return c.Narrator.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for narrator.timeout: %w", err)
			}
			c.Narrator.Timeout = v
			return nil
		},
	},
	"narrator.retries": uintKey("narrator.retries", func(c *Config) *uint { return &c.Narrator.Retries }),

	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),

	"game.player_name": stringKey(func(c *Config) *string { return &c.Game.PlayerName }),
	"game.lore_file":   stringKey(func(c *Config) *string { return &c.Game.LoreFile }),
	"game.tables_file": stringKey(func(c *Config) *string { return &c.Game.TablesFile }),
	"game.prompt_dir":  stringKey(func(c *Config) *string { return &c.Game.PromptDir }),

	"trace.driver":        stringKey(func(c *Config) *string { return &c.Trace.Driver }),
	"trace.target":        stringKey(func(c *Config) *string { return &c.Trace.Target }),
	"trace.file":          stringKey(func(c *Config) *string { return &c.Trace.File }),
	"trace.kafka_brokers": stringKey(func(c *Config) *string { return &c.Trace.KafkaBrokers }),
	"trace.kafka_topic":   stringKey(func(c *Config) *string { return &c.Trace.KafkaTopic }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),
}
