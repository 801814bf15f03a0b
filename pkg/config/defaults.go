package config

const (
	defaultNarratorProvider = "ollama"
	defaultNarratorModel    = "llama3.2"
	defaultNarratorTimeout  = "60s"
	defaultNarratorRetries  = 2

	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "tales_memory"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultPlayerName = "Adventurer"

	defaultTraceDriver = "sqlite"
	defaultKafkaTopic  = "tales.turns.v1"

	defaultAPIListen = ":8090"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Narrator: NarratorConfig{
			Provider: defaultNarratorProvider,
			Model:    defaultNarratorModel,
			Timeout:  defaultNarratorTimeout,
			Retries:  defaultNarratorRetries,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Game: GameConfig{
			PlayerName: defaultPlayerName,
		},
		Trace: TraceConfig{
			Driver:     defaultTraceDriver,
			KafkaTopic: defaultKafkaTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
