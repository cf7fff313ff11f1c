package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API (LLM only).
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if this provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the expected vector size. Every stored vector must
	// match it exactly.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds answer model configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI and Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds tunable retrieval and answer constants.
// These are heuristics, not protocol; defaults match the shipped prompt.
type RetrievalSettings struct {
	// TopK is the default number of candidates to retrieve.
	TopK int

	// ExcerptLength is the maximum excerpt size in characters.
	ExcerptLength int

	// ContextBudget is the token budget for assembled context.
	ContextBudget int

	// MaxAnswerTokens caps the generated answer length.
	MaxAnswerTokens int
}

// AppSettings is the complete application configuration, constructed
// explicitly at startup and passed to component constructors. There is no
// process-wide mutable settings state.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings

	// OwnerID is the local vault owner identity. Authentication is
	// outside the core; the CLI resolves this from config or flag.
	OwnerID string
}

// DefaultAppSettings returns sensible defaults for a fresh install.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOpenAI,
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		Retrieval: RetrievalSettings{
			TopK:            5,
			ExcerptLength:   200,
			ContextBudget:   800,
			MaxAnswerTokens: 1000,
		},
		OwnerID: "local",
	}
}

// Validate checks settings for internal consistency.
func (s *AppSettings) Validate() error {
	if s.Retrieval.TopK < MinTopK || s.Retrieval.TopK > MaxTopK {
		return ErrInvalidTopK
	}
	if s.Retrieval.ContextBudget < 1 {
		return ErrInvalidBudget
	}
	if s.Embedding.Dimensions < 1 {
		return ErrInvalidInput
	}
	return nil
}
