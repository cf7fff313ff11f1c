package services

import (
	"fmt"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyOwnerID         = "owner.id"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyTopK            = "retrieval.top_k"
	keyExcerptLength   = "retrieval.excerpt_length"
	keyContextBudget   = "retrieval.context_budget"
	keyMaxAnswerTokens = "retrieval.max_answer_tokens"
)

// SettingsService manages application settings. The resulting
// AppSettings value is constructed once at startup and passed to the
// component constructors; nothing reads the store after that.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, with defaults applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:            s.getInt(keyTopK, defaults.Retrieval.TopK),
			ExcerptLength:   s.getInt(keyExcerptLength, defaults.Retrieval.ExcerptLength),
			ContextBudget:   s.getInt(keyContextBudget, defaults.Retrieval.ContextBudget),
			MaxAnswerTokens: s.getInt(keyMaxAnswerTokens, defaults.Retrieval.MaxAnswerTokens),
		},
		OwnerID: s.getString(keyOwnerID, defaults.OwnerID),
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if err := s.configStore.Set(keyOwnerID, settings.OwnerID); err != nil {
		return fmt.Errorf("save owner id: %w", err)
	}

	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyEmbedDimensions, settings.Embedding.Dimensions); err != nil {
		return fmt.Errorf("save embedding dimensions: %w", err)
	}

	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	if err := s.configStore.Set(keyTopK, settings.Retrieval.TopK); err != nil {
		return fmt.Errorf("save top_k: %w", err)
	}
	if err := s.configStore.Set(keyExcerptLength, settings.Retrieval.ExcerptLength); err != nil {
		return fmt.Errorf("save excerpt_length: %w", err)
	}
	if err := s.configStore.Set(keyContextBudget, settings.Retrieval.ContextBudget); err != nil {
		return fmt.Errorf("save context_budget: %w", err)
	}
	if err := s.configStore.Set(keyMaxAnswerTokens, settings.Retrieval.MaxAnswerTokens); err != nil {
		return fmt.Errorf("save max_answer_tokens: %w", err)
	}

	return nil
}

func (s *SettingsService) getString(key, fallback string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return fallback
}

func (s *SettingsService) getInt(key string, fallback int) int {
	if v := s.configStore.GetInt(key); v != 0 {
		return v
	}
	return fallback
}

func (s *SettingsService) getProvider(key string, fallback domain.AIProvider) domain.AIProvider {
	p := domain.AIProvider(s.configStore.GetString(key))
	if p.IsValid() {
		return p
	}
	return fallback
}
