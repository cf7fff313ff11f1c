package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

func TestCreateEmbeddingService_NotConfigured(t *testing.T) {
	svc, err := CreateEmbeddingService(nil)
	require.NoError(t, err)
	assert.Nil(t, svc)

	// OpenAI without an API key is not configured.
	svc, err = CreateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI})
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateEmbeddingService_Ollama(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider:   domain.AIProviderOllama,
		Model:      "nomic-embed-text",
		Dimensions: 768,
	})
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())
	assert.NoError(t, svc.Close())
}

func TestCreateEmbeddingService_OpenAI(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider:   domain.AIProviderOpenAI,
		Model:      "text-embedding-3-small",
		APIKey:     "sk-test",
		Dimensions: 1536,
	})
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, 1536, svc.Dimensions())
	assert.NoError(t, svc.Close())
}

func TestCreateLLMService_NotConfigured(t *testing.T) {
	svc, err := CreateLLMService(nil)
	require.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderAnthropic})
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateLLMService_AllProviders(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.LLMSettings
	}{
		{"ollama", domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}},
		{"openai", domain.LLMSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test"}},
		{"anthropic", domain.LLMSettings{Provider: domain.AIProviderAnthropic, Model: "claude-3-5-sonnet-latest", APIKey: "sk-ant"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(&tt.settings)
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}
