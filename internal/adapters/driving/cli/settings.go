package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure providers, models and retrieval tuning.

Use 'settings show' to inspect the current configuration and
'settings set' with flags to change individual values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings values",
	Long: `Set one or more configuration values. Only flags that are
provided change; everything else keeps its current value.`,
	RunE: runSettingsSet,
}

// settings set flags.
var (
	setEmbedProvider string
	setEmbedModel    string
	setEmbedBaseURL  string
	setEmbedAPIKey   string
	setEmbedDims     int
	setLLMProvider   string
	setLLMModel      string
	setLLMBaseURL    string
	setLLMAPIKey     string
	setTopK          int
	setExcerptLen    int
	setBudget        int
	setMaxAnswer     int
	setOwner         string
)

func init() {
	flags := settingsSetCmd.Flags()
	flags.StringVar(&setEmbedProvider, "embedding-provider", "", "embedding provider (ollama, openai)")
	flags.StringVar(&setEmbedModel, "embedding-model", "", "embedding model name")
	flags.StringVar(&setEmbedBaseURL, "embedding-base-url", "", "embedding API base URL")
	flags.StringVar(&setEmbedAPIKey, "embedding-api-key", "", "embedding API key")
	flags.IntVar(&setEmbedDims, "embedding-dimensions", 0, "embedding vector size")
	flags.StringVar(&setLLMProvider, "llm-provider", "", "LLM provider (ollama, openai, anthropic)")
	flags.StringVar(&setLLMModel, "llm-model", "", "LLM model name")
	flags.StringVar(&setLLMBaseURL, "llm-base-url", "", "LLM API base URL")
	flags.StringVar(&setLLMAPIKey, "llm-api-key", "", "LLM API key")
	flags.IntVar(&setTopK, "top-k", 0, "default retrieval depth")
	flags.IntVar(&setExcerptLen, "excerpt-length", 0, "excerpt length in characters")
	flags.IntVar(&setBudget, "context-budget", 0, "context token budget")
	flags.IntVar(&setMaxAnswer, "max-answer-tokens", 0, "answer token cap")
	flags.StringVar(&setOwner, "set-owner", "", "vault owner identity")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	printStatus(cmd, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	printStatus(cmd, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top-K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Excerpt length: %d chars\n", settings.Retrieval.ExcerptLength)
	cmd.Printf("  Context budget: %d tokens\n", settings.Retrieval.ContextBudget)
	cmd.Printf("  Max answer tokens: %d\n", settings.Retrieval.MaxAnswerTokens)
	cmd.Println()

	cmd.Printf("Owner: %s\n", settings.OwnerID)
	return nil
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}

	if setEmbedProvider != "" {
		p := domain.AIProvider(strings.ToLower(setEmbedProvider))
		if !p.IsValid() || !p.SupportsEmbeddings() {
			return fmt.Errorf("invalid embedding provider %q", setEmbedProvider)
		}
		settings.Embedding.Provider = p
	}
	if setEmbedModel != "" {
		settings.Embedding.Model = setEmbedModel
	}
	if setEmbedBaseURL != "" {
		settings.Embedding.BaseURL = setEmbedBaseURL
	}
	if setEmbedAPIKey != "" {
		settings.Embedding.APIKey = setEmbedAPIKey
	}
	if setEmbedDims != 0 {
		settings.Embedding.Dimensions = setEmbedDims
	}

	if setLLMProvider != "" {
		p := domain.AIProvider(strings.ToLower(setLLMProvider))
		if !p.IsValid() {
			return fmt.Errorf("invalid LLM provider %q", setLLMProvider)
		}
		settings.LLM.Provider = p
	}
	if setLLMModel != "" {
		settings.LLM.Model = setLLMModel
	}
	if setLLMBaseURL != "" {
		settings.LLM.BaseURL = setLLMBaseURL
	}
	if setLLMAPIKey != "" {
		settings.LLM.APIKey = setLLMAPIKey
	}

	if setTopK != 0 {
		settings.Retrieval.TopK = setTopK
	}
	if setExcerptLen != 0 {
		settings.Retrieval.ExcerptLength = setExcerptLen
	}
	if setBudget != 0 {
		settings.Retrieval.ContextBudget = setBudget
	}
	if setMaxAnswer != 0 {
		settings.Retrieval.MaxAnswerTokens = setMaxAnswer
	}
	if setOwner != "" {
		settings.OwnerID = setOwner
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	cmd.Println("Settings saved.")
	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
}

func printStatus(cmd *cobra.Command, configured bool) {
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

// maskAPIKey hides all but the last four characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
