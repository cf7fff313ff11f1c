// Package cli implements the command-line interface for Vaulted.
// Commands are thin adapters over the core services; all wiring happens
// once in the root command's PersistentPreRunE.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vaulted-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/vaulted-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vaulted-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vaulted-cli/internal/core/services"
	"github.com/custodia-labs/vaulted-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags.
var (
	flagVerbose bool
	flagOwner   string
	flagDataDir string
)

// Wired services, available to all subcommands after PersistentPreRunE.
var (
	appSettings     *domain.AppSettings
	settingsService driving.SettingsService
	noteService     driving.NoteService
	searchService   driving.SearchService
	answerService   driving.AnswerService
	evalService     driving.EvalService

	store            *sqlite.Store
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
)

var rootCmd = &cobra.Command{
	Use:   "vaulted",
	Short: "Personal knowledge vault with semantic search",
	Long: `Vaulted stores your notes locally and retrieves them semantically.

Notes are embedded on save; search ranks them by vector similarity and
ask generates answers grounded in your own notes, with citations.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagOwner, "owner", "", "vault owner identity (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.vaulted/data)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices wires adapters to core services before any command runs.
// Embedding and LLM services are optional: when a provider is not
// configured or cannot be created, commands that need it fail with a
// domain error while note CRUD keeps working.
func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)

	// Version needs no wiring.
	if cmd.Name() == "version" {
		return nil
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	settingsService = services.NewSettingsService(configStore)

	appSettings, err = settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if flagOwner != "" {
		appSettings.OwnerID = flagOwner
	}

	store, err = sqlite.NewStore(flagDataDir)
	if err != nil {
		return fmt.Errorf("open vault store: %w", err)
	}
	noteStore := store.NoteStore()
	vectorIndex := store.VectorIndex(appSettings.Embedding.Dimensions)

	embeddingService, err = ai.CreateEmbeddingService(&appSettings.Embedding)
	if err != nil {
		logger.Warn("Embedding provider unavailable: %v", err)
		embeddingService = nil
	}
	llmService, err = ai.CreateLLMService(&appSettings.LLM)
	if err != nil {
		logger.Warn("LLM provider unavailable: %v", err)
		llmService = nil
	}

	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	search := services.NewSearchService(
		noteStore, vectorIndex, embeddingService, appSettings.Retrieval.ExcerptLength)
	searchService = search
	answerService = services.NewAnswerService(
		search, services.NewContextAssembler(), llmService, promptStore, appSettings.Retrieval)
	noteService = services.NewNoteService(noteStore, vectorIndex, embeddingService)
	evalService = services.NewEvalService(search)

	return nil
}

// closeServices releases adapter resources after the command finishes.
func closeServices() {
	if embeddingService != nil {
		embeddingService.Close()
	}
	if llmService != nil {
		llmService.Close()
	}
	if store != nil {
		store.Close()
	}
}

// ownerID returns the effective vault owner for this invocation.
func ownerID() string {
	if appSettings != nil {
		return appSettings.OwnerID
	}
	return "local"
}
