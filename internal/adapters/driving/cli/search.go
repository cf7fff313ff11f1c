package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes semantically",
	Long: `Embeds the query and ranks your notes by vector similarity.
Results are scored in [0,1]; higher is more similar.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	topK := searchTopK
	if topK == 0 {
		topK = appSettings.Retrieval.TopK
	}

	candidates, err := searchService.Search(context.Background(), ownerID(), args[0], topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(candidates, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputSearchResults(cmd, candidates)
}

func outputSearchResults(cmd *cobra.Command, candidates []domain.RetrievalCandidate) error {
	if len(candidates) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range candidates {
		cmd.Printf("  [%d] %s (%.2f)\n", candidates[i].NoteID, candidates[i].Title, candidates[i].Similarity)
		if candidates[i].Excerpt != "" {
			cmd.Printf("      %s\n", candidates[i].Excerpt)
		}
		cmd.Println()
	}
	return nil
}
