package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Embed notes that are missing vectors",
	Long: `Finds notes saved without an embedding (for example while the
provider was down) and embeds them in batches. Already-indexed notes
are left untouched.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	count, err := noteService.Reindex(context.Background(), ownerID())
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	if count == 0 {
		cmd.Println("All notes are already indexed.")
		return nil
	}
	cmd.Printf("Indexed %d notes.\n", count)
	return nil
}
