package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered from your notes",
	Long: `Runs the full pipeline: retrieves relevant notes, assembles a
context within the token budget, and generates an answer citing the
notes it drew from. Requires a configured LLM provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	answer, err := answerService.Ask(context.Background(), ownerID(), args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range answer.Citations {
			cmd.Printf("  [%d] %s (note %d, %.2f)\n", c.Marker, c.Title, c.NoteID, c.Similarity)
		}
	}
	return nil
}
