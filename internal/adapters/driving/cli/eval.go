package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vaulted-cli/internal/core/services"
)

var (
	evalDataset string
	evalK       int
	evalJSON    bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score retrieval quality against a labelled dataset",
	Long: `Runs every query in the dataset through search and reports
precision@k, recall@k, MRR and mean latency. The dataset is a JSON
array of {"query": ..., "relevant_note_ids": [...]} objects.`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalDataset, "dataset", "d", "", "path to the eval dataset JSON (required)")
	evalCmd.Flags().IntVarP(&evalK, "k", "k", 0, "cutoff rank (default from settings)")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output the report as JSON")
	_ = evalCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	queries, err := services.LoadDataset(evalDataset)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	k := evalK
	if k == 0 {
		k = appSettings.Retrieval.TopK
	}

	report, err := evalService.Run(context.Background(), ownerID(), queries, k)
	if err != nil {
		return fmt.Errorf("eval failed: %w", err)
	}

	if evalJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Eval run %s\n", report.RunID)
	cmd.Printf("  Queries:      %d\n", report.TotalQueries)
	cmd.Printf("  Precision@%d: %.3f\n", report.K, report.MeanPrecisionAtK)
	cmd.Printf("  Recall@%d:    %.3f\n", report.K, report.MeanRecallAtK)
	cmd.Printf("  MRR:          %.3f\n", report.MRR)
	cmd.Printf("  Mean latency: %.1fms\n", report.MeanLatencyMs)
	return nil
}
