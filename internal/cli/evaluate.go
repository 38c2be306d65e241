package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"recession-meter/internal/app"
)

var (
	evaluateCountries []string
	evaluateTailRows  int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate recession risk once for the configured datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if evaluateTailRows <= 0 {
			return fmt.Errorf("--tail must be greater than zero")
		}

		opts := app.EvaluateOptions{
			Countries: evaluateCountries,
			TailRows:  evaluateTailRows,
		}

		return getApp().Evaluate(cmd.Context(), opts)
	},
}

func init() {
	evaluateCmd.Flags().StringSliceVar(&evaluateCountries, "country", nil, "Countries to evaluate (defaults to all configured)")
	evaluateCmd.Flags().IntVar(&evaluateTailRows, "tail", 10, "Number of trailing scores to display")
}
