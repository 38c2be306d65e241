package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"recession-meter/internal/app"
)

var (
	showCountry string
	showLimit   int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent risk scores and events",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Country: showCountry,
			Limit:   showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showCountry, "country", "USA", "Country dataset to display")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of scores to display")
}
