package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	simulateCountry  string
	simulateScore    float64
	simulateDelta    float64
	simulateDominant string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次风险骤升并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateScore < 0 || simulateScore > 100 {
			return errors.New("--score 必须位于 0 到 100 之间")
		}
		if simulateDelta <= 0 {
			return errors.New("--delta 必须大于 0")
		}

		return getApp().SimulateAlert(cmd.Context(), simulateCountry, simulateScore, simulateDelta, simulateDominant)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateCountry, "country", "USA", "数据集名称")
	simulateCmd.Flags().Float64Var(&simulateScore, "score", 50, "模拟的风险分数")
	simulateCmd.Flags().Float64Var(&simulateDelta, "delta", 10, "模拟的日间跳变")
	simulateCmd.Flags().StringVar(&simulateDominant, "dominant", "Unemployment", "主导指标名称")
}
