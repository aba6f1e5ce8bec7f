package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateSymbol    string
	simulatePrice     float64
	simulateChange24h float64
	simulateFearGreed int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次信号融合并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePrice <= 0 {
			return errors.New("--price 必须大于 0")
		}
		if simulateFearGreed < 0 || simulateFearGreed > 100 {
			return errors.New("--fear-greed 必须在 0 到 100 之间")
		}

		price := decimal.NewFromFloat(simulatePrice)
		return getApp().SimulateAlert(cmd.Context(), simulateSymbol, price, simulateChange24h, simulateFearGreed)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSymbol, "symbol", "BTC", "模拟的币种符号")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "模拟的现价 (USD)")
	simulateCmd.Flags().Float64Var(&simulateChange24h, "change-24h", 0, "模拟的 24h 涨跌幅 (%)")
	simulateCmd.Flags().IntVar(&simulateFearGreed, "fear-greed", 50, "模拟的恐惧贪婪指数")
}
