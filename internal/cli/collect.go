package cli

import (
	"github.com/spf13/cobra"

	"crypto-signal-watch/internal/app"
)

var (
	collectSymbols []string
	collectJSON    bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection cycle and print the fused signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.CollectOptions{
			Symbols: collectSymbols,
			AsJSON:  collectJSON,
		}
		return getApp().Collect(cmd.Context(), opts)
	},
}

func init() {
	collectCmd.Flags().StringSliceVar(&collectSymbols, "symbols", nil, "Symbols to collect (defaults to config)")
	collectCmd.Flags().BoolVar(&collectJSON, "json", false, "Print signals as JSON")
}
