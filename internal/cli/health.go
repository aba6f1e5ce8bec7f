package cli

import (
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe each upstream provider and print a status report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Health(cmd.Context())
	},
}
