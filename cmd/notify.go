package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send changes that have not been notified yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootApp(cmd.Context(), cmd)
		if err != nil {
			bootstrapLogger.Error("app init failed", zap.Error(err))
			return err
		}
		defer shutdownApp(a)

		n, err := a.Notify(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%d changes notified\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
