package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep-overdue",
	Short: "Mark past-due payments and invoices as overdue once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		res, err := a.svc.SweepOverdue(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep overdue: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "payments marked overdue: %d\ninvoices marked overdue: %d\n", res.Payments, res.Invoices)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
