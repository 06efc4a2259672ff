package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// connectionCmd is the parent command for connection operations.
var connectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "Inspect ticketing connections",
}

// connectionTestCmd checks the stored credentials of one connection.
var connectionTestCmd = &cobra.Command{
	Use:   "test <ticketing-system-id>",
	Short: "Check that a connection's credentials are accepted by its provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		connected, err := a.sync.TestConnection(ctx, args[0])
		if err != nil {
			return err
		}
		if !connected {
			return fmt.Errorf("ticketing system %s rejected the stored credentials", args[0])
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ticketing system %s: connected\n", args[0])
		return nil
	},
}

func init() {
	connectionCmd.AddCommand(connectionTestCmd)
	RootCmd.AddCommand(connectionCmd)
}
