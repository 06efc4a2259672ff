package cmd

import (
	"encoding/json"
	"fmt"

	"ticketing-sync/feature/ticketing/synchronizer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd synchronizes one organization from the command line.
var syncCmd = &cobra.Command{
	Use:   "sync <organization-id>",
	Short: "Synchronize every active connection of an organization",
	Long: `Fetches every active ticketing connection of the organization, reconciles it with
the ledger and prints the JSON report. Exits non-zero when a connection failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.sync.Synchronize(ctx, args[0])
	if report != nil {
		if printErr := printReport(cmd, report); printErr != nil {
			return printErr
		}
		a.logger.Info("Synchronization report",
			zap.Int("connections", len(report.Connections)),
			zap.Int("failed", report.Failed()),
		)
	}
	return err
}

func printReport(cmd *cobra.Command, report *synchronizer.Report) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	return nil
}
