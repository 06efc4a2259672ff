package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkOnly bool

// migrateCmd creates or verifies the ledger tables.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the ledger tables",
	Long: `Creates or updates the ticketing ledger tables.

With --check nothing is written: the command lists the columns missing from the
database and fails when there are any.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, l, err := loadConfigAndLogger()
		if err != nil {
			return err
		}
		defer func() { _ = l.Sync() }()

		st, err := openStore(cfg, l)
		if err != nil {
			return err
		}

		if !checkOnly {
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			l.Info("Migration complete")
			return nil
		}

		missing, err := st.CheckSchema(ctx)
		if err != nil {
			return err
		}
		if len(missing) == 0 {
			l.Info("Schema is up to date")
			return nil
		}

		tables := make([]string, 0, len(missing))
		for table := range missing {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			l.Warn("Missing columns", zap.String("table", table), zap.Strings("columns", missing[table]))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", table, strings.Join(missing[table], ", "))
		}
		return fmt.Errorf("schema is missing columns in %d table(s)", len(tables))
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only report missing columns")
	RootCmd.AddCommand(migrateCmd)
}
