package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and maintain the delivery ledger",
}

var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		total, err := st.Count(ctx)
		if err != nil {
			return eris.Wrap(err, "ledger count")
		}
		snap, err := st.Snapshot(ctx, cfg.Ledger.Horizon())
		if err != nil {
			return eris.Wrap(err, "ledger snapshot")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"driver":         cfg.Ledger.Driver,
			"total_entries":  total,
			"within_horizon": snap.Len(),
			"horizon_days":   cfg.Ledger.HorizonDays,
		})
	},
}

var ledgerPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete entries older than the suppression horizon",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		pruned, err := st.PruneExpired(ctx, cfg.Ledger.Horizon())
		if err != nil {
			return eris.Wrap(err, "ledger prune")
		}
		zap.L().Info("ledger pruned",
			zap.Int("removed", pruned),
			zap.Int("horizon_days", cfg.Ledger.HorizonDays),
		)
		return nil
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerStatusCmd)
	ledgerCmd.AddCommand(ledgerPruneCmd)
	rootCmd.AddCommand(ledgerCmd)
}
