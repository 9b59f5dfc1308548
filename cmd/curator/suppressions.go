package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/suppression"
)

func newSuppressionsCommand(ctx *commandContext) *cobra.Command {
	suppressionsCmd := &cobra.Command{
		Use:   "suppressions",
		Short: "Inspect the suppression history",
	}
	suppressionsCmd.AddCommand(newSuppressionsListCommand(ctx))
	suppressionsCmd.AddCommand(newSuppressionsClearCommand(ctx))
	return suppressionsCmd
}

func newSuppressionsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List suppressed matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSuppressionStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No suppressed matches.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.TorrentTitle,
					e.CandidateName,
					formatScore(e.Similarity),
					fmt.Sprintf("%d", e.Count),
					e.LastSuppressed.Local().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Torrent", "Candidate", "Score", "Count", "Last Suppressed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newSuppressionsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all suppression history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSuppressionStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d suppression entries.\n", removed)
			return nil
		},
	}
}

func openSuppressionStore(ctx *commandContext) (*suppression.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return suppression.Open(cfg.DatabasePath())
}
