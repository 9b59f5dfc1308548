package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/library"
	"curator/internal/reconcile"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var add bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match pending torrents against the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close()
			out := cmd.OutOrStdout()

			result, err := rt.service.MatchTorrents(cmd.Context())
			if err != nil {
				return err
			}
			if len(result.Matches) == 0 && len(result.Unmatched) == 0 {
				fmt.Fprintln(out, "No pending torrents found.")
				return nil
			}

			if len(result.Matches) > 0 {
				rows := make([][]string, 0, len(result.Matches))
				for _, m := range result.Matches {
					rows = append(rows, []string{
						m.Torrent.Name,
						m.Torrent.Title,
						m.Candidate.Name,
						formatScore(m.Similarity),
						yesNo(m.Selected),
					})
				}
				printHeading(out, fmt.Sprintf("%d matched, %d unmatched", len(result.Matches), len(result.Unmatched)))
				fmt.Fprintln(out, renderTable(
					[]string{"Torrent", "Title", "Candidate", "Score", "Selected"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
			}
			if len(result.Unmatched) > 0 {
				rows := make([][]string, 0, len(result.Unmatched))
				for _, t := range result.Unmatched {
					rows = append(rows, []string{t.Name, t.Title, humanSize(t.Size)})
				}
				printHeading(out, "Unmatched torrents")
				fmt.Fprintln(out, renderTable(
					[]string{"Torrent", "Title", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
			}

			if !add {
				return nil
			}
			added, err := rt.service.AddTorrents(cmd.Context(), result.Matches)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(added))
			for _, a := range added {
				status := a.Tag
				if a.Error != "" {
					status = "error: " + a.Error
				}
				rows = append(rows, []string{a.Torrent, status})
			}
			printHeading(out, "Submitted to qBittorrent")
			fmt.Fprintln(out, renderTable(
				[]string{"Torrent", "Verification Tag"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&add, "add", false, "Submit selected matches to qBittorrent")
	cmd.AddCommand(newReconcileSuppressCommand(ctx))
	return cmd
}

func newReconcileSuppressCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "suppress <torrent-title> <candidate-name> <similarity>",
		Short: "Suppress a torrent-to-candidate pairing",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			similarity, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("parse similarity %q: %w", args[2], err)
			}
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			match := reconcile.Match{
				Torrent:    reconcile.Torrent{Title: args[0]},
				Candidate:  library.Candidate{Name: args[1]},
				Similarity: similarity,
			}
			if err := rt.service.SuppressMatch(cmd.Context(), match); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Suppressed %q against %q at %s\n",
				args[0], args[1], formatScore(similarity))
			return nil
		},
	}
}
