package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/library"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var showCandidates bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List unorganized library entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			scanner := library.NewScanner(cfg.Paths.LibraryDir, cfg.Paths.ExcludeDirs, cfg.Matching.Threshold)
			out := cmd.OutOrStdout()

			if showCandidates {
				candidates, err := scanner.ScanCandidates()
				if err != nil {
					return fmt.Errorf("scan candidates: %w", err)
				}
				if len(candidates) == 0 {
					fmt.Fprintln(out, "No match candidates found.")
					return nil
				}
				rows := make([][]string, 0, len(candidates))
				for _, c := range candidates {
					rows = append(rows, []string{
						c.Name,
						string(c.Kind),
						fmt.Sprintf("%d", c.VideoCount),
						c.DownloadPath,
					})
				}
				printHeading(out, fmt.Sprintf("Match candidates in %s", cfg.Paths.LibraryDir))
				fmt.Fprintln(out, renderTable(
					[]string{"Name", "Kind", "Videos", "Download Path"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			}

			entries, err := scanner.ScanTopLevel()
			if err != nil {
				return fmt.Errorf("scan library: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "Library has no unorganized entries.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				kind := "file"
				size := humanSize(e.SizeBytes)
				if e.IsDir {
					kind = "folder"
					size = "-"
				}
				rows = append(rows, []string{e.Name, e.DisplayTitle, kind, size})
			}
			printHeading(out, fmt.Sprintf("Unorganized entries in %s", cfg.Paths.LibraryDir))
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Title", "Type", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showCandidates, "candidates", false, "List reconciliation candidates instead of top level entries")
	return cmd
}
