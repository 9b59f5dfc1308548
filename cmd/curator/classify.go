package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/title"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "classify [name]...",
		Short: "Classify library entries against the taxonomy",
		Long: "Classify looks up each named library entry on TMDB and reports the " +
			"taxonomy category it lands in. Without names every unorganized entry " +
			"is classified. With --apply matching entries are moved into their " +
			"category folders.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.close()
			out := cmd.OutOrStdout()

			if apply {
				results, err := rt.service.ProcessItems(cmd.Context(), args)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Fprintln(out, "Nothing to organize.")
					return nil
				}
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := r.TargetPath
					if r.Error != "" {
						status = "error: " + r.Error
					}
					rows = append(rows, []string{r.Name, r.Title, r.Category, status})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Name", "Title", "Category", "Result"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			}

			names := args
			if len(names) == 0 {
				entries, err := rt.scanner.ScanTopLevel()
				if err != nil {
					return fmt.Errorf("scan library: %w", err)
				}
				for _, e := range entries {
					names = append(names, e.Name)
				}
			}
			if len(names) == 0 {
				fmt.Fprintln(out, "Nothing to classify.")
				return nil
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				query := title.FromFilename(name)
				records, err := rt.search.Search(cmd.Context(), query)
				if err != nil {
					rows = append(rows, []string{name, query, "-", "error: " + err.Error()})
					continue
				}
				if len(records) == 0 {
					rows = append(rows, []string{name, query, "-", "no results"})
					continue
				}
				record := records[0]
				category := rt.taxonomy.Classify(record)
				rows = append(rows, []string{name, record.Title, string(record.Kind), category})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Title", "Kind", "Category"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Move classified entries into their category folders")
	return cmd
}
