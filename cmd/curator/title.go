package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/title"
)

func newTitleCommand() *cobra.Command {
	var torrentMode bool

	cmd := &cobra.Command{
		Use:         "title <name>...",
		Short:       "Extract searchable titles from file or torrent names",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			for _, name := range args {
				var extracted string
				if torrentMode {
					extracted = title.FromTorrentName(name)
					if title.Rough(extracted) {
						extracted = title.FromTorrentNameAggressive(name)
					}
				} else {
					extracted = title.FromFilename(name)
				}
				rows = append(rows, []string{name, extracted})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Title"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&torrentMode, "torrent", false, "Treat names as torrent file names")
	return cmd
}
