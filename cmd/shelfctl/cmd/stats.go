package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand(a *app) *cobra.Command {
	var history int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Long: `Show folder, playlist and video counts. With --history, also list the
snapshots the server recorded in the settings database.

Examples:
  shelfctl stats
  shelfctl stats --history 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s := a.lib.Stats()
			fmt.Fprintf(out, "Folders:   %d\n", s.Folders)
			fmt.Fprintf(out, "Playlists: %d\n", s.Playlists)
			fmt.Fprintf(out, "Videos:    %d distinct, %d stored\n", s.Videos, s.Stored)
			if a.db != nil {
				last, err := a.db.GetLastAutosave(cmd.Context())
				if err != nil {
					return fmt.Errorf("load last autosave: %w", err)
				}
				if !last.IsZero() {
					fmt.Fprintf(out, "Saved:     %s\n", last.Local().Format("2006-01-02 15:04"))
				}
			}

			if history <= 0 {
				return nil
			}
			if a.db == nil {
				return fmt.Errorf("--history needs a settings database")
			}
			snapshots, err := a.db.LibraryStatsHistory(cmd.Context(), history)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			fmt.Fprintln(out)
			for _, h := range snapshots {
				fmt.Fprintf(out, "%s  playlists=%d videos=%d stored=%d selected=%d\n",
					h.CreatedAt.Local().Format("2006-01-02 15:04"), h.Playlists, h.Videos, h.Stored, h.Selected)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "number of recorded snapshots to list")
	return cmd
}
