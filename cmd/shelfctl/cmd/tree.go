package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"video-shelf/internal/library"
)

func newTreeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Display the folder and playlist tree",
		Long: `Display every folder and playlist with its video count.
Playlists in the saved selection are marked with '*'.

Example:
  shelfctl tree`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := a.savedSelection(cmd.Context())
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), a.lib.Root(), 0, selected)
			return nil
		},
	}
}

func printTree(w io.Writer, f *library.Folder, depth int, selected map[string]bool) {
	indent := strings.Repeat("  ", depth)
	for _, child := range f.Folders() {
		fmt.Fprintf(w, "%s%s/\n", indent, child.Name())
		printTree(w, child, depth+1, selected)
	}
	for _, p := range f.Playlists() {
		mark := " "
		if selected[p.RelPath()] {
			mark = "*"
		}
		fmt.Fprintf(w, "%s%s %s (%d)\n", indent, mark, p.Name(), p.VideoCount())
	}
}
