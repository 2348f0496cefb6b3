package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"video-shelf/internal/library"
)

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <playlist> <link>...",
		Short: "Add videos to a playlist",
		Long: `Fetch metadata for each link and add the videos to the playlist.
Links already in the playlist are skipped. A '-' argument reads text from
stdin and adds every link found in it.

Examples:
  shelfctl add Music/Live https://example.com/v/abc
  pbpaste | shelfctl add Music/Live -`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.lib.FindPlaylist(args[0])
			if err != nil {
				return err
			}

			var links []string
			for _, arg := range args[1:] {
				if arg != "-" {
					links = append(links, arg)
					continue
				}
				text, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				links = append(links, library.ExtractLinks(string(text))...)
			}
			if len(links) == 0 {
				return fmt.Errorf("no links given")
			}

			res := library.AddLinks(cmd.Context(), p, a.fetcher, links)
			printAddResult(cmd.OutOrStdout(), p, res)
			if len(res.Added) == 0 && len(res.Errors) > 0 {
				return fmt.Errorf("no videos added")
			}
			return nil
		},
	}
}

func printAddResult(w io.Writer, p *library.Playlist, res library.AddResult) {
	for _, link := range res.Added {
		fmt.Fprintf(w, "added    %s\n", link)
	}
	for _, link := range res.Skipped {
		fmt.Fprintf(w, "skipped  %s\n", link)
	}
	failed := make([]string, 0, len(res.Errors))
	for link := range res.Errors {
		failed = append(failed, link)
	}
	sort.Strings(failed)
	for _, link := range failed {
		fmt.Fprintf(w, "failed   %s: %s\n", link, res.Errors[link])
	}
	fmt.Fprintf(w, "%s: %d added, %d skipped, %d failed\n",
		p.RelPath(), len(res.Added), len(res.Skipped), len(res.Errors))
}
