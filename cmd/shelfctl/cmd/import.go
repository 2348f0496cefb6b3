package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"video-shelf/internal/library"
	"video-shelf/internal/playlist"
)

type importOptions struct {
	folder    string
	name      string
	searchDir string
}

func newImportCommand(a *app) *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a WPL or M3U playlist",
		Long: `Create a playlist from a Windows Media Player (.wpl) or M3U playlist
file and add its entries. The playlist is named after the file's title
unless --name is given; an existing playlist of that name is extended.

File entries that cannot be found are listed and skipped. Use
--search-dir to look them up by name in another directory.

Examples:
  shelfctl import ~/Music/party.wpl --folder Music
  shelfctl import trip.m3u8 --name "Road trip" --search-dir /mnt/videos`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importPlaylist(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.folder, "folder", "", "folder to create the playlist in")
	cmd.Flags().StringVar(&opts.name, "name", "", "playlist name")
	cmd.Flags().StringVar(&opts.searchDir, "search-dir", "", "directory to find missing files in by name")
	return cmd
}

func (a *app) importPlaylist(cmd *cobra.Command, file string, opts importOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	im, err := playlist.ParseFile(file, opts.searchDir)
	if err != nil {
		return err
	}
	name := opts.name
	if name == "" {
		name = im.Name
	}
	if err := library.ValidateName(name); err != nil {
		return fmt.Errorf("playlist name %q: %w (use --name)", name, err)
	}

	folder, err := a.lib.FindFolder(opts.folder)
	if err != nil {
		return err
	}
	p, ok := folder.Playlist(name)
	if !ok {
		p, err = folder.CreatePlaylist(ctx, name)
		if err != nil {
			return err
		}
	}

	for _, missing := range im.Missing() {
		fmt.Fprintf(out, "missing  %s\n", missing)
	}
	links := im.Links()
	if len(links) == 0 {
		return fmt.Errorf("%s has no usable entries", file)
	}
	printAddResult(out, p, library.AddLinks(ctx, p, a.fetcher, links))
	return nil
}
