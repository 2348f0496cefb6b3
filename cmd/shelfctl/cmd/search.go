package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"video-shelf/internal/database"
	"video-shelf/internal/library"
	"video-shelf/internal/search"
	"video-shelf/internal/session"
)

type searchOptions struct {
	query       search.Query
	order       string
	sensitivity float64
	playlists   []string
	limit       int
	copy        bool
	json        bool
}

func newSearchCommand(a *app) *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search [title]",
		Short: "Search videos",
		Long: `Search the videos of the selected playlists, or of the whole library
when nothing is selected. The saved selection and sort order from the
settings database apply unless --playlist or --sort is given.

Duration and date filters take a '<' or '>' bound:
  --duration '>10:00'   longer than ten minutes
  --date '<2020-06'     uploaded before June 2020

Examples:
  shelfctl search "live set"
  shelfctl search --uploader ann --sort -date --limit 20
  shelfctl search --playlist Music/Live --copy`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.query.Title = args[0]
			}
			return a.search(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.query.Uploader, "uploader", "", "uploader name contains")
	f.StringVar(&opts.query.Duration, "duration", "", "duration bound, e.g. '>4:00'")
	f.StringVar(&opts.query.Date, "date", "", "upload date bound, e.g. '<2021-03-01'")
	f.StringVarP(&opts.order, "sort", "s", "", "sort order: title, uploader, duration or date, '-' prefix for descending")
	f.Float64Var(&opts.sensitivity, "sensitivity", 0, "title similarity threshold between 0 and 1")
	f.StringSliceVarP(&opts.playlists, "playlist", "p", nil, "search only these playlists")
	f.IntVarP(&opts.limit, "limit", "n", 50, "maximum results to print, 0 for all")
	f.BoolVar(&opts.copy, "copy", false, "copy the printed URLs to the clipboard")
	f.BoolVar(&opts.json, "json", false, "print results as JSON")
	return cmd
}

func (a *app) search(cmd *cobra.Command, opts searchOptions) error {
	ctx := cmd.Context()
	var sessOpts session.Options
	if a.db != nil {
		sessOpts.Store = readOnlyStore{a.db}
	}
	sess := session.New(ctx, a.lib, sessOpts)

	if opts.order != "" {
		order, err := search.ParseOrder(opts.order)
		if err != nil {
			return err
		}
		sess.SetOrder(order)
	}
	if cmd.Flags().Changed("sensitivity") {
		sess.SetSensitivity(opts.sensitivity)
	}
	sess.SetQuery(opts.query)

	if len(opts.playlists) > 0 {
		var selected []*library.Playlist
		for _, path := range opts.playlists {
			p, err := a.lib.FindPlaylist(path)
			if err != nil {
				return err
			}
			selected = append(selected, p)
		}
		a.lib.SetSelection(selected)
	}

	if err := sess.Settle(ctx); err != nil {
		return err
	}
	res := sess.Results()
	if res == nil {
		return fmt.Errorf("search did not complete")
	}

	items := res.Items
	if opts.limit > 0 && len(items) > opts.limit {
		items = items[:opts.limit]
	}

	out := cmd.OutOrStdout()
	if opts.json {
		videos := search.Videos(items)
		if videos == nil {
			videos = []*library.Video{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(videos); err != nil {
			return err
		}
	} else {
		printResults(out, items, a.width)
		fmt.Fprintf(out, "%d of %d matches (%d candidates)\n", len(items), len(res.Items), res.Candidates)
	}

	if opts.copy && len(items) > 0 {
		urls := make([]string, len(items))
		for i, item := range items {
			urls[i] = item.Video.URL()
		}
		if err := a.clipboard.WriteAll(strings.Join(urls, "\n")); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Copied %d URLs\n", len(urls))
	}
	return nil
}

const (
	uploaderColumn = 20
	durationColumn = 8
)

// printResults writes one line per result: title, uploader, duration and
// URL. With a known width the title absorbs the shortage.
func printResults(w io.Writer, items []search.Result, width int) {
	for _, item := range items {
		v := item.Video
		title := v.Title
		if width > 0 {
			room := width - uploaderColumn - durationColumn - len(v.URL()) - 6
			title = truncate(title, max(room, 10))
		}
		fmt.Fprintf(w, "%s  %-*s  %*s  %s\n",
			title,
			uploaderColumn, truncate(v.UploaderName, uploaderColumn),
			durationColumn, formatDuration(v.Duration),
			v.URL())
	}
}

// readOnlyStore restores the server's settings and selection without
// writing back what a one-off search changes.
type readOnlyStore struct {
	*database.Database
}

func (readOnlyStore) SaveSettings(context.Context, database.Settings) error         { return nil }
func (readOnlyStore) SaveSelection(context.Context, []string) error                 { return nil }
func (readOnlyStore) SaveLibraryStats(context.Context, database.LibraryStats) error { return nil }
