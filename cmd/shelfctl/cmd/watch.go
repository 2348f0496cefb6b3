package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"video-shelf/internal/library"
	"video-shelf/internal/logging"
)

// ClipboardWatcher polls Read and calls OnText whenever the text changes.
// The text present when Run starts is not reported.
type ClipboardWatcher struct {
	Read     func() (string, error)
	Interval time.Duration
	OnText   func(text string)
}

// Run polls until ctx is done.
func (w *ClipboardWatcher) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Second
	}

	last, err := w.Read()
	if err != nil {
		return fmt.Errorf("read clipboard: %w", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			text, err := w.Read()
			if err != nil {
				logging.Debug("Clipboard read failed: %v", err)
				continue
			}
			if text == last || text == "" {
				continue
			}
			last = text
			w.OnText(text)
		}
	}
}

func newWatchClipboardCommand(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch-clipboard <playlist>",
		Short: "Add links copied to the clipboard to a playlist",
		Long: `Watch the clipboard and add every link copied while the command runs
to the playlist. The playlist is saved after each batch. Stop with Ctrl-C.

Example:
  shelfctl watch-clipboard Inbox --interval 500ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.lib.FindPlaylist(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching the clipboard for %s\n", p.RelPath())

			w := &ClipboardWatcher{
				Read:     a.clipboard.ReadAll,
				Interval: interval,
				OnText: func(text string) {
					links := library.ExtractLinks(text)
					if len(links) == 0 {
						return
					}
					printAddResult(out, p, library.AddLinks(ctx, p, a.fetcher, links))
					if err := a.lib.Flush(ctx); err != nil {
						logging.Warn("Failed to save %s: %v", p.RelPath(), err)
					}
				},
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "clipboard poll interval")
	return cmd
}
