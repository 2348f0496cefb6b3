package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"video-shelf/internal/database"
	"video-shelf/internal/library"
	"video-shelf/internal/logging"
	"video-shelf/internal/startup"
)

// closeTimeout bounds the final playlist save.
const closeTimeout = 30 * time.Second

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// app holds what every command shares. The library and database are opened
// by the root command before a subcommand runs.
type app struct {
	libraryDir   string
	databasePath string
	verbose      bool

	fetcher   library.MetadataFetcher
	clipboard Clipboard
	// width of the output in columns; zero means unlimited.
	width int

	lib *library.Library
	db  *database.Database
}

// NewRootCommand builds the command tree. fetcher and clip may be nil to use
// the file fetcher and the system clipboard.
func NewRootCommand(fetcher library.MetadataFetcher, clip Clipboard) *cobra.Command {
	if fetcher == nil {
		fetcher = library.NewFileMetadataFetcher()
	}
	if clip == nil {
		clip = systemClipboard{}
	}
	a := &app{fetcher: fetcher, clipboard: clip}

	root := &cobra.Command{
		Use:   "shelfctl",
		Short: "Manage a video-shelf playlist library from the terminal",
		Long: `shelfctl works directly on a video-shelf library directory.

It lists the folder tree, searches videos, adds links to playlists,
imports WPL and M3U playlists and shows statistics. Do not run it against
a library the server is writing at the same moment; the server picks up
the changed files when WATCH_ENABLED is on.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			if !a.verbose {
				logging.SetLevel(logging.LevelWarn)
			}
			return a.open(cmd.Context(), cmd.OutOrStdout())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	if err := startup.LoadEnvFiles(); err != nil {
		logging.Warn("Failed to load .env: %v", err)
	}
	root.PersistentFlags().StringVarP(&a.libraryDir, "library", "l", envOr("LIBRARY_DIR", "./library"), "library directory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log library activity to stderr")
	root.PersistentFlags().StringVar(&a.databasePath, "database", defaultDatabasePath(), "settings database; empty disables it")

	root.AddCommand(
		newTreeCommand(a),
		newSearchCommand(a),
		newAddCommand(a),
		newImportCommand(a),
		newStatsCommand(a),
		newWatchClipboardCommand(a),
	)
	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(nil, nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) open(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lib, err := library.Open(ctx, a.libraryDir, library.Options{AutosaveInterval: -1})
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	a.lib = lib

	if a.databasePath != "" {
		if _, err := os.Stat(a.databasePath); err == nil {
			db, err := database.New(ctx, a.databasePath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			a.db = db
		}
	}
	a.width = terminalWidth(out)
	return nil
}

func (a *app) close() error {
	var first error
	if a.lib != nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := a.lib.Close(ctx); err != nil {
			first = fmt.Errorf("save playlists: %w", err)
		}
		a.lib = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && first == nil {
			first = err
		}
		a.db = nil
	}
	return first
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultDatabasePath() string {
	return filepath.Join(envOr("DATABASE_DIR", "./data"), database.FileName)
}

// savedSelection returns the playlist paths stored as selected, if a
// database is open.
func (a *app) savedSelection(ctx context.Context) (map[string]bool, error) {
	selected := make(map[string]bool)
	if a.db == nil {
		return selected, nil
	}
	paths, err := a.db.LoadSelection(ctx)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	for _, p := range paths {
		selected[p] = true
	}
	return selected, nil
}
