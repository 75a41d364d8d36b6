package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/qdl-tool/qdl/internal/catalog"
	"github.com/qdl-tool/qdl/internal/config"
	"github.com/qdl-tool/qdl/internal/engine"
	"github.com/qdl-tool/qdl/internal/exitcode"
	"github.com/qdl-tool/qdl/internal/fetch"
	"github.com/qdl-tool/qdl/internal/lastfm"
	"github.com/qdl-tool/qdl/internal/media"
)

func newDownloadCommand(app *AppContext) *cobra.Command {
	var quality int
	var directory string
	var noDB bool
	var noFallback bool
	var albumsOnly bool
	var smartDiscography bool
	var noM3U bool
	var concurrency int
	var namingMode string

	cmd := &cobra.Command{
		Use:   "dl <url|file> [more...]",
		Short: "Download catalog URLs, reference files and last.fm playlists",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			if cmd.Flags().Changed("quality") {
				cfg.Quality = quality
			}
			if cmd.Flags().Changed("directory") {
				cfg.Directory = directory
			}
			if noDB {
				cfg.NoDatabase = true
			}
			if noFallback {
				cfg.QualityFallback = false
			}
			if cmd.Flags().Changed("albums-only") {
				cfg.AlbumsOnly = albumsOnly
			}
			if cmd.Flags().Changed("smart-discography") {
				cfg.SmartDiscography = smartDiscography
			}
			if noM3U {
				cfg.NoPlaylistIndex = true
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if cmd.Flags().Changed("naming-mode") {
				cfg.NamingMode = namingMode
			}

			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			tier, err := fetch.ParseTier(cfg.Quality)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}

			pipe, err := buildPipeline(app, cfg)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			defer pipe.Close()

			ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
			defer stop()

			references, err := resolveLastFMReferences(ctx, app, pipe.Client, args)
			if err != nil {
				return withExitCode(exitcode.Interrupted, err)
			}

			defer media.SweepLeftovers(pipe.BaseDir)

			result, runErr := pipe.Downloader.Run(ctx, references, engine.Options{
				BaseDir:          pipe.BaseDir,
				Quality:          tier,
				SmartDiscography: cfg.SmartDiscography,
				AlbumsOnly:       cfg.AlbumsOnly,
				NoPlaylistIndex:  cfg.NoPlaylistIndex,
				Concurrency:      cfg.Concurrency,
				NamingMode:       cfg.NamingMode,
				DryRun:           app.Opts.DryRun,
			})
			if runErr != nil {
				if errors.Is(runErr, engine.ErrInterrupted) {
					return withExitCode(exitcode.Interrupted, runErr)
				}
				return withExitCode(exitcode.RuntimeFailure, runErr)
			}
			if result.Failed > 0 {
				return withExitCode(exitcode.PartialSuccess, fmt.Errorf("%d of %d items failed", result.Failed, result.Total))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&quality, "quality", 0, "Quality tier (5=MP3 320, 6=CD, 7=Hi-Res <=96kHz, 27=Hi-Res >96kHz)")
	cmd.Flags().StringVarP(&directory, "directory", "d", "", "Download directory")
	cmd.Flags().BoolVar(&noDB, "no-db", false, "Ignore the download ledger entirely")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "Fail instead of falling back to lower quality tiers")
	cmd.Flags().BoolVar(&albumsOnly, "albums-only", false, "Skip singles and EPs when expanding artists and labels")
	cmd.Flags().BoolVar(&smartDiscography, "smart-discography", false, "Filter near-duplicate releases from artist discographies")
	cmd.Flags().BoolVar(&noM3U, "no-m3u", false, "Skip writing .m3u files for playlists")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Simultaneous item downloads")
	cmd.Flags().StringVar(&namingMode, "naming-mode", "", "Naming profile override for this run")

	return cmd
}

// resolveLastFMReferences replaces every last.fm playlist URL in args
// with track references found by scraping the page and searching the
// catalog for each "artist title" pair. Other arguments pass through
// untouched. A failed scrape or search only loses that one page or
// query; sibling arguments still download. The only returned error is
// cancellation.
func resolveLastFMReferences(ctx context.Context, app *AppContext, client *catalog.Client, args []string) ([]string, error) {
	references := make([]string, 0, len(args))
	var scraper *lastfm.Scraper

	for _, arg := range args {
		if !lastfm.IsPlaylistURL(arg) {
			references = append(references, arg)
			continue
		}
		if scraper == nil {
			scraper = lastfm.NewScraper(30 * time.Second)
		}
		playlist, err := scraper.Scrape(ctx, arg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fmt.Fprintf(app.IO.ErrOut, "WARN: scrape %s: %v\n", arg, err)
			continue
		}
		if !app.Opts.Quiet && !app.Opts.JSON {
			fmt.Fprintf(app.IO.Out, "Playlist: %s (%d tracks)\n", playlist.Title, len(playlist.Queries))
		}
		for _, query := range playlist.Queries {
			results, searchErr := client.Search(ctx, query, catalog.EntityTrack, 1)
			if searchErr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				fmt.Fprintf(app.IO.ErrOut, "WARN: search %q: %v\n", query, searchErr)
				continue
			}
			if len(results) == 0 {
				fmt.Fprintf(app.IO.ErrOut, "WARN: no catalog match for %q\n", query)
				continue
			}
			references = append(references, results[0].URL)
		}
	}
	return references, nil
}
