package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qdl-tool/qdl/internal/catalog"
	"github.com/qdl-tool/qdl/internal/config"
	"github.com/qdl-tool/qdl/internal/engine"
	"github.com/qdl-tool/qdl/internal/exitcode"
	"github.com/qdl-tool/qdl/internal/fetch"
	"github.com/qdl-tool/qdl/internal/media"
)

func newLuckyCommand(app *AppContext) *cobra.Command {
	var entityType string
	var number int

	cmd := &cobra.Command{
		Use:   "lucky <query...>",
		Short: "Search the catalog and download the first matches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if cmd.Flags().Changed("type") {
				cfg.Lucky.Type = entityType
			}
			if cmd.Flags().Changed("number") {
				cfg.Lucky.Limit = number
			}
			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			tier, err := fetch.ParseTier(cfg.Quality)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}

			luckyType := catalog.EntityType(cfg.Lucky.Type)
			if !luckyType.Valid() {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("invalid lucky type %q", cfg.Lucky.Type))
			}

			pipe, err := buildPipeline(app, cfg)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			defer pipe.Close()

			ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
			defer stop()

			query := strings.Join(args, " ")
			results, err := pipe.Client.Search(ctx, query, luckyType, cfg.Lucky.Limit)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			if len(results) == 0 {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("no %s results for %q", luckyType, query))
			}

			references := make([]string, 0, len(results))
			for _, match := range results {
				if !app.Opts.Quiet && !app.Opts.JSON {
					fmt.Fprintf(app.IO.Out, "Lucky pick: %s\n", match.Display)
				}
				references = append(references, match.URL)
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

	cmd.Flags().StringVarP(&entityType, "type", "t", "", "Result type: track, album, artist, label or playlist")
	cmd.Flags().IntVar(&number, "number", 0, "How many of the top matches to download")

	return cmd
}
