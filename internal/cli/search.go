package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qdl-tool/qdl/internal/catalog"
	"github.com/qdl-tool/qdl/internal/config"
	"github.com/qdl-tool/qdl/internal/exitcode"
)

func newSearchCommand(app *AppContext) *cobra.Command {
	var entityType string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search the catalog and print matching references",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if cmd.Flags().Changed("limit") {
				cfg.SearchLimit = limit
			}
			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			searchType, err := searchableType(entityType)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}

			// Search never writes anything, so skip the ledger.
			cfg.NoDatabase = true
			pipe, err := buildPipeline(app, cfg)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			defer pipe.Close()

			ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
			defer stop()

			query := strings.Join(args, " ")
			results, err := pipe.Client.Search(ctx, query, searchType, cfg.SearchLimit)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}

			if app.Opts.JSON {
				encoder := json.NewEncoder(app.IO.Out)
				for _, match := range results {
					if encErr := encoder.Encode(match); encErr != nil {
						return withExitCode(exitcode.RuntimeFailure, encErr)
					}
				}
				return nil
			}

			if len(results) == 0 {
				fmt.Fprintf(app.IO.Out, "No %s results for %q.\n", searchType, query)
				return nil
			}
			for i, match := range results {
				fmt.Fprintf(app.IO.Out, "%2d. %s\n    %s\n", i+1, match.Display, match.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&entityType, "type", "t", "album", "Result type: track, album, artist or playlist")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

// searchableType maps the --type flag onto the entity types the catalog
// actually exposes a search endpoint for. Labels are browsable but not
// searchable.
func searchableType(value string) (catalog.EntityType, error) {
	t := catalog.EntityType(value)
	switch t {
	case catalog.EntityTrack, catalog.EntityAlbum, catalog.EntityArtist, catalog.EntityPlaylist:
		return t, nil
	case catalog.EntityLabel:
		return "", fmt.Errorf("the catalog has no label search; use track, album, artist or playlist")
	default:
		return "", fmt.Errorf("invalid search type %q", value)
	}
}
