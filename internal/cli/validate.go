package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qdl-tool/qdl/internal/config"
	"github.com/qdl-tool/qdl/internal/exitcode"
	"github.com/qdl-tool/qdl/internal/naming"
)

func newValidateCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate config and naming rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			namingPath, err := config.ExpandPath(cfg.NamingRules)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, fmt.Errorf("resolve naming rules path: %w", err))
			}
			if _, err := naming.Load(namingPath); err != nil {
				return withExitCode(exitcode.InvalidConfig, fmt.Errorf("naming rules: %w", err))
			}

			if app.Opts.JSON {
				payload := map[string]any{"valid": true}
				encoded, _ := json.Marshal(payload)
				fmt.Fprintln(app.IO.Out, string(encoded))
			} else {
				fmt.Fprintln(app.IO.Out, "Config is valid.")
			}
			return nil
		},
	}
}
