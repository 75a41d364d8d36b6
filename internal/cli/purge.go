package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qdl-tool/qdl/internal/config"
	"github.com/qdl-tool/qdl/internal/exitcode"
)

func newPurgeCommand(app *AppContext) *cobra.Command {
	force := false

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the download ledger so every item downloads again",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			ledgerPath, err := config.ExpandPath(cfg.LedgerPath)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("resolve ledger path: %w", err))
			}

			if _, err := os.Stat(ledgerPath); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(app.IO.Out, "No ledger at %s.\n", ledgerPath)
				return nil
			}

			if !force {
				if app.Opts.NoInput || !isTTY(os.Stdin) {
					return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("refusing to delete %s without confirmation (rerun with --force)", ledgerPath))
				}
				confirmed, confirmErr := promptYesNo(app, fmt.Sprintf("Delete ledger at %s?", ledgerPath))
				if confirmErr != nil {
					return withExitCode(exitcode.RuntimeFailure, confirmErr)
				}
				if !confirmed {
					fmt.Fprintln(app.IO.Out, "Purge canceled.")
					return nil
				}
			}

			if err := os.Remove(ledgerPath); err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("delete ledger: %w", err))
			}
			fmt.Fprintf(app.IO.Out, "Deleted ledger: %s\n", ledgerPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete without prompting")
	return cmd
}
