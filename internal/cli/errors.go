package cli

import (
	"errors"
	"strings"

	"github.com/qdl-tool/qdl/internal/config"
	"github.com/qdl-tool/qdl/internal/engine"
	"github.com/qdl-tool/qdl/internal/exitcode"
)

// ExitError carries an explicit process exit code alongside the cause.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// mapExitCode translates an error returned by a command into the
// process exit code.
func mapExitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, engine.ErrInterrupted) {
		return exitcode.Interrupted
	}
	var valErr *config.ValidationError
	if errors.As(err, &valErr) {
		return exitcode.InvalidConfig
	}
	message := err.Error()
	if strings.Contains(message, "unknown command") || strings.Contains(message, "unknown flag") {
		return exitcode.InvalidUsage
	}
	return exitcode.RuntimeFailure
}
