package cmd

import (
	"context"
	"errors"

	"github.com/fulmenhq/preprint/internal/gitctx"
	"github.com/fulmenhq/preprint/internal/runner"
	"github.com/fulmenhq/preprint/pkg/exitcode"
	"github.com/fulmenhq/preprint/pkg/figures"
	"github.com/fulmenhq/preprint/pkg/source"
	"github.com/fulmenhq/preprint/pkg/tex"
)

// classify attaches the exit code for err unless a command already did.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var coded *exitcode.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return exitcode.Wrap(exitcode.Interrupted, err)
	case errors.Is(err, tex.ErrCyclicInclude):
		return exitcode.Wrap(exitcode.ValidationError, err)
	case errors.Is(err, source.ErrNotFound), errors.Is(err, tex.ErrRootNotFound):
		return exitcode.Wrap(exitcode.FileSystemError, err)
	case errors.Is(err, runner.ErrToolNotFound):
		return exitcode.Wrap(exitcode.ToolNotFound, err)
	case errors.Is(err, runner.ErrCommandFailed):
		return exitcode.Wrap(exitcode.ToolFailed, err)
	case errors.Is(err, gitctx.ErrNotRepository), errors.Is(err, figures.ErrUnknownStyle):
		return exitcode.Wrap(exitcode.ConfigError, err)
	default:
		return exitcode.Wrap(exitcode.GeneralError, err)
	}
}
