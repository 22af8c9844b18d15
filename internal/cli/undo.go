package cli

import (
	"fmt"
	"log/slog"

	"github.com/sfo-dev/sfo/internal/env"
	"github.com/sfo-dev/sfo/internal/lock"
	"github.com/sfo-dev/sfo/internal/undo"
)

// UndoCommand reverses a prior organize run.
type UndoCommand struct {
	Manifest string `long:"manifest" description:"Path to a manifest from 'organize'" required:"true"`
}

func (c *CLI) Undo(cmd UndoCommand) error {
	slog.Debug("cli.undo started")
	defer slog.Debug("cli.undo finished")

	runLock, err := lock.Acquire(env.SFO_STATE_DIR)
	if err != nil {
		return err
	}
	defer runLock.Release()

	report, err := undo.Run(cmd.Manifest)
	if err != nil {
		return err
	}

	printUndoReport(report)

	if report.Failed > 0 {
		return fmt.Errorf("undo finished with %d failures", report.Failed)
	}
	return nil
}
