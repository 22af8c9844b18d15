package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/sfo-dev/sfo/internal/env"
	"github.com/sfo-dev/sfo/internal/executor"
	"github.com/sfo-dev/sfo/internal/lock"
	"github.com/sfo-dev/sfo/internal/manifest"
)

// ErrPartialFailure marks a run where some files could not be processed;
// the process exits non-zero while the manifest stays usable for undo.
var ErrPartialFailure = errors.New("some files failed")

// OrganizeCommand applies the plan and writes an undo manifest.
type OrganizeCommand struct {
	Src         string `long:"src" description:"Source folder" required:"true"`
	Dest        string `long:"dest" description:"Destination folder" required:"true"`
	Manifest    string `long:"manifest" description:"Where to save the undo manifest" default:""`
	OnCollision string `long:"on-collision" description:"Collision policy override" choice:"rename" choice:"overwrite" choice:"skip"`
	Trash       string `long:"trash" description:"Stage files in this directory before the final move"`
	Copy        bool   `long:"copy" description:"Copy instead of move"`
}

func (c *CLI) Organize(cmd OrganizeCommand) error {
	slog.Debug("cli.organize started")
	defer slog.Debug("cli.organize finished")

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	// Flags override the config file.
	if cmd.OnCollision != "" {
		cfg.Collision = cmd.OnCollision
	}
	if cmd.Copy {
		cfg.Operation = "copy"
	}
	trashDir := cmd.Trash
	if trashDir == "" {
		trashDir = cfg.TrashDir
	}

	// One organize or undo at a time; the manifest has a single writer.
	runLock, err := lock.Acquire(env.SFO_STATE_DIR)
	if err != nil {
		return err
	}
	defer runLock.Release()

	p, total, err := c.buildPlan(cmd.Src, cmd.Dest, trashDir)
	if err != nil {
		return err
	}
	slog.Debug("plan built", "files", total, "entries", len(p.Entries))

	manifestPath := cmd.Manifest
	if manifestPath == "" {
		manifestPath = filepath.Join(env.SFO_STATE_DIR, "manifests", c.runID+".manifest.jsonl")
	}

	w, err := manifest.Create(manifestPath, manifest.Header{
		RunID:             c.runID,
		Timestamp:         time.Now(),
		SourceRoot:        p.SourceRoot,
		DestRoot:          p.DestRoot,
		ConfigFingerprint: cfg.Fingerprint(),
	})
	if err != nil {
		return err
	}
	defer w.Close()

	exec := executor.New(w, executor.Options{
		TrashDir: trashDir,
		RunID:    c.runID,
	})
	res, err := exec.Execute(p)
	if err != nil {
		// Manifest write failure: whatever was already appended is still
		// valid and replayable.
		return fmt.Errorf("execution aborted: %w", err)
	}

	printRunSummary(res, manifestPath)

	if res.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPartialFailure, res.Failed, len(p.Entries))
	}
	return nil
}
