// Package undo replays a manifest in reverse, restoring files to their
// recorded source paths. It is fail-safe (never overwrites an occupied
// source path) and idempotent (already-restored entries are reported, not
// errors).
package undo

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sfo-dev/sfo/internal/atomic"
	"github.com/sfo-dev/sfo/internal/core/types"
	"github.com/sfo-dev/sfo/internal/manifest"
)

// Outcome classifies what undo did with one manifest entry.
type Outcome string

const (
	OutcomeRestored      Outcome = "restored"
	OutcomeAlreadyUndone Outcome = "already-undone"
	// OutcomeConflict means the original source path is occupied; the
	// file is left where it is rather than overwriting.
	OutcomeConflict Outcome = "conflict"
	OutcomeNothing  Outcome = "nothing-to-undo"
	OutcomeFailed   Outcome = "failed"
)

// Step is the undo result for one entry.
type Step struct {
	Entry   manifest.Entry
	Outcome Outcome
	Detail  string
}

// Report summarizes an undo pass.
type Report struct {
	Manifest string
	Steps    []Step

	Restored      int
	AlreadyUndone int
	Conflicts     int
	Nothing       int
	Failed        int
}

// Run restores every restorable entry of the manifest at path, processing
// entries in reverse of execution order so later disambiguated moves are
// undone before the earlier ones they yielded to. A structurally corrupt
// manifest is a fatal error; per-entry trouble is reported and skipped.
func Run(path string) (*Report, error) {
	m, err := manifest.Read(path)
	if err != nil {
		return nil, err
	}

	entries := m.Entries()
	report := &Report{Manifest: path}

	for i := len(entries) - 1; i >= 0; i-- {
		step := undoEntry(entries[i])
		report.Steps = append(report.Steps, step)
		switch step.Outcome {
		case OutcomeRestored:
			report.Restored++
		case OutcomeAlreadyUndone:
			report.AlreadyUndone++
		case OutcomeConflict:
			report.Conflicts++
		case OutcomeNothing:
			report.Nothing++
		case OutcomeFailed:
			report.Failed++
		}
	}
	return report, nil
}

func undoEntry(e manifest.Entry) Step {
	switch e.Status {
	case manifest.StatusSucceeded:
		if e.Operation == types.OperationCopy {
			return undoCopy(e)
		}
		return restore(e, e.Destination)

	case manifest.StatusStaged:
		// The final move never completed; the file is still in the trash
		// staging area, which becomes the restore point.
		return restore(e, e.TrashStage)

	case manifest.StatusFailed:
		if e.TrashStage != "" {
			if _, err := os.Lstat(e.TrashStage); err == nil {
				// Failed after staging: the file is stranded in the trash
				// directory and can still go home.
				return restore(e, e.TrashStage)
			}
		}
		return Step{Entry: e, Outcome: OutcomeNothing, Detail: "entry failed, nothing to undo"}

	default: // skipped
		return Step{Entry: e, Outcome: OutcomeNothing, Detail: "entry skipped, nothing to undo"}
	}
}

// restore moves the file at from back to the entry's recorded source.
func restore(e manifest.Entry, from string) Step {
	if _, err := os.Lstat(from); os.IsNotExist(err) {
		if _, err := os.Lstat(e.Source); err == nil {
			// Nothing at the recorded location and the source is back in
			// place: a prior undo already handled this entry.
			return Step{Entry: e, Outcome: OutcomeAlreadyUndone}
		}
		return Step{
			Entry:   e,
			Outcome: OutcomeFailed,
			Detail:  fmt.Sprintf("file missing at both %s and %s", from, e.Source),
		}
	}

	if _, err := os.Lstat(e.Source); err == nil {
		// Fail-safe: never overwrite whatever now occupies the original
		// location.
		return Step{
			Entry:   e,
			Outcome: OutcomeConflict,
			Detail:  fmt.Sprintf("original location occupied: %s", e.Source),
		}
	}

	if err := os.MkdirAll(filepath.Dir(e.Source), 0755); err != nil {
		return Step{Entry: e, Outcome: OutcomeFailed, Detail: err.Error()}
	}
	if err := atomic.Move(from, e.Source, atomic.MoveOptions{AllowCrossDev: true}); err != nil {
		slog.Error("undo move failed", "from", from, "to", e.Source, "error", err)
		return Step{Entry: e, Outcome: OutcomeFailed, Detail: err.Error()}
	}
	return Step{Entry: e, Outcome: OutcomeRestored}
}

// undoCopy reverses a copy by removing the placed duplicate; the original
// never left its source path.
func undoCopy(e manifest.Entry) Step {
	if _, err := os.Lstat(e.Destination); os.IsNotExist(err) {
		return Step{Entry: e, Outcome: OutcomeAlreadyUndone}
	}
	if _, err := os.Lstat(e.Source); err != nil {
		// The source vanished since the run; deleting the only remaining
		// copy would lose data.
		return Step{
			Entry:   e,
			Outcome: OutcomeConflict,
			Detail:  fmt.Sprintf("source missing, keeping copy at %s", e.Destination),
		}
	}
	if err := os.Remove(e.Destination); err != nil {
		return Step{Entry: e, Outcome: OutcomeFailed, Detail: err.Error()}
	}
	return Step{Entry: e, Outcome: OutcomeRestored}
}
