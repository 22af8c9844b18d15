// Package executor carries out a plan against the live filesystem,
// recording every outcome in the manifest. One file's failure never aborts
// the run; it is recorded and execution moves on.
package executor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/sfo-dev/sfo/internal/atomic"
	"github.com/sfo-dev/sfo/internal/core/types"
	"github.com/sfo-dev/sfo/internal/manifest"
	"github.com/sfo-dev/sfo/internal/plan"
)

// Options configures one execution run.
type Options struct {
	// TrashDir enables staging: each source is parked here before its
	// final move, so an interrupted run can always be recovered.
	TrashDir string

	// RunID scopes staging paths inside TrashDir.
	RunID string
}

// Result aggregates a run for exit-status and summary reporting.
type Result struct {
	Succeeded int
	Failed    int
	Skipped   int

	// Staged counts files stranded in the trash directory because their
	// final move failed after staging.
	Staged int
}

// Executor processes plan entries sequentially in plan order.
type Executor struct {
	writer *manifest.Writer
	opts   Options
}

// New returns an executor that appends outcomes to w.
func New(w *manifest.Writer, opts Options) *Executor {
	return &Executor{writer: w, opts: opts}
}

// Execute runs every entry of p in order. The returned error only reports
// manifest write failures; per-file filesystem errors land in the result.
func (e *Executor) Execute(p *types.Plan) (Result, error) {
	var res Result

	if e.opts.TrashDir != "" {
		if err := os.MkdirAll(e.stagingRoot(), 0700); err != nil {
			return res, fmt.Errorf("create trash staging directory: %w", err)
		}
	}

	for _, entry := range p.Entries {
		if err := e.executeOne(entry, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (e *Executor) executeOne(entry types.PlanEntry, res *Result) error {
	rec := manifest.Entry{
		ID:          xid.New().String(),
		Source:      entry.Record.Path,
		Destination: entry.Destination,
		Operation:   entry.Operation,
		Rule:        entry.RuleName,
		Timestamp:   time.Now(),
	}

	// No-op entries are recorded for manifest completeness and skipped.
	if entry.Operation == types.OperationNone {
		rec.Status = manifest.StatusSkipped
		res.Skipped++
		return e.writer.Append(rec)
	}

	// Stage into the trash directory first, when configured. The staged
	// line must be durable before the final move starts: if the process
	// dies in between, undo can still restore from the staging path.
	src := entry.Record.Path
	if e.opts.TrashDir != "" && entry.Operation == types.OperationMove {
		staged := filepath.Join(e.stagingRoot(), uuid.NewString()+"-"+filepath.Base(src))
		if err := atomic.Move(src, staged, atomic.MoveOptions{AllowCrossDev: true}); err != nil {
			slog.Error("staging failed", "file", src, "error", err)
			rec.Status = manifest.StatusFailed
			rec.Error = err.Error()
			res.Failed++
			return e.writer.Append(rec)
		}
		rec.TrashStage = staged
		rec.Status = manifest.StatusStaged
		if err := e.writer.Append(rec); err != nil {
			return err
		}
		src = staged
	}

	// Resolve the live collision: a file may have appeared at the planned
	// destination since planning, outside this run.
	dst, skip, err := e.resolveCollision(entry)
	if err != nil {
		rec.Status = manifest.StatusFailed
		rec.Error = err.Error()
		res.Failed++
		if rec.TrashStage != "" {
			res.Staged++
		}
		return e.writer.Append(rec)
	}
	if skip {
		rec.Status = manifest.StatusSkipped
		rec.Error = "destination exists"
		res.Skipped++
		if rec.TrashStage != "" {
			// Skip policy leaves the source untouched; pull it back out
			// of staging.
			if err := atomic.Move(src, entry.Record.Path, atomic.MoveOptions{AllowCrossDev: true}); err != nil {
				slog.Error("unstage failed", "file", entry.Record.Path, "error", err)
				rec.Status = manifest.StatusFailed
				rec.Error = err.Error()
				res.Skipped--
				res.Failed++
				res.Staged++
			}
		}
		return e.writer.Append(rec)
	}
	rec.Destination = dst

	force := entry.Collision == types.CollisionOverwrite
	switch entry.Operation {
	case types.OperationCopy:
		err = atomic.Copy(src, dst, force)
	default:
		err = atomic.Move(src, dst, atomic.MoveOptions{AllowCrossDev: true, Force: force})
	}

	if err != nil {
		slog.Error("execute failed", "file", entry.Record.Path, "dest", dst, "error", err)
		rec.Status = manifest.StatusFailed
		rec.Error = err.Error()
		res.Failed++
		if rec.TrashStage != "" {
			// The file stays in the trash directory; the manifest records
			// it so the user or undo can recover it.
			res.Staged++
		}
		return e.writer.Append(rec)
	}

	rec.Status = manifest.StatusSucceeded
	res.Succeeded++
	return e.writer.Append(rec)
}

// resolveCollision applies the entry's collision policy against the live
// destination. It returns the final destination, or skip=true when the
// policy says to leave the source alone.
func (e *Executor) resolveCollision(entry types.PlanEntry) (dst string, skip bool, err error) {
	dst = entry.Destination
	if _, statErr := os.Lstat(dst); os.IsNotExist(statErr) {
		return dst, false, nil
	}

	switch entry.Collision {
	case types.CollisionOverwrite:
		// The prior occupant's content is not preserved; undo cannot
		// bring it back. Documented, accepted behavior.
		return dst, false, nil

	case types.CollisionSkip:
		return dst, true, nil

	default: // rename
		dst = plan.Disambiguate(dst, func(cand string) bool {
			_, statErr := os.Lstat(cand)
			return statErr == nil
		})
		return dst, false, nil
	}
}

func (e *Executor) stagingRoot() string {
	return filepath.Join(e.opts.TrashDir, e.opts.RunID)
}
