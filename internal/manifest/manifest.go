// Package manifest implements the durable record of an organize run as an
// append-only JSONL file. Every line is an independently parseable record
// and the file is fsynced after each append, so a crashed run leaves a
// valid manifest up to the last completed write.
//
// A trash-staged action is journaled in two lines sharing an entry ID:
// first a "staged" line once the file is in the staging area, then a line
// with the terminal status after the final move. The reader coalesces
// lines by ID, so consumers see one logical entry per planned action whose
// final state says where the file physically is.
package manifest

import (
	"errors"
	"time"

	"github.com/sfo-dev/sfo/internal/core/types"
)

const currentVersion = 1

var (
	// ErrCorrupt indicates a manifest line that is not valid JSON in a
	// position other than the final (possibly truncated) line.
	ErrCorrupt = errors.New("corrupt manifest")

	// ErrMissingHeader indicates a manifest that does not start with a
	// header record.
	ErrMissingHeader = errors.New("manifest missing header")

	// ErrManifestExists indicates the target manifest path is already
	// occupied; each organize invocation owns exactly one fresh manifest.
	ErrManifestExists = errors.New("manifest already exists")
)

// Status is the realized outcome of one entry.
type Status string

const (
	// StatusStaged means the file was moved into the trash staging area
	// but the final move has not completed. Seen as a terminal state only
	// in manifests from interrupted or failed runs.
	StatusStaged Status = "staged"

	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Header is the run metadata written as the first manifest line.
type Header struct {
	Version           int       `json:"version"`
	RunID             string    `json:"run_id"`
	Timestamp         time.Time `json:"timestamp"`
	SourceRoot        string    `json:"source_root"`
	DestRoot          string    `json:"dest_root"`
	ConfigFingerprint string    `json:"config_fingerprint"`
}

// Entry is the realized outcome of one plan entry.
type Entry struct {
	// ID ties together the state-transition lines of one logical entry.
	ID string `json:"id"`

	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Operation   types.Operation `json:"operation"`

	// TrashStage is the staging path inside the trash directory, set only
	// when staging was used. It survives into the terminal line so undo
	// can recover files whose final move never completed.
	TrashStage string `json:"trash_stage,omitempty"`

	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Rule   string `json:"rule,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// record is the one-line wire shape; exactly one field is set per line.
type record struct {
	Header *Header `json:"header,omitempty"`
	Entry  *Entry  `json:"entry,omitempty"`
}
