package types

import "time"

// Operation is the filesystem action an entry performs.
type Operation string

const (
	OperationMove Operation = "move"
	OperationCopy Operation = "copy"
	// OperationNone marks a plan entry whose resolved destination equals
	// its current path. It is recorded as skipped at execution time.
	OperationNone Operation = "none"
)

// CollisionPolicy decides what happens when the destination already exists
// on disk at execution time.
type CollisionPolicy string

const (
	CollisionRename    CollisionPolicy = "rename"
	CollisionOverwrite CollisionPolicy = "overwrite"
	CollisionSkip      CollisionPolicy = "skip"
)

// FileRecord is an immutable snapshot of one discovered file, taken once at
// plan time. It is never re-read during a run so that concurrent filesystem
// mutation cannot skew planning decisions.
type FileRecord struct {
	// Path is the absolute source path.
	Path string
	// RelPath is the path relative to the source root, with forward slashes.
	RelPath string
	// Name is the base name without extension.
	Name string
	// Ext is the extension without the leading dot, lowercased. Empty for
	// extensionless files.
	Ext string
	Size int64
	// ModTime is the snapshot mtime; mtime rules evaluate against this,
	// never against a fresh stat.
	ModTime time.Time
	// MIME is the sniffed content type. Populated only when the rule set
	// contains at least one mime rule.
	MIME string
	IsDir bool
}

// PlanEntry is one intended action, produced by the planner and consumed
// read-only by the executor.
type PlanEntry struct {
	Record FileRecord

	// RuleName identifies the rule that matched, or a synthetic name for
	// fallback routing ("fallback", "fallback_error").
	RuleName string
	// RuleIndex is the position of the matched rule, -1 for fallback.
	RuleIndex int

	// Destination is the absolute resolved destination path, already
	// disambiguated against every other entry in the plan.
	Destination string

	Operation Operation
	Collision CollisionPolicy

	// Reason carries the planning failure that routed this entry to the
	// fallback error bucket, if any.
	Reason string
}

// Plan is an ordered sequence of entries; order is discovery order and is
// the order the executor processes them in.
type Plan struct {
	SourceRoot string
	DestRoot   string
	Entries    []PlanEntry
}
