// Package plan turns file snapshots and an ordered rule list into a
// deterministic, collision-free plan. Dry-run renders this plan verbatim;
// execution follows it entry by entry, so the two can never disagree about
// intended destinations.
package plan

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"github.com/sfo-dev/sfo/internal/core/types"
	"github.com/sfo-dev/sfo/internal/rule"
	"github.com/sfo-dev/sfo/internal/template"
)

const (
	// FallbackRuleName labels entries no rule matched.
	FallbackRuleName = "fallback"
	// ErrorRuleName labels entries routed to the fallback bucket because
	// their matched rule's template failed to resolve.
	ErrorRuleName = "fallback_error"
)

// Options configures one planning pass.
type Options struct {
	DestRoot string
	// Fallback is the catch-all template for files no rule matches. It is
	// restricted to the fixed placeholder set at config load, so resolving
	// it against any record cannot fail.
	Fallback  string
	Operation types.Operation
	Collision types.CollisionPolicy
	// Now fixes the reference time for age predicates. Zero means
	// time.Now at call time.
	Now time.Time
}

// Build produces the plan for records against rules, in record order.
// Every record yields exactly one entry.
func Build(sourceRoot string, records []types.FileRecord, rules []*rule.Rule, opts Options) (*types.Plan, error) {
	absSource, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, err
	}
	absDest, err := filepath.Abs(opts.DestRoot)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	p := &types.Plan{
		SourceRoot: absSource,
		DestRoot:   absDest,
		Entries:    make([]types.PlanEntry, 0, len(records)),
	}

	// No-op entries keep their current path unconditionally, so their
	// claims must be in place before any mover is disambiguated. Otherwise
	// a mover discovered earlier in walk order would claim the path first
	// and the plan would carry two entries with the same destination.
	claimed := make(map[string]struct{}, len(records))
	for _, rec := range records {
		entry := planOne(rec, rules, absDest, opts, now)
		if entry.Operation == types.OperationNone {
			claimed[entry.Destination] = struct{}{}
		}
		p.Entries = append(p.Entries, entry)
	}

	// Second pass: movers yield to every no-op and to earlier movers, so
	// destinations are pairwise distinct before execution begins.
	for i := range p.Entries {
		if p.Entries[i].Operation == types.OperationNone {
			continue
		}
		p.Entries[i].Destination = Disambiguate(p.Entries[i].Destination, func(cand string) bool {
			_, taken := claimed[cand]
			return taken
		})
		claimed[p.Entries[i].Destination] = struct{}{}
	}

	return p, nil
}

func planOne(rec types.FileRecord, rules []*rule.Rule, destRoot string, opts Options, now time.Time) types.PlanEntry {
	entry := types.PlanEntry{
		Record:    rec,
		RuleIndex: -1,
		Operation: opts.Operation,
		Collision: opts.Collision,
	}

	var (
		tmpl     = opts.Fallback
		captures map[string]string
	)
	entry.RuleName = FallbackRuleName

	// First match wins; later rules are not evaluated.
	for i, r := range rules {
		res := r.Match(rec, now)
		if !res.Matched {
			continue
		}
		entry.RuleName = r.Name
		entry.RuleIndex = i
		tmpl = r.Target
		captures = res.Captures
		break
	}

	rel, err := template.Resolve(tmpl, rec, captures)
	if err != nil {
		// Per-file planning error: route to the fallback bucket with the
		// reason recorded, rather than aborting the run.
		slog.Warn("template resolution failed, routing to fallback",
			"file", rec.RelPath, "rule", entry.RuleName, "error", err)
		entry.RuleName = ErrorRuleName
		entry.RuleIndex = -1
		entry.Reason = err.Error()
		rel, _ = template.Resolve(opts.Fallback, rec, nil)
	}

	entry.Destination = filepath.Join(destRoot, filepath.FromSlash(rel))

	// A destination equal to the current path is a recorded no-op.
	if entry.Destination == rec.Path {
		entry.Operation = types.OperationNone
	}
	return entry
}

// Disambiguate returns path if it is not taken, otherwise the first
// name_N variant that is free: "a.txt" becomes "a_1.txt", "a_2.txt", …
// The same convention is used at plan time against the plan's claimed set
// and at execution time against the live filesystem.
func Disambiguate(path string, taken func(string) bool) string {
	if !taken(path) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := filepath.Base(path)
	stem = stem[:len(stem)-len(ext)]

	for i := 1; ; i++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !taken(cand) {
			return cand
		}
	}
}

// Summary aggregates a plan for reporting.
type Summary struct {
	Total    int
	ByRule   map[string]int
	Fallback int
	NoOps    int
}

// Summarize counts entries per rule for the dry-run footer.
func Summarize(p *types.Plan) Summary {
	byRule := lo.CountValuesBy(p.Entries, func(e types.PlanEntry) string {
		return e.RuleName
	})
	return Summary{
		Total:    len(p.Entries),
		ByRule:   byRule,
		Fallback: byRule[FallbackRuleName] + byRule[ErrorRuleName],
		NoOps: lo.CountBy(p.Entries, func(e types.PlanEntry) bool {
			return e.Operation == types.OperationNone
		}),
	}
}
