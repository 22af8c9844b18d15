package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/sfo-dev/sfo/internal/core/types"
	"github.com/sfo-dev/sfo/internal/executor"
	"github.com/sfo-dev/sfo/internal/plan"
	"github.com/sfo-dev/sfo/internal/undo"
)

func renderPlanTable(w io.Writer, p *types.Plan) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Source", "Destination", "Rule", "Size"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, e := range p.Entries {
		dest := e.Destination
		if e.Operation == types.OperationNone {
			dest += " (no-op)"
		}
		table.Append([]string{
			e.Record.RelPath,
			dest,
			e.RuleName,
			humanize.Bytes(uint64(e.Record.Size)),
		})
	}
	table.Render()
}

func printPlanSummary(p *types.Plan) {
	s := plan.Summarize(p)

	names := make([]string, 0, len(s.ByRule))
	for name := range s.ByRule {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-24s %d\n", name, s.ByRule[name])
	}

	msg := fmt.Sprintf("Planned moves: %d (no changes made)", s.Total)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		color.Blue(msg)
	} else {
		fmt.Println(msg)
	}
}

func printRunSummary(res executor.Result, manifestPath string) {
	if res.Failed > 0 {
		color.Red("Failed: %d", res.Failed)
	}
	if res.Skipped > 0 {
		color.Yellow("Skipped: %d", res.Skipped)
	}
	if res.Staged > 0 {
		color.Yellow("Left in trash staging: %d", res.Staged)
	}
	color.Green("Moved: %d. Manifest written to %s", res.Succeeded, manifestPath)
}

func printUndoReport(r *undo.Report) {
	for _, step := range r.Steps {
		switch step.Outcome {
		case undo.OutcomeRestored:
			fmt.Printf("Restored: %s\n", step.Entry.Source)
		case undo.OutcomeAlreadyUndone:
			fmt.Printf("Already undone: %s\n", step.Entry.Source)
		case undo.OutcomeConflict:
			color.Yellow("Conflict: %s (%s)", step.Entry.Source, step.Detail)
		case undo.OutcomeFailed:
			color.Red("Failed: %s (%s)", step.Entry.Source, step.Detail)
		}
	}
	fmt.Printf("restored=%d already-undone=%d conflicts=%d nothing-to-undo=%d failed=%d\n",
		r.Restored, r.AlreadyUndone, r.Conflicts, r.Nothing, r.Failed)
}
