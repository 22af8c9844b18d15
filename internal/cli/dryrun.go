package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/sfo-dev/sfo/internal/core/types"
	"github.com/sfo-dev/sfo/internal/plan"
	"github.com/sfo-dev/sfo/internal/rule"
	"github.com/sfo-dev/sfo/internal/scan"
)

// DryRunCommand renders the plan without touching any file.
type DryRunCommand struct {
	Src   string `long:"src" description:"Source folder" required:"true"`
	Dest  string `long:"dest" description:"Destination folder" required:"true"`
	Trash string `long:"trash" description:"Trash staging directory the real run would use"`
	JSON  bool   `long:"json" description:"Emit the plan as JSON"`
}

func (c *CLI) DryRun(cmd DryRunCommand) error {
	slog.Debug("cli.dry-run started")
	defer slog.Debug("cli.dry-run finished")

	p, _, err := c.buildPlan(cmd.Src, cmd.Dest, cmd.Trash)
	if err != nil {
		return err
	}

	if cmd.JSON {
		return json.NewEncoder(os.Stdout).Encode(planJSON(p))
	}
	renderPlanTable(os.Stdout, p)
	printPlanSummary(p)
	return nil
}

// buildPlan runs discovery and planning with the loaded config. The
// destination, the configured trash directory, and any trashDir override
// are all pruned from the walk, so dry-run and organize discover the same
// file set.
func (c *CLI) buildPlan(src, dest, trashDir string) (*types.Plan, int, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, 0, err
	}

	if _, err := os.Stat(src); err != nil {
		return nil, 0, fmt.Errorf("source folder: %w", err)
	}

	prune := []string{dest}
	if cfg.TrashDir != "" {
		prune = append(prune, cfg.TrashDir)
	}
	if trashDir != "" {
		prune = append(prune, trashDir)
	}

	records, err := scan.Walk(src, scan.Options{
		IgnoreGlobs: cfg.Ignore,
		Prune:       prune,
		SniffMIME:   rule.NeedsMIME(cfg.CompiledRules()),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan source: %w", err)
	}

	p, err := plan.Build(src, records, cfg.CompiledRules(), plan.Options{
		DestRoot:  dest,
		Fallback:  cfg.Fallback,
		Operation: cfg.OperationMode(),
		Collision: cfg.CollisionPolicy(),
	})
	if err != nil {
		return nil, 0, err
	}
	return p, len(records), nil
}

type planEntryJSON struct {
	Src  string `json:"src"`
	Dst  string `json:"dst"`
	Rule string `json:"rule"`
	Op   string `json:"op"`
}

func planJSON(p *types.Plan) []planEntryJSON {
	out := make([]planEntryJSON, 0, len(p.Entries))
	for _, e := range p.Entries {
		out = append(out, planEntryJSON{
			Src:  e.Record.Path,
			Dst:  e.Destination,
			Rule: e.RuleName,
			Op:   string(e.Operation),
		})
	}
	return out
}
