package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/sfo-dev/sfo/internal/config"
	"github.com/sfo-dev/sfo/internal/rule"
	"github.com/sfo-dev/sfo/internal/scan"
	"github.com/sfo-dev/sfo/internal/template"
)

// RulesCommand groups rule inspection subcommands.
type RulesCommand struct {
	Validate RulesValidateCommand `command:"validate" description:"Validate the rules in a configuration file"`
	Explain  RulesExplainCommand  `command:"explain" description:"Show which rule matches a file"`
}

type RulesValidateCommand struct {
	Config string `long:"config" short:"c" description:"Path to YAML config to validate" required:"true"`
}

type RulesExplainCommand struct {
	Config string `long:"config" short:"c" description:"Path to YAML config" required:"true"`
	File   string `long:"file" short:"f" description:"File to test against the rules" required:"true"`
}

func (c *CLI) RulesValidate(cmd RulesValidateCommand) error {
	if _, err := config.Parse(cmd.Config); err != nil {
		return err
	}
	color.Green("Config is valid.")
	return nil
}

func (c *CLI) RulesExplain(cmd RulesExplainCommand) error {
	cfg, err := config.Parse(cmd.Config)
	if err != nil {
		return err
	}

	rules := cfg.CompiledRules()
	rec, err := scan.Record(cmd.File, rule.NeedsMIME(rules))
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", rec.Path)
	now := time.Now()
	for _, r := range rules {
		res := r.Match(rec, now)
		if !res.Matched {
			continue
		}
		dest, err := template.Resolve(r.Target, rec, res.Captures)
		if err != nil {
			color.Yellow("  matched rule: %s (type: %s), but template failed: %v", r.Name, r.Type, err)
			return nil
		}
		color.Green("  matched rule: %s (type: %s)", r.Name, r.Type)
		fmt.Printf("  destination: %s\n", dest)
		return nil
	}

	color.Yellow("  no matching rule; fallback applies")
	dest, _ := template.Resolve(cfg.Fallback, rec, nil)
	fmt.Printf("  destination: %s\n", dest)
	return nil
}
