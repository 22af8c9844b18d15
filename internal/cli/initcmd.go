package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/sfo-dev/sfo/internal/config"
	"github.com/sfo-dev/sfo/internal/env"
)

// InitCommand writes the starter config.
type InitCommand struct {
	Path  string `long:"path" short:"p" description:"Optional path to write the default config to"`
	Force bool   `long:"force" description:"Overwrite an existing config"`
}

func (c *CLI) Init(cmd InitCommand) error {
	target := cmd.Path
	if target == "" {
		target = env.SFO_CONFIG_PATH
	}

	if _, err := os.Stat(target); err == nil && !cmd.Force {
		return fmt.Errorf("%s exists (use --force to overwrite)", target)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(target, []byte(config.DefaultConfigYAML), 0644); err != nil {
		return err
	}

	color.Green("Default config written to: %s", target)
	return nil
}
