// Package cli wires configuration, planning, execution, and undo behind
// the sfo command surface.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"
	"github.com/rs/xid"

	"github.com/sfo-dev/sfo/internal/config"
	"github.com/sfo-dev/sfo/internal/env"
	"github.com/sfo-dev/sfo/internal/utils/debug"
)

// Option is the top-level flag set.
type Option struct {
	Config string `long:"config" description:"Path to config file" default:""`

	Meta MetaOption `group:"Meta Options"`

	DryRun   DryRunCommand   `command:"dry-run" description:"Show the plan without touching any file"`
	Organize OrganizeCommand `command:"organize" description:"Apply the plan and write an undo manifest"`
	Undo     UndoCommand     `command:"undo" description:"Reverse a prior organize run from its manifest"`
	Init     InitCommand     `command:"init" description:"Write a default config file"`
	Rules    RulesCommand    `command:"rules" description:"Validate and inspect rules"`
}

// MetaOption holds flags independent of any command.
type MetaOption struct {
	Version bool   `short:"V" long:"version" description:"Show version"`
	Debug   string `long:"debug" description:"View debug logs (default: \"full\")" optional-value:"full" optional:"yes" choice:"full" choice:"live"`
}

// CLI carries shared state into command handlers.
type CLI struct {
	version Version
	option  Option
	config  *config.Config
	runID   string
}

var runID = sync.OnceValue(func() string {
	return xid.New().String()
})

// Run parses arguments, sets up logging, and dispatches the command.
func Run(v Version) error {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	parser.Name = v.AppName
	parser.Usage = "[command] [options]"
	// --version and --debug are meaningful without a command.
	parser.SubcommandsOptional = true
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}

	if err := setupLogging(); err != nil {
		return err
	}

	defer slog.Debug("main function finished\n\n\n")
	slog.Debug("main function started", "version", v.Version, "revision", v.Revision, "buildDate", v.BuildDate)

	cli := CLI{
		version: v,
		option:  opt,
		runID:   runID(),
	}

	if err := cli.Dispatch(parser); err != nil {
		slog.Error("exit", "error", fmt.Errorf("cli.run failed: %w", err))
		return err
	}
	return nil
}

// Dispatch routes to the active command after global flags are handled.
func (c *CLI) Dispatch(parser *flags.Parser) error {
	switch {
	case c.option.Meta.Version:
		fmt.Fprint(os.Stdout, c.version.Print())
		return nil

	case c.option.Meta.Debug != "":
		return debug.Logs(os.Stdout, strings.ToLower(c.option.Meta.Debug) == "live")
	}

	if parser.Active == nil {
		return fmt.Errorf("no command given (try `%s --help`)", c.version.AppName)
	}

	switch parser.Active.Name {
	case "dry-run":
		return c.DryRun(c.option.DryRun)
	case "organize":
		return c.Organize(c.option.Organize)
	case "undo":
		return c.Undo(c.option.Undo)
	case "init":
		return c.Init(c.option.Init)
	case "rules":
		if parser.Active.Active == nil {
			return fmt.Errorf("rules: subcommand required (validate, explain)")
		}
		switch parser.Active.Active.Name {
		case "validate":
			return c.RulesValidate(c.option.Rules.Validate)
		case "explain":
			return c.RulesExplain(c.option.Rules.Explain)
		}
	}
	return fmt.Errorf("unknown command")
}

// loadConfig parses the config lazily so config-free commands (init,
// --debug) work without one.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := config.Parse(c.option.Config)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

func setupLogging() error {
	logDir := filepath.Dir(env.SFO_LOG_PATH)
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}
	}

	var w io.Writer
	if file, err := os.OpenFile(env.SFO_LOG_PATH, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		w = file
	} else {
		w = os.Stderr
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           log.DebugLevel,
	})
	logger.SetOutput(w)
	slog.SetDefault(slog.New(logger.With("run_id", runID())))
	return nil
}
