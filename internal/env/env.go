package env

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

var (
	// SFO_CONFIG_PATH points at the YAML rule configuration.
	SFO_CONFIG_PATH string

	// SFO_LOG_PATH is where the debug log is appended.
	SFO_LOG_PATH string

	// SFO_STATE_DIR holds manifests and the run lock when the caller
	// does not pick an explicit manifest path.
	SFO_STATE_DIR string
)

func init() {
	// https://github.com/charmbracelet/log/issues/35
	os.Setenv("CLICOLOR_FORCE", "1")

	if SFO_CONFIG_PATH = os.Getenv("SFO_CONFIG_PATH"); SFO_CONFIG_PATH == "" {
		SFO_CONFIG_PATH = filepath.Join(xdg.ConfigHome, "sfo", "config.yaml")
	}

	if SFO_LOG_PATH = os.Getenv("SFO_LOG_PATH"); SFO_LOG_PATH == "" {
		SFO_LOG_PATH = filepath.Join(xdg.DataHome, "sfo", "debug.log")
	}

	if SFO_STATE_DIR = os.Getenv("SFO_STATE_DIR"); SFO_STATE_DIR == "" {
		SFO_STATE_DIR = filepath.Join(xdg.StateHome, "sfo")
	}
}
