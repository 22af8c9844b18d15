package main

import (
	"fmt"
	"os"

	"github.com/sfo-dev/sfo/internal/cli"
)

const appName = "sfo"

// These variables are set in build step
var (
	version   = "unset"
	revision  = "unset"
	buildDate = "unknown"
)

func main() {
	if err := cli.Run(cli.Version{
		AppName:   appName,
		Version:   version,
		Revision:  revision,
		BuildDate: buildDate,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}
