// Package debug streams the debug log file to a writer, for the --debug
// flag.
package debug

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nxadm/tail"

	"github.com/sfo-dev/sfo/internal/env"
)

// Logs copies the debug log to w. With live set, output starts at the
// current end of the file instead of the first line. When stdout is a
// terminal, the stream keeps following new writes.
func Logs(w io.Writer, live bool) error {
	follow := isatty.IsTerminal(os.Stdout.Fd())
	cfg := tail.Config{
		Follow: follow,
		ReOpen: follow,
		Poll:   true,
		Logger: tail.DiscardingLogger,
	}
	if live {
		cfg.Location = &tail.SeekInfo{Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(env.SFO_LOG_PATH, cfg)
	if err != nil {
		return err
	}
	for line := range t.Lines {
		if line.Err != nil {
			return line.Err
		}
		fmt.Fprintln(w, line.Text)
	}
	return nil
}
