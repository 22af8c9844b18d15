package cli

import (
	"fmt"
	"runtime/debug"
)

// Version identifies the build; fields are injected through ldflags.
type Version struct {
	AppName   string
	Version   string
	Revision  string
	BuildDate string
}

func (v Version) Print() string {
	ver := v.Version
	if ver == "" || ver == "unset" {
		// go install builds carry no ldflags; fall back to module info.
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			ver = info.Main.Version
		}
	}
	return fmt.Sprintf("%s - a rule-based file organizer\n\nversion: %s\nrevision: %s\nbuildDate: %s\n",
		v.AppName, ver, v.Revision, v.BuildDate)
}
