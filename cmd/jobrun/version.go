package main

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var version = "dev"

var commit = "none"

var date = "unknown"

func versionLine() string {
	if version != "dev" {
		return fmt.Sprintf("jobrun version %s", version)
	}

	c := strings.TrimSpace(commit)
	d := strings.TrimSpace(date)
	if c == "none" {
		c = ""
	}
	if d == "unknown" {
		d = ""
	}

	if c == "" || d == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					if c == "" {
						c = strings.TrimSpace(s.Value)
					}
				case "vcs.time":
					if d == "" {
						d = strings.TrimSpace(s.Value)
					}
				}
			}
		}
	}

	if len(c) > 7 {
		c = c[:7]
	}

	switch {
	case c == "" && d == "":
		return "jobrun version dev"
	case c == "":
		return fmt.Sprintf("jobrun version dev (built %s)", d)
	case d == "":
		return fmt.Sprintf("jobrun version dev (commit %s)", c)
	default:
		return fmt.Sprintf("jobrun version dev (commit %s, built %s)", c, d)
	}
}
