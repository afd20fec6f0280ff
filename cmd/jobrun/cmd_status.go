package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/chr1sbest/jobrunlog/internal/tracker"
)

// runView is the JSON printed by `jobrun status`.
type runView struct {
	Job       string     `json:"job"`
	RunID     string     `json:"runId"`
	Dir       string     `json:"dir"`
	Status    string     `json:"status"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  string     `json:"duration,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func newRunView(r tracker.RunSummary, now time.Time) runView {
	v := runView{Job: r.Job, RunID: r.ID, Dir: r.Dir, Status: r.Status.Status}
	if r.StatusErr != nil {
		v.Error = r.StatusErr.Error()
		return v
	}
	if !r.Status.StartTime.IsZero() {
		start := r.Status.StartTime
		v.StartTime = &start
		v.Duration = r.Status.Duration(now).Round(time.Second).String()
	}
	v.EndTime = r.Status.EndTime
	return v
}

func statusCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "Path to config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: jobrun status [flags] <job> [run id]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 2
	}

	s, err := openSession(*configFile, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer s.close()

	run, err := s.findRun(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	b, err := json.MarshalIndent(newRunView(run, time.Now()), "", "  ")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, string(b))
	return 0
}

func runsCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "Path to config file")
	limit := fs.Int("n", 20, "Show at most this many runs (0 for all)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: jobrun runs [flags] [job]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	s, err := openSession(*configFile, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer s.close()

	if fs.NArg() == 0 {
		names, err := s.history().Jobs()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		for _, n := range names {
			fmt.Fprintln(stdout, n)
		}
		return 0
	}

	runs, err := s.history().Runs(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Fprintf(stderr, "No runs for %s\n", fs.Arg(0))
		return 1
	}
	if *limit > 0 && len(runs) > *limit {
		runs = runs[:*limit]
	}

	now := time.Now()
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTATUS\tSTARTED\tDURATION")
	for _, r := range runs {
		v := newRunView(r, now)
		status, started := v.Status, "-"
		if v.Error != "" {
			status = "unknown"
		}
		if v.StartTime != nil {
			started = v.StartTime.UTC().Format(time.RFC3339)
		}
		duration := v.Duration
		if duration == "" {
			duration = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.RunID, status, started, duration)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
