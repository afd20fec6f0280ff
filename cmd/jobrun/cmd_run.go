package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chr1sbest/jobrunlog/internal/jobs"
	"github.com/chr1sbest/jobrunlog/internal/logger"
	"github.com/chr1sbest/jobrunlog/internal/runner"
)

func runCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "Path to config file (default: jobrun.{yaml,yml,json} in the current directory)")
	timeout := fs.Duration("timeout", 0, "Command timeout, overrides command_timeout from config")
	dir := fs.String("dir", "", "Working directory for the command")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: jobrun run [flags] <job> -- <command line> | <program> <args...>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	job, command, err := splitJobCommand(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return 2
	}

	s, err := openSession(*configFile, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer s.close()

	rl, err := jobs.StartNewRun(job, jobs.Environment{JobsDataPath: s.cfg.JobsDataPath}, s.runLoggerOptions()...)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to start run of %s: %v\n", job, err)
		return 1
	}
	fmt.Fprintf(stdout, "Run %s of %s started\n", rl.ID(), job)

	r := &runner.Runner{
		Dir:     *dir,
		Timeout: s.cfg.GetCommandTimeout(),
		Tracer:  s.tracer.WithFields(logger.F("job", job), logger.F("run", rl.ID())),
	}
	if *timeout > 0 {
		r.Timeout = *timeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := r.Run(ctx, rl, command)
	if err != nil {
		fmt.Fprintf(stderr, "Run %s of %s: %v\n", rl.ID(), job, err)
		return 1
	}

	outcome := "succeeded"
	if res.ExitCode != 0 {
		outcome = fmt.Sprintf("failed with exit code %d", res.ExitCode)
	}
	if res.TimedOut {
		outcome = "timed out"
	}
	fmt.Fprintf(stdout, "Run %s of %s %s in %s\n", rl.ID(), job, outcome, res.Duration.Round(time.Millisecond))
	fmt.Fprintf(stdout, "History: %s\n", rl.HistoryPath())

	if res.ExitCode < 0 {
		return 1
	}
	return res.ExitCode
}

// splitJobCommand takes "<job> [--] <command...>". The command is returned
// as given: one argument is a shell command line, several are an argv.
func splitJobCommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("job name is required")
	}
	job, rest := args[0], args[1:]
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", nil, fmt.Errorf("command is required")
	}
	return job, rest, nil
}
