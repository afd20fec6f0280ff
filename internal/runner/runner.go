// Package runner executes a triggered job's command and feeds its output
// and lifecycle into a run log.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/chr1sbest/jobrunlog/internal/logger"
	"github.com/chr1sbest/jobrunlog/internal/tracker"
)

const waitDelay = 2 * time.Second

// RunLog is the part of jobs.RunLogger the runner drives.
type RunLog interface {
	ReportStatus(status string) error
	ReportEndRun() error
	LogError(message string) error
	LogInformation(message string)
	LogStandardOutput(message string) bool
	LogStandardError(message string) bool
}

// Result is the outcome of one command.
type Result struct {
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

// Runner runs job commands. The zero value runs with no timeout in the
// current directory.
type Runner struct {
	Shell   string        // used for single-string commands, defaults to "sh"
	Dir     string        // working directory
	Env     []string      // appended to the inherited environment when set
	Timeout time.Duration // zero means no timeout
	Tracer  logger.Logger
}

// Run executes argv, streaming each stdout and stderr line into rl. A single
// element is a shell command line run with "<shell> -c"; several elements
// are executed directly, each passed through as one argument. The run is
// marked Running, then Success or Failed, and always ended. A non-zero exit
// is reported in the Result; the error is reserved for the command not
// starting and for status updates that could not be written.
func (r *Runner) Run(ctx context.Context, rl RunLog, argv []string) (*Result, error) {
	tracer := r.Tracer
	if tracer == nil {
		tracer = logger.NewNoopLogger()
	}

	started := time.Now()
	res, runErr := r.run(ctx, rl, argv, tracer)
	res.Duration = time.Since(started)

	if err := rl.ReportEndRun(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("reporting end of run: %w", err))
	}
	return res, runErr
}

func (r *Runner) run(ctx context.Context, rl RunLog, argv []string, tracer logger.Logger) (*Result, error) {
	res := &Result{ExitCode: -1}
	if len(argv) == 0 || argv[0] == "" {
		err := errors.New("command is required")
		return res, errors.Join(err, rl.LogError(err.Error()))
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := r.command(ctx, argv)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	stdout := newLineWriter(rl.LogStandardOutput)
	stderr := newLineWriter(rl.LogStandardError)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Children that outlive a killed shell keep the pipes open; stop
	// waiting for them shortly after the shell is gone.
	cmd.WaitDelay = waitDelay

	if err := rl.ReportStatus(tracker.StatusRunning); err != nil {
		return res, fmt.Errorf("reporting running status: %w", err)
	}
	rl.LogInformation("Run command " + describe(argv))

	if err := cmd.Start(); err != nil {
		return res, r.startFailed(rl, err)
	}
	tracer.Debug("command started", logger.F("pid", cmd.Process.Pid))

	waitErr := cmd.Wait()
	stdout.Flush()
	stderr.Flush()

	if errors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		tracer.Warn("command left background processes holding its output open")
		waitErr = nil
	}
	if waitErr == nil {
		res.ExitCode = 0
		rl.LogInformation("Command exited with code 0")
		return res, rl.ReportStatus(tracker.StatusSuccess)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	msg := fmt.Sprintf("Command failed with exit code %d", res.ExitCode)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		msg = fmt.Sprintf("Command timed out after %s", r.Timeout)
	} else if exitErr == nil {
		msg = fmt.Sprintf("Command failed: %v", waitErr)
	}
	tracer.Warn("command failed", logger.F("exit_code", res.ExitCode), logger.F("error", waitErr))
	return res, rl.LogError(msg)
}

func (r *Runner) command(ctx context.Context, argv []string) *exec.Cmd {
	if len(argv) == 1 {
		shell := r.Shell
		if shell == "" {
			shell = "sh"
		}
		return exec.CommandContext(ctx, shell, "-c", argv[0])
	}
	return exec.CommandContext(ctx, argv[0], argv[1:]...)
}

// describe renders argv for the run log, quoting each argument.
func describe(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = strconv.Quote(a)
	}
	return strings.Join(quoted, " ")
}

func (r *Runner) startFailed(rl RunLog, err error) error {
	startErr := fmt.Errorf("starting command: %w", err)
	return errors.Join(startErr, rl.LogError(startErr.Error()))
}
