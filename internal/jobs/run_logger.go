// Package jobs records the history of triggered job runs: one directory per
// run holding a status record and the run's output and error logs.
package jobs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/chr1sbest/jobrunlog/internal/logger"
	"github.com/chr1sbest/jobrunlog/internal/tracker"
)

var (
	ErrInvalidJobName = errors.New("invalid job name")
	ErrNoJobsDataPath = errors.New("jobs data path is not set")
)

// RunLogger writes the status and logs of a single triggered run. It is
// meant to be driven by one job execution; status updates are serialized
// but there is no locking across processes.
type RunLogger struct {
	jobLogger

	id         string
	jobName    string
	outputPath string
	errorPath  string

	statusMu sync.Mutex
}

// StartNewRun creates the run directory for jobName and records the run as
// Initializing. Failing to create the directory or to write the first
// status record is returned to the caller.
func StartNewRun(jobName string, env Environment, opts ...Option) (*RunLogger, error) {
	if err := validateJobName(jobName); err != nil {
		return nil, err
	}
	if env.JobsDataPath == "" {
		return nil, ErrNoJobsDataPath
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.complete()

	started := o.now().UTC()
	id, dir, err := newRunDir(&o, env.JobsDataPath, jobName, started.Format(tracker.RunIDLayout))
	if err != nil {
		return nil, err
	}
	if err := o.fs.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("creating run directory %s: %w", dir, err)
	}

	l := &RunLogger{
		jobLogger: jobLogger{
			fs:           o.fs,
			store:        o.store,
			tracer:       o.tracer.WithFields(logger.F("job", jobName), logger.F("run", id)),
			now:          o.now,
			instanceID:   o.instanceID,
			strictStatus: o.strictStatus,
			historyPath:  dir,
		},
		id:         id,
		jobName:    jobName,
		outputPath: filepath.Join(dir, tracker.OutputFileName),
		errorPath:  filepath.Join(dir, tracker.ErrorFileName),
	}

	initial := tracker.RunStatus{Status: tracker.StatusInitializing, StartTime: started}
	if err := l.writeStatus(initial); err != nil {
		return nil, err
	}
	l.statusChanged(initial.Status)
	l.tracer.Debug("run started", logger.F("dir", dir))
	return l, nil
}

// newRunDir picks the run id and directory. With unique ids on, a run
// starting in the same second as an existing one gets a random suffix.
func newRunDir(o *options, jobsDataPath, jobName, id string) (string, string, error) {
	dir := tracker.RunDir(jobsDataPath, jobName, id)
	if !o.uniqueRunIDs {
		return id, dir, nil
	}
	exists, err := o.fs.Exists(dir)
	if err != nil {
		return "", "", fmt.Errorf("checking run directory %s: %w", dir, err)
	}
	if !exists {
		return id, dir, nil
	}
	id = id + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return id, tracker.RunDir(jobsDataPath, jobName, id), nil
}

func validateJobName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidJobName)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidJobName, name)
	}
	return nil
}

// ID is the run id, the name of the run directory.
func (l *RunLogger) ID() string { return l.id }

func (l *RunLogger) JobName() string { return l.jobName }

// HistoryPath is the run directory.
func (l *RunLogger) HistoryPath() string { return l.historyPath }

// ReportStatus replaces the status text, keeping start and end times.
func (l *RunLogger) ReportStatus(status string) error {
	if err := l.updateStatus(func(rs *tracker.RunStatus) { rs.Status = status }); err != nil {
		return err
	}
	l.statusChanged(status)
	return nil
}

// ReportEndRun stamps the end time. Call it once after the job process has
// exited, whatever the outcome.
func (l *RunLogger) ReportEndRun() error {
	now := l.now().UTC()
	return l.updateStatus(func(rs *tracker.RunStatus) { rs.EndTime = &now })
}

// LogError marks the run Failed and writes message to the error log. The
// line is written even when the status update fails; that error is returned.
func (l *RunLogger) LogError(message string) error {
	err := l.ReportStatus(tracker.StatusFailed)
	l.log(LevelErr, message, true)
	return err
}

func (l *RunLogger) LogWarning(message string) {
	l.log(LevelWarn, message, true)
}

func (l *RunLogger) LogInformation(message string) {
	l.log(LevelInfo, message, true)
}

// LogStandardOutput records a line the job wrote to stdout. It always
// reports true.
func (l *RunLogger) LogStandardOutput(message string) bool {
	l.log(LevelInfo, message, false)
	return true
}

// LogStandardError records a line the job wrote to stderr. It always
// reports true.
func (l *RunLogger) LogStandardError(message string) bool {
	l.log(LevelErr, message, false)
	return true
}

func (l *RunLogger) updateStatus(mutate func(*tracker.RunStatus)) error {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()

	rs, err := l.readStatus()
	if err != nil {
		return err
	}
	mutate(rs)
	return l.writeStatus(*rs)
}

func (l *RunLogger) statusChanged(status string) {
	l.log(LevelInfo, "Status changed to "+status, true)
}

// log routes warnings and errors to error.log and the rest to output.log.
func (l *RunLogger) log(level Level, message string, system bool) {
	var line string
	if system {
		line = l.systemMessage(level, message)
	} else {
		line = l.plainMessage(message)
	}

	path := l.outputPath
	if level >= LevelWarn {
		path = l.errorPath
	}
	l.safeAppend(path, line)
}
