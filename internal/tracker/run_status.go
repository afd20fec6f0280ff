package tracker

import (
	"path/filepath"
	"time"
)

// Well-known run status values. Callers may report any other string.
const (
	StatusInitializing = "Initializing"
	StatusRunning      = "Running"
	StatusFailed       = "Failed"
	StatusSuccess      = "Success"
)

// RunStatus is the persisted lifecycle record of one triggered run.
type RunStatus struct {
	Status    string     `json:"status"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

// Ended reports whether the run has been marked complete.
func (s RunStatus) Ended() bool {
	return s.EndTime != nil
}

// Duration is the wall time of an ended run, or the time since start
// for one still going.
func (s RunStatus) Duration(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}

// History layout under the jobs data root.
const (
	TriggeredPath  = "triggered"
	StatusFileName = "status.json"
	OutputFileName = "output.log"
	ErrorFileName  = "error.log"
)

// RunIDLayout formats a run start time into its directory name.
const RunIDLayout = "20060102150405"

// JobDir is <jobsDataPath>/triggered/<jobName>.
func JobDir(jobsDataPath, jobName string) string {
	return filepath.Join(jobsDataPath, TriggeredPath, jobName)
}

// RunDir is <jobsDataPath>/triggered/<jobName>/<runID>.
func RunDir(jobsDataPath, jobName, runID string) string {
	return filepath.Join(JobDir(jobsDataPath, jobName), runID)
}
