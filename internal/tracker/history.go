package tracker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/chr1sbest/jobrunlog/internal/fsys"
)

// ErrRunNotFound is returned for a job or run id with no history directory.
var ErrRunNotFound = errors.New("run not found")

// RunSummary describes one run directory found in the history.
type RunSummary struct {
	Job    string
	ID     string
	Dir    string
	Status RunStatus
	// StatusErr is set when the status file was missing or unreadable;
	// the run is still listed.
	StatusErr error
}

func (r RunSummary) OutputPath() string { return filepath.Join(r.Dir, OutputFileName) }
func (r RunSummary) ErrorPath() string  { return filepath.Join(r.Dir, ErrorFileName) }

// History is a read-only view over <jobsDataPath>/triggered.
type History struct {
	fs           fsys.FileSystem
	store        *Store
	jobsDataPath string
}

func NewHistory(fs fsys.FileSystem, jobsDataPath string) *History {
	return &History{fs: fs, store: NewStore(fs), jobsDataPath: jobsDataPath}
}

// Jobs lists the names of jobs that have at least a history directory.
func (h *History) Jobs() ([]string, error) {
	entries, err := h.fs.ReadDir(filepath.Join(h.jobsDataPath, TriggeredPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	var jobs []string
	for _, e := range entries {
		if e.IsDir() {
			jobs = append(jobs, e.Name())
		}
	}
	sort.Strings(jobs)
	return jobs, nil
}

// Runs lists the runs of a job, newest first.
func (h *History) Runs(job string) ([]RunSummary, error) {
	entries, err := h.fs.ReadDir(JobDir(h.jobsDataPath, job))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing runs of %s: %w", job, err)
	}
	var runs []RunSummary
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		runs = append(runs, h.summary(job, e.Name()))
	}
	// Run ids start with a fixed-width timestamp, so lexical order is
	// chronological; suffixed ids sort after their base id.
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	return runs, nil
}

// Run loads one run by id.
func (h *History) Run(job, id string) (RunSummary, error) {
	dir := RunDir(h.jobsDataPath, job, id)
	ok, err := h.fs.Exists(dir)
	if err != nil {
		return RunSummary{}, fmt.Errorf("checking run %s/%s: %w", job, id, err)
	}
	if !ok {
		return RunSummary{}, fmt.Errorf("%w: %s/%s", ErrRunNotFound, job, id)
	}
	return h.summary(job, id), nil
}

// Latest returns the most recent run of a job.
func (h *History) Latest(job string) (RunSummary, error) {
	runs, err := h.Runs(job)
	if err != nil {
		return RunSummary{}, err
	}
	if len(runs) == 0 {
		return RunSummary{}, fmt.Errorf("%w: no runs for %s", ErrRunNotFound, job)
	}
	return runs[0], nil
}

func (h *History) summary(job, id string) RunSummary {
	dir := RunDir(h.jobsDataPath, job, id)
	rs := RunSummary{Job: job, ID: id, Dir: dir}
	st, err := h.store.ReadStatus(filepath.Join(dir, StatusFileName))
	if err != nil {
		rs.StatusErr = err
		return rs
	}
	rs.Status = *st
	return rs
}
