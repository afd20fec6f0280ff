package main

import (
	"io"

	"github.com/chr1sbest/jobrunlog/internal/config"
	"github.com/chr1sbest/jobrunlog/internal/fsys"
	"github.com/chr1sbest/jobrunlog/internal/jobs"
	"github.com/chr1sbest/jobrunlog/internal/logger"
	"github.com/chr1sbest/jobrunlog/internal/tracker"
)

// session is what every command needs: validated config and a tracer.
type session struct {
	cfg    *config.Config
	tracer logger.Logger
	close  func()
}

func openSession(configFile string, stderr io.Writer) (*session, error) {
	cfg, err := config.NewLoader(".").LoadAndValidate(configFile)
	if err != nil {
		return nil, err
	}

	// Validated above.
	level, _ := logger.ParseLevel(cfg.LogLevel)
	s := &session{
		cfg:    cfg,
		tracer: logger.NewWriterLogger(stderr, level),
		close:  func() {},
	}
	if cfg.TraceFile != "" {
		fl, err := logger.NewFileLogger(cfg.TraceFile, level)
		if err != nil {
			return nil, err
		}
		s.tracer = logger.NewMultiLogger(s.tracer, fl)
		s.close = func() { _ = fl.Close() }
	}
	return s, nil
}

func (s *session) runLoggerOptions() []jobs.Option {
	return []jobs.Option{
		jobs.WithTracer(s.tracer),
		jobs.WithInstanceID(s.cfg.InstanceID),
		jobs.WithUniqueRunIDs(s.cfg.UniqueRunIDsEnabled()),
		jobs.WithStrictStatus(s.cfg.StrictStatus),
	}
}

func (s *session) history() *tracker.History {
	return tracker.NewHistory(fsys.NewOS(), s.cfg.JobsDataPath)
}

// findRun resolves an explicit run id, or the latest run when id is empty.
func (s *session) findRun(job, id string) (tracker.RunSummary, error) {
	if id == "" {
		return s.history().Latest(job)
	}
	return s.history().Run(job, id)
}
