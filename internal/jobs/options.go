package jobs

import (
	"time"

	"github.com/chr1sbest/jobrunlog/internal/fsys"
	"github.com/chr1sbest/jobrunlog/internal/logger"
	"github.com/chr1sbest/jobrunlog/internal/tracker"
)

// Environment locates the job history on disk.
type Environment struct {
	JobsDataPath string
}

// Option customises a RunLogger.
type Option func(*options)

type options struct {
	fs           fsys.FileSystem
	store        StatusStore
	tracer       logger.Logger
	now          func() time.Time
	instanceID   string
	uniqueRunIDs bool
	strictStatus bool
}

func defaultOptions() options {
	return options{
		tracer:       logger.NewNoopLogger(),
		now:          time.Now,
		uniqueRunIDs: true,
	}
}

// WithFileSystem replaces the local disk.
func WithFileSystem(fs fsys.FileSystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithStatusStore replaces the JSON status store.
func WithStatusStore(s StatusStore) Option {
	return func(o *options) { o.store = s }
}

// WithTracer sets where the logger reports its own failures.
func WithTracer(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.tracer = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithInstanceID sets the host tag printed in system lines.
func WithInstanceID(id string) Option {
	return func(o *options) { o.instanceID = id }
}

// WithUniqueRunIDs controls whether a run started in the same second as an
// existing run of the same job gets a suffixed id. On by default.
func WithUniqueRunIDs(on bool) Option {
	return func(o *options) { o.uniqueRunIDs = on }
}

// WithStrictStatus makes status updates fail when the existing status file
// is unreadable instead of starting from an empty record.
func WithStrictStatus(on bool) Option {
	return func(o *options) { o.strictStatus = on }
}

func (o *options) complete() {
	if o.fs == nil {
		o.fs = fsys.NewOS()
	}
	if o.store == nil {
		o.store = tracker.NewStore(o.fs)
	}
	if o.instanceID == "" {
		o.instanceID = shortInstanceID()
	}
}
