package jobs

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/chr1sbest/jobrunlog/internal/fsys"
	"github.com/chr1sbest/jobrunlog/internal/logger"
)

var errDiskFull = errors.New("no space left on device")

// flakyFS wraps the local disk and fails selected operations.
type flakyFS struct {
	fsys.OS
	failMkdir  bool
	failAppend bool
	failWrite  bool
}

func (f *flakyFS) MkdirAll(path string) error {
	if f.failMkdir {
		return errDiskFull
	}
	return f.OS.MkdirAll(path)
}

func (f *flakyFS) AppendFile(path string, data []byte) error {
	if f.failAppend {
		return errDiskFull
	}
	return f.OS.AppendFile(path, data)
}

func (f *flakyFS) WriteFile(path string, data []byte) error {
	if f.failWrite {
		return errDiskFull
	}
	return f.OS.WriteFile(path, data)
}

// fakeClock hands out a settable time.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTraceBuffer() (*bytes.Buffer, logger.Logger) {
	var buf bytes.Buffer
	return &buf, logger.NewWriterLogger(&buf, logger.LevelDebug)
}
