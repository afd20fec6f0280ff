package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chr1sbest/jobrunlog/internal/fsys"
	"github.com/chr1sbest/jobrunlog/internal/logger"
	"github.com/chr1sbest/jobrunlog/internal/tracker"
)

// Level is the severity tag of a line written by the logger itself.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelErr
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "WARN"
	case LevelErr:
		return "ERR"
	default:
		return "INFO"
	}
}

// timestampLayout is RFC 3339 at second precision; times are always UTC so
// the zone renders as "Z".
const timestampLayout = time.RFC3339

// StatusStore persists run status records.
type StatusStore interface {
	ReadStatus(path string) (*tracker.RunStatus, error)
	WriteStatus(path string, rs tracker.RunStatus) error
}

// jobLogger holds what every per-run logger shares: where the history
// lives, how lines are formatted and how they reach disk.
type jobLogger struct {
	fs           fsys.FileSystem
	store        StatusStore
	tracer       logger.Logger
	now          func() time.Time
	instanceID   string
	strictStatus bool
	historyPath  string
}

func (b *jobLogger) statusFilePath() string {
	return filepath.Join(b.historyPath, tracker.StatusFileName)
}

func (b *jobLogger) timestamp() string {
	return b.now().UTC().Format(timestampLayout)
}

// systemMessage formats a line written by the logger itself, e.g.
// "[2024-01-02T03:04:05Z > 1a2b3c: SYS INFO] Status changed to Running".
func (b *jobLogger) systemMessage(level Level, message string) string {
	return fmt.Sprintf("[%s > %s: SYS %s] %s\r\n", b.timestamp(), b.instanceID, level, message)
}

// plainMessage formats a line of child process output.
func (b *jobLogger) plainMessage(message string) string {
	return fmt.Sprintf("[%s] %s\r\n", b.timestamp(), message)
}

// safeAppend writes text to path. Failures are traced and dropped: a broken
// log file must never fail the job being logged.
func (b *jobLogger) safeAppend(path, text string) {
	if err := b.fs.AppendFile(path, []byte(text)); err != nil {
		b.tracer.Error("failed to append to job log",
			logger.F("path", path),
			logger.F("error", err),
		)
	}
}

// readStatus loads the current status record. A missing record is always
// replaced by a zero one; an unreadable one is replaced too unless
// strictStatus is set, in which case the read error is returned.
func (b *jobLogger) readStatus() (*tracker.RunStatus, error) {
	path := b.statusFilePath()
	rs, err := b.store.ReadStatus(path)
	switch {
	case err == nil:
		return rs, nil
	case errors.Is(err, tracker.ErrNoStatus):
		b.tracer.Debug("no run status yet, starting fresh", logger.F("path", path))
		return &tracker.RunStatus{}, nil
	case b.strictStatus:
		return nil, err
	default:
		b.tracer.Warn("discarding unreadable run status",
			logger.F("path", path),
			logger.F("error", err),
		)
		return &tracker.RunStatus{}, nil
	}
}

func (b *jobLogger) writeStatus(rs tracker.RunStatus) error {
	return b.store.WriteStatus(b.statusFilePath(), rs)
}

// shortInstanceID is a stable six character tag for this host, used in
// system lines to tell apart runs from different machines sharing storage.
func shortInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	sum := sha256.Sum256([]byte(host))
	return hex.EncodeToString(sum[:])[:6]
}
