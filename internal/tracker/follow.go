package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chr1sbest/jobrunlog/internal/fsys"
)

// followPoll catches appends on file systems where notifications are lost
// (network mounts, some container overlays).
const followPoll = time.Second

// Follow copies the log file name in runDir to w and keeps streaming
// appended bytes until the run's status carries an end time. It returns
// ctx.Err() when cancelled first. Change notifications come from the local
// disk; reads go through fs.
func Follow(ctx context.Context, fs fsys.FileSystem, runDir, name string, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(runDir); err != nil {
		return fmt.Errorf("failed to watch run directory %s: %w", runDir, err)
	}

	f := &follower{
		path:       filepath.Join(runDir, name),
		statusPath: filepath.Join(runDir, StatusFileName),
		fs:         fs,
		store:      NewStore(fs),
		w:          w,
	}

	ticker := time.NewTicker(followPoll)
	defer ticker.Stop()

	for {
		// Check the end marker before draining: the logger writes the end
		// time after the last line, so everything is on disk once it is set.
		ended := f.ended()
		if err := f.drain(); err != nil {
			return err
		}
		if ended {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", runDir, err)
		case <-ticker.C:
		}
	}
}

type follower struct {
	path       string
	statusPath string
	fs         fsys.FileSystem
	store      *Store
	w          io.Writer
	offset     int64
}

func (f *follower) ended() bool {
	st, err := f.store.ReadStatus(f.statusPath)
	return err == nil && st.Ended()
}

func (f *follower) drain() error {
	file, err := f.fs.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return err
	}
	n, err := io.Copy(f.w, file)
	f.offset += n
	return err
}
