package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/chr1sbest/jobrunlog/internal/fsys"
)

var (
	// ErrNoStatus is returned when a run has no status file yet.
	ErrNoStatus = errors.New("run status not found")
	// ErrCorruptStatus is wrapped when a status file cannot be decoded.
	ErrCorruptStatus = errors.New("run status is corrupt")
)

// Store reads and writes run status files.
type Store struct {
	fs fsys.FileSystem
}

func NewStore(fs fsys.FileSystem) *Store {
	return &Store{fs: fs}
}

// ReadStatus loads the status record at path. It never guesses: a missing
// file is ErrNoStatus and undecodable content wraps ErrCorruptStatus, and
// the caller picks the recovery.
func (s *Store) ReadStatus(path string) (*RunStatus, error) {
	b, err := s.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoStatus
		}
		return nil, fmt.Errorf("reading run status %s: %w", path, err)
	}
	var rs RunStatus
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStatus, path, err)
	}
	return &rs, nil
}

// WriteStatus replaces the status file at path with rs.
func (s *Store) WriteStatus(path string, rs RunStatus) error {
	data, err := json.MarshalIndent(rs, "", "    ")
	if err != nil {
		return err
	}
	if err := s.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("writing run status %s: %w", path, err)
	}
	return nil
}
