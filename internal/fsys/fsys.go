// Package fsys is the file system seam used by the run logger and the
// status store. Tests swap in fakes to simulate full disks and read-only
// mounts.
package fsys

import (
	"fmt"
	"io"
	"os"
	"time"
)

// FileSystem is the set of file operations the job history needs.
type FileSystem interface {
	MkdirAll(path string) error
	Exists(path string) (bool, error)
	ReadFile(path string) ([]byte, error)
	// Open opens a file for reading from an offset.
	Open(path string) (io.ReadSeekCloser, error)
	// WriteFile replaces the file content as a whole.
	WriteFile(path string, data []byte) error
	// AppendFile creates the file when missing and appends data to it.
	AppendFile(path string, data []byte) error
	ReadDir(path string) ([]os.DirEntry, error)
}

// OS is the FileSystem backed by the local disk.
type OS struct{}

// NewOS returns the local disk file system.
func NewOS() OS { return OS{} }

func (OS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (OS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OS) Open(path string) (io.ReadSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (OS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

func (OS) AppendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteFile writes to a temp file next to path, syncs it and renames it
// over path, so readers never observe a half-written file.
func (OS) WriteFile(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
