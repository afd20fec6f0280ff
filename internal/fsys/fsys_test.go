package fsys

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendFileCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.log")
	fs := NewOS()

	if err := fs.AppendFile(path, []byte("one\r\n")); err != nil {
		t.Fatalf("AppendFile error: %v", err)
	}
	if err := fs.AppendFile(path, []byte("two\r\n")); err != nil {
		t.Fatalf("AppendFile error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "one\r\ntwo\r\n" {
		t.Errorf("content = %q", b)
	}
}

func TestAppendFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "output.log")
	if err := NewOS().AppendFile(path, []byte("x")); err == nil {
		t.Fatal("expected error appending into a missing directory")
	}
}

func TestWriteFileReplacesContentAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")
	fs := NewOS()

	if err := fs.WriteFile(path, []byte(`{"status":"Initializing"}`)); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if err := fs.WriteFile(path, []byte(`{"status":"Running"}`)); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	b, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(b) != `{"status":"Running"}` {
		t.Errorf("content = %q", b)
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp.") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestExistsAndMkdirAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "triggered", "job", "20240102030405")
	fs := NewOS()

	ok, err := fs.Exists(dir)
	if err != nil || ok {
		t.Fatalf("Exists before create = %v, %v", ok, err)
	}
	if err := fs.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}
	ok, err = fs.Exists(dir)
	if err != nil || !ok {
		t.Fatalf("Exists after create = %v, %v", ok, err)
	}
}
