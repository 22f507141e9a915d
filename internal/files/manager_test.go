package files

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManagerPaths(t *testing.T) {
	tmp := t.TempDir()

	mgr, err := NewManager(tmp)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if got, want := mgr.WorklogPath(), filepath.Join(tmp, "worklog.md"); got != want {
		t.Fatalf("WorklogPath() = %q, want %q", got, want)
	}
	if got, want := mgr.BackupDir(), filepath.Join(tmp, "backups"); got != want {
		t.Fatalf("BackupDir() = %q, want %q", got, want)
	}
}

func TestWriteAtomicCreatesAndReplaces(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "worklog.md")

	if err := WriteAtomic(path, []byte("first\n")); err != nil {
		t.Fatalf("WriteAtomic first: %v", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := WriteAtomic(path, []byte("second\n")); err != nil {
		t.Fatalf("WriteAtomic second: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "second\n" {
		t.Fatalf("contents = %q, want %q", got, "second\n")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory has %d entries, want only the worklog", len(entries))
	}
}
