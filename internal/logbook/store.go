package logbook

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/faizmokh/worklog/internal/backup"
	"github.com/faizmokh/worklog/internal/files"
)

// DefaultContent seeds a worklog that does not exist yet.
const DefaultContent = "# Daily Work Log\n\nThis is your worklog file where daily achievements will be tracked and organized.\n"

// Store owns the worklog document. Every write made through Update or Replace
// is preceded by a snapshot in the ledger.
type Store struct {
	manager *files.Manager
	ledger  *backup.Ledger
}

// NewStore wires the worklog file and its backup ledger.
func NewStore(manager *files.Manager, ledger *backup.Ledger) *Store {
	return &Store{manager: manager, ledger: ledger}
}

// Ledger exposes the snapshot collection backing the store.
func (s *Store) Ledger() *backup.Ledger {
	return s.ledger
}

// Path returns the worklog file location.
func (s *Store) Path() string {
	return s.manager.WorklogPath()
}

// Read returns the current worklog, creating it with DefaultContent when missing.
func (s *Store) Read(ctx context.Context) (string, error) {
	if s == nil || s.manager == nil {
		return "", errors.New("store not initialized with file manager")
	}

	path := s.manager.WorklogPath()
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read worklog: %w", err)
	}

	if err := s.manager.EnsureBaseDir(); err != nil {
		return "", err
	}
	if err := files.WriteAtomic(path, []byte(DefaultContent)); err != nil {
		return "", fmt.Errorf("create worklog: %w", err)
	}
	return DefaultContent, nil
}

// Update snapshots the current worklog, then replaces it with whatever fn
// returns. The snapshot is kept even when fn fails; the document is only
// written once fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(current string) (string, error)) (backup.Snapshot, error) {
	if s == nil || s.ledger == nil {
		return backup.Snapshot{}, errors.New("store not initialized with backup ledger")
	}

	current, err := s.Read(ctx)
	if err != nil {
		return backup.Snapshot{}, err
	}

	snap, err := s.ledger.Snapshot(current)
	if err != nil {
		return backup.Snapshot{}, err
	}

	updated, err := fn(current)
	if err != nil {
		return snap, err
	}

	if err := files.WriteAtomic(s.manager.WorklogPath(), []byte(updated)); err != nil {
		return snap, fmt.Errorf("write worklog: %w", err)
	}
	return snap, nil
}

// Replace overwrites the worklog with content after snapshotting it.
func (s *Store) Replace(ctx context.Context, content string) (backup.Snapshot, error) {
	return s.Update(ctx, func(string) (string, error) {
		return content, nil
	})
}

// Undo restores the newest snapshot and then discards it. The snapshot is
// only removed once the restored content is on disk.
func (s *Store) Undo(ctx context.Context) (backup.Snapshot, error) {
	if s == nil || s.ledger == nil {
		return backup.Snapshot{}, errors.New("store not initialized with backup ledger")
	}

	snap, err := s.ledger.Newest(ctx)
	if err != nil {
		return backup.Snapshot{}, err
	}
	content, err := s.ledger.Read(snap.Name)
	if err != nil {
		return backup.Snapshot{}, err
	}
	if err := files.WriteAtomic(s.manager.WorklogPath(), []byte(content)); err != nil {
		return backup.Snapshot{}, fmt.Errorf("restore from backup: %w", err)
	}
	if err := s.ledger.Remove(snap.Name); err != nil {
		return snap, err
	}
	return snap, nil
}
