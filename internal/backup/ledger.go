// Package backup keeps timestamped snapshots of the worklog so that any
// mutation can be undone.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"
)

const (
	namePrefix      = "worklog-"
	nameSuffix      = ".md"
	timestampLayout = "2006-01-02T15-04-05"
	tempDirName     = ".tmp"
)

// ErrNoBackups is returned when undo is requested but no snapshot exists.
var ErrNoBackups = errors.New("no backups available")

// Snapshot describes one stored copy of the worklog.
type Snapshot struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64

	taken time.Time
	seq   int
}

// Ledger stores snapshots as worklog-<timestamp>.md files in a single directory.
type Ledger struct {
	dir string
	d   *diskv.Diskv
	now func() time.Time
}

// NewLedger returns a ledger rooted at dir. The directory is created lazily on
// the first snapshot.
func NewLedger(dir string) *Ledger {
	return &Ledger{
		dir: dir,
		d: diskv.New(diskv.Options{
			BasePath:          dir,
			TempDir:           filepath.Join(dir, tempDirName),
			AdvancedTransform: flatTransform,
			InverseTransform:  flatInverseTransform,
			PathPerm:          0o755,
			FilePerm:          0o644,
		}),
		now: time.Now,
	}
}

// flatTransform keeps every key as a file directly under the base path.
func flatTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{Path: []string{}, FileName: key}
}

// flatInverseTransform keeps nested paths distinguishable so they can be skipped.
func flatInverseTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return strings.Join(append(append([]string{}, pathKey.Path...), pathKey.FileName), "/")
}

// Dir returns the directory holding the snapshots.
func (l *Ledger) Dir() string {
	return l.dir
}

// Snapshot writes content verbatim under a name derived from the current
// local time. A second snapshot within the same second gets a -2, -3, ...
// suffix instead of replacing the first.
func (l *Ledger) Snapshot(content string) (Snapshot, error) {
	taken := l.now().Local()
	base := namePrefix + taken.Format(timestampLayout)

	name := base + nameSuffix
	for seq := 2; l.d.Has(name); seq++ {
		name = fmt.Sprintf("%s-%d%s", base, seq, nameSuffix)
	}

	if err := l.d.WriteString(name, content); err != nil {
		return Snapshot{}, fmt.Errorf("create backup: %w", err)
	}
	return l.stat(name)
}

// List returns every snapshot, newest first by modification time.
func (l *Ledger) List(ctx context.Context) ([]Snapshot, error) {
	if _, err := os.Stat(l.dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var snapshots []Snapshot
	for key := range l.d.KeysPrefix(namePrefix, ctx.Done()) {
		if !isSnapshotName(key) {
			continue
		}
		snap, err := l.stat(key)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		if !a.taken.Equal(b.taken) {
			return a.taken.After(b.taken)
		}
		return a.seq > b.seq
	})
	return snapshots, nil
}

// Newest returns the most recently modified snapshot.
func (l *Ledger) Newest(ctx context.Context) (Snapshot, error) {
	snapshots, err := l.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snapshots) == 0 {
		return Snapshot{}, ErrNoBackups
	}
	return snapshots[0], nil
}

// Read returns the content stored under name.
func (l *Ledger) Read(name string) (string, error) {
	if !isSnapshotName(name) {
		return "", fmt.Errorf("read backup %q: %w", name, os.ErrNotExist)
	}
	data, err := l.d.Read(name)
	if err != nil {
		return "", fmt.Errorf("read backup file: %w", err)
	}
	return string(data), nil
}

// Remove deletes the snapshot stored under name.
func (l *Ledger) Remove(name string) error {
	if !isSnapshotName(name) {
		return fmt.Errorf("remove backup %q: %w", name, os.ErrNotExist)
	}
	if err := l.d.Erase(name); err != nil {
		return fmt.Errorf("remove used backup: %w", err)
	}
	return nil
}

// PopNewest returns the newest snapshot's content and deletes it.
func (l *Ledger) PopNewest(ctx context.Context) (string, error) {
	snap, err := l.Newest(ctx)
	if err != nil {
		return "", err
	}
	content, err := l.Read(snap.Name)
	if err != nil {
		return "", err
	}
	if err := l.Remove(snap.Name); err != nil {
		return "", err
	}
	return content, nil
}

func (l *Ledger) stat(name string) (Snapshot, error) {
	path := filepath.Join(l.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{}, err
	}
	taken, seq := parseName(name)
	return Snapshot{
		Name:    name,
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
		taken:   taken,
		seq:     seq,
	}, nil
}

func isSnapshotName(name string) bool {
	return strings.HasPrefix(name, namePrefix) &&
		strings.HasSuffix(name, nameSuffix) &&
		!strings.ContainsAny(name, `/\`)
}

// parseName recovers the timestamp and collision sequence from a snapshot
// name. Names that do not follow the pattern sort as the zero time.
func parseName(name string) (time.Time, int) {
	stem := strings.TrimSuffix(strings.TrimPrefix(name, namePrefix), nameSuffix)
	if len(stem) < len(timestampLayout) {
		return time.Time{}, 0
	}
	taken, err := time.ParseInLocation(timestampLayout, stem[:len(timestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, 0
	}
	seq := 1
	if rest := stem[len(timestampLayout):]; strings.HasPrefix(rest, "-") {
		if n, err := strconv.Atoi(rest[1:]); err == nil {
			seq = n
		}
	}
	return taken, seq
}
