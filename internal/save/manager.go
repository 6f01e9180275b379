// Package save manages crash-safe snapshot rotation: atomic writes, a
// bounded number of retained snapshots, and a clean-shutdown marker used to
// tell a crash-restart from a normal one.
package save

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jetsetilly/crowdcade/internal/curated"
	"github.com/jetsetilly/crowdcade/internal/logger"
)

// MaxSaves is the retained-snapshot ceiling; the oldest are deleted once the
// directory holds more than this many.
const MaxSaves = 48

// CleanShutdownMarker is the zero-length sentinel file written on graceful
// exit and consumed (deleted) on the next clean startup.
const CleanShutdownMarker = ".clean_shutdown"

const filePrefix = "save_"
const fileSuffix = ".state"

// Manager owns one save_dir. It has no concurrent-access protection of its
// own: the supervisor is its only caller, and it calls in from a single
// goroutine (the frame loop), matching the single-writer invariant in the
// design.
type Manager struct {
	dir string
}

// New returns a Manager rooted at dir. The directory must already exist;
// callers create it during startup so a missing save_dir surfaces as a
// supervisor-fatal error before the frame loop starts.
func New(dir string) *Manager {
	return &Manager{dir: dir}
}

func stampName(t time.Time) string {
	return filePrefix + t.Format("20060102_150405") + fileSuffix
}

// Snapshot writes blob atomically (temp file + fsync + rename) and rotates
// old snapshots so at most MaxSaves remain.
func (m *Manager) Snapshot(ctx context.Context, blob []byte, now time.Time) (string, error) {
	name := stampName(now)
	final := filepath.Join(m.dir, name)

	tmp, err := os.CreateTemp(m.dir, "."+filePrefix+"*.tmp")
	if err != nil {
		return "", curated.Op(curated.Save, "create temp snapshot file", "%w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", curated.Op(curated.Save, "write snapshot blob", "%w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", curated.Op(curated.Save, "fsync snapshot", "%w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", curated.Op(curated.Save, "close snapshot temp file", "%w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", curated.Op(curated.Save, "rename snapshot into place", "%w", err)
	}

	if err := m.rotate(); err != nil {
		logger.Warnf(logger.Allow, "save", "rotation after snapshot %s: %v", name, err)
	}

	return name, nil
}

// rotate deletes the oldest save_*.state files while more than MaxSaves
// remain. Timestamped names sort chronologically, so a lexicographic sort
// is sufficient ordering.
func (m *Manager) rotate() error {
	names, err := m.listSaves()
	if err != nil {
		return err
	}
	sort.Strings(names)
	for len(names) > MaxSaves {
		oldest := names[0]
		names = names[1:]
		if err := os.Remove(filepath.Join(m.dir, oldest)); err != nil {
			logger.Warnf(logger.Allow, "save", "failed to delete old save %s: %v", oldest, err)
		}
	}
	return nil
}

func (m *Manager) listSaves() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, curated.Op(curated.Save, "list save directory", "%w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasPrefix(n, filePrefix) && strings.HasSuffix(n, fileSuffix) {
			names = append(names, n)
		}
	}
	return names, nil
}

// Latest returns the newest snapshot filename, or "" if none exist.
func (m *Manager) Latest() (string, error) {
	names, err := m.listSaves()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return names[len(names)-1], nil
}

// AllNewestFirst returns every retained snapshot name, newest first — used
// by restore-fallback when the newest file turns out to be corrupt.
func (m *Manager) AllNewestFirst() ([]string, error) {
	names, err := m.listSaves()
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Read loads one snapshot's bytes by filename.
func (m *Manager) Read(name string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return nil, curated.Op(curated.Save, "read snapshot "+name, "%w", err)
	}
	return b, nil
}

// CleanShutdownMarkerPresent reports whether the previous run exited
// cleanly.
func (m *Manager) CleanShutdownMarkerPresent() bool {
	_, err := os.Stat(filepath.Join(m.dir, CleanShutdownMarker))
	return err == nil
}

// WriteCleanShutdownMarker is called at the end of a graceful shutdown.
func (m *Manager) WriteCleanShutdownMarker() error {
	path := filepath.Join(m.dir, CleanShutdownMarker)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return curated.Op(curated.Save, "write clean shutdown marker", "%w", err)
	}
	return nil
}

// RemoveCleanShutdownMarker is called at startup before entering the frame
// loop, consuming the marker left by the previous clean exit.
func (m *Manager) RemoveCleanShutdownMarker() error {
	path := filepath.Join(m.dir, CleanShutdownMarker)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return curated.Op(curated.Save, "remove clean shutdown marker", "%w", err)
	}
	return nil
}
