// Package undo implements the Undo Log (spec §4.3): a process-wide,
// per-environment bounded ring of (project, manifest) snapshots with a
// current index, supporting undo/redo.
package undo

import (
	"sync"
	"time"

	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/project"
)

const maxEntries = 50

// Snapshot is one recorded (project, manifest) state.
type Snapshot struct {
	Date     time.Time
	Project  *project.Project
	Manifest manifest.Manifest
}

type history struct {
	index     int // 1 = most recent; 0 = no history yet
	snapshots []Snapshot
}

// Log is the process-wide undo log, keyed by project file path.
type Log struct {
	mu      sync.Mutex
	byPath  map[string]*history
}

// New creates an empty undo log.
func New() *Log {
	return &Log{byPath: map[string]*history{}}
}

// Environment is the subset of envcache.Cache the undo log needs, kept
// narrow so this package has no dependency on envcache (avoids an import
// cycle, since envcache operations call into undo).
type Environment interface {
	ProjectPath() string
	CurrentProject() *project.Project
	CurrentManifest() manifest.Manifest
	OriginalState() (*project.Project, manifest.Manifest)
}

// Snapshot records the environment's current state, unless it is
// bit-identical to the original snapshot captured at load time (spec
// §4.3 and the invariant in spec §8). Taking a new snapshot drops any
// redo tail (entries before the current index) and clamps history size.
func (l *Log) Snapshot(env Environment) {
	origProj, origMan := env.OriginalState()
	curProj := env.CurrentProject()
	curMan := env.CurrentManifest()

	if curProj.Equal(origProj) && curMan.Equal(origMan) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.byPath[env.ProjectPath()]
	if !ok {
		h = &history{}
		l.byPath[env.ProjectPath()] = h
	}

	// Drop the redo tail: entries older than the current index are gone
	// once a new snapshot is taken from a rewound state.
	if h.index > 1 && h.index <= len(h.snapshots) {
		h.snapshots = h.snapshots[h.index-1:]
	}

	snap := Snapshot{Date: time.Now(), Project: curProj.Clone(), Manifest: curMan.Clone()}
	h.snapshots = append([]Snapshot{snap}, h.snapshots...)
	if len(h.snapshots) > maxEntries {
		h.snapshots = h.snapshots[:maxEntries]
	}
	h.index = 1
}

// Undo moves the index toward older entries and returns the snapshot to
// materialise, or a NotFound error if there is nothing older.
func (l *Log) Undo(projectPath string) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.byPath[projectPath]
	if !ok || h.index >= len(h.snapshots) {
		return Snapshot{}, pkgerr.New(pkgerr.NotFound, "no further undo history for %s", projectPath)
	}
	h.index++
	return h.snapshots[h.index-1], nil
}

// Redo moves the index toward newer entries and returns the snapshot to
// materialise, or a NotFound error if already at the most recent entry.
func (l *Log) Redo(projectPath string) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.byPath[projectPath]
	if !ok || h.index <= 1 {
		return Snapshot{}, pkgerr.New(pkgerr.NotFound, "no further redo history for %s", projectPath)
	}
	h.index--
	return h.snapshots[h.index-1], nil
}

// Len reports how many snapshots are recorded for a project (test/debug
// helper).
func (l *Log) Len(projectPath string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.byPath[projectPath]; ok {
		return len(h.snapshots)
	}
	return 0
}
