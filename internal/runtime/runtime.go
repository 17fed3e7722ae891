// Package runtime recasts the process-wide mutable state the spec
// describes informally (the active project path, the undo-entries map,
// the persistent suspended-package list, the default I/O sink) as an
// explicit value threaded through operation calls, per the design note
// in spec §9.
package runtime

import (
	"log"
	"os"
	"sync"

	"github.com/jra3/pkgctl/internal/precompile/suspendstore"
	"github.com/jra3/pkgctl/internal/undo"
)

// Runtime owns every piece of state the original design left global.
// Nothing outside this package should hold a package-level variable for
// the active project, the undo log, or the logger.
type Runtime struct {
	mu            sync.Mutex
	activeProject string

	Undo      *undo.Log
	Logger    *log.Logger
	Suspended *suspendstore.Store
}

// New builds a Runtime with a fresh undo log and the given suspension
// store (nil is valid — precompile then runs without persistence,
// matching suspendstore being optional plumbing rather than a load-
// bearing dependency of the scheduler).
func New(suspended *suspendstore.Store) *Runtime {
	return &Runtime{
		Undo:      undo.New(),
		Logger:    log.New(os.Stderr, "", log.LstdFlags),
		Suspended: suspended,
	}
}

// ActiveProject returns the currently active project file path, or ""
// if none is active.
func (r *Runtime) ActiveProject() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeProject
}

// Activate makes path the active project for the duration of fn, then
// restores whatever was active before — on every exit path, including a
// panic or an early return from fn (spec §9: "activate(fn, path) becomes
// a scoped acquisition that restores the previous active project on
// every exit path").
func (r *Runtime) Activate(path string, fn func() error) error {
	r.mu.Lock()
	previous := r.activeProject
	r.activeProject = path
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.activeProject = previous
		r.mu.Unlock()
	}()

	return fn()
}
