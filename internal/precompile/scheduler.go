// Package precompile implements the Precompile Scheduler (spec §4.8): a
// parallel DAG traversal over a package dependency map with cycle
// detection, bounded concurrency, cooperative cancellation, and
// persistent suspension of packages that recently failed to compile.
package precompile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jra3/pkgctl/internal/pkgid"
	"github.com/jra3/pkgctl/internal/precompile/suspendstore"
)

// State is a package's position in the precompile state machine. Every
// value other than Unstarted, Started, and Compiling is terminal.
type State int

const (
	Unstarted State = iota
	Started
	Compiling
	Compiled
	Failed
	PrecompErr
	Skipped
	Circular
)

func (s State) Terminal() bool {
	return s != Unstarted && s != Started && s != Compiling
}

// Latch is a one-shot broadcast: Notify is idempotent, Wait blocks until
// notified or the context is cancelled.
type Latch struct {
	once sync.Once
	ch   chan struct{}
}

// NewLatch returns a ready-to-use Latch.
func NewLatch() *Latch {
	return &Latch{ch: make(chan struct{})}
}

// Notify wakes every current and future waiter. Safe to call more than
// once; only the first call has effect.
func (l *Latch) Notify() {
	l.once.Do(func() { close(l.ch) })
}

// Wait blocks until Notify is called or ctx is done, returning ctx.Err()
// in the latter case.
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done reports the latch's underlying channel for use in select statements.
func (l *Latch) Done() <-chan struct{} {
	return l.ch
}

// CompileOutcome distinguishes the three terminal results of an external
// compile call (spec §4.8 step 5).
type CompileOutcome int

const (
	CompileOK CompileOutcome = iota
	CompilePrecompileError
	CompileFailed
)

// CompileFunc invokes the external build system for a package. stderr is
// only meaningful when outcome is CompileFailed.
type CompileFunc func(ctx context.Context, id pkgid.ID) (outcome CompileOutcome, stderr string, err error)

// StaleFunc reports whether a package's cached artefact is stale and
// needs rebuilding.
type StaleFunc func(id pkgid.ID) bool

type pkgState struct {
	mu         sync.Mutex
	started    bool
	recompiled bool
	state      State
	processed  *Latch
}

// pkgQueue is a visible, mutex-guarded FIFO of in-flight packages, read
// by a progress renderer.
type pkgQueue struct {
	mu    sync.Mutex
	items []pkgid.ID
}

func (q *pkgQueue) push(id pkgid.ID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, id)
}

func (q *pkgQueue) remove(id pkgid.ID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, x := range q.items {
		if x == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the in-flight queue for progress rendering.
func (q *pkgQueue) Snapshot() []pkgid.ID {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]pkgid.ID, len(q.items))
	copy(out, q.items)
	return out
}

// Report summarises one scheduler run.
type Report struct {
	Failed              map[pkgid.ID]string
	Skipped             []pkgid.ID
	PrecompErr          []pkgid.ID
	Circular            []pkgid.ID
	NDone               int64
	NAlreadyPrecompiled int64
}

// Scheduler runs the precompile DAG traversal for one project.
type Scheduler struct {
	ProjectPath    string
	RuntimeVersion string
	Suspended      *suspendstore.Store

	// Parallelism caps concurrent compile invocations. When zero it
	// defaults to JULIA_NUM_PRECOMPILE_TASKS if that is a positive
	// integer, otherwise to runtime.NumCPU()+1 (spec §4.8).
	Parallelism int64

	depsMap map[pkgid.ID][]pkgid.ID
	state   map[pkgid.ID]*pkgState
	queue   *pkgQueue

	mu         sync.Mutex
	failed     map[pkgid.ID]string
	skipped    []pkgid.ID
	precompErr []pkgid.ID
	circular   []pkgid.ID

	nDone               atomic.Int64
	nAlreadyPrecompiled atomic.Int64
}

// New builds a Scheduler over depsMap, initialising per-package state for
// every key (spec §4.8: "initialised for every key in depsmap").
func New(depsMap map[pkgid.ID][]pkgid.ID, suspended *suspendstore.Store, projectPath, runtimeVersion string) *Scheduler {
	s := &Scheduler{
		ProjectPath:    projectPath,
		RuntimeVersion: runtimeVersion,
		Suspended:      suspended,
		depsMap:        depsMap,
		state:          make(map[pkgid.ID]*pkgState, len(depsMap)),
		queue:          &pkgQueue{},
		failed:         map[pkgid.ID]string{},
	}
	for id := range depsMap {
		s.state[id] = &pkgState{processed: NewLatch(), state: Unstarted}
	}
	return s
}

// Queue exposes the in-flight FIFO for progress rendering.
func (s *Scheduler) Queue() *pkgQueue { return s.queue }

// Total is the number of packages under management, including circular
// ones (spec §4.8: every key in depsmap gets state).
func (s *Scheduler) Total() int { return len(s.depsMap) }

// Done is the number of non-circular packages whose scheduling has
// finished so far (compiled, failed, skipped, already up to date, or
// abandoned on cancellation), for progress rendering.
func (s *Scheduler) Done() int64 { return s.nDone.Load() }

// Run executes the scheduler: cycle detection, then one goroutine per
// non-circular package, then waits for every package to reach a terminal
// state (spec §4.8, §5).
func (s *Scheduler) Run(ctx context.Context, compile CompileFunc, isStale StaleFunc) (*Report, error) {
	circular := detectCycles(s.depsMap)
	for id := range circular {
		st := s.state[id]
		st.mu.Lock()
		st.state = Circular
		st.mu.Unlock()
		s.mu.Lock()
		s.circular = append(s.circular, id)
		s.mu.Unlock()
		if s.Suspended != nil {
			_ = s.Suspended.Suspend(ctx, s.ProjectPath, s.RuntimeVersion, id.UUID.String(), time.Now())
		}
		st.processed.Notify()
	}

	var suspendedSet map[string]struct{}
	if s.Suspended != nil {
		suspendedSet, _ = s.Suspended.Suspended(ctx, s.ProjectPath, s.RuntimeVersion)
	}

	parallelism := s.Parallelism
	if parallelism <= 0 {
		parallelism = int64(defaultParallelism())
	}
	limiter := semaphore.NewWeighted(parallelism)

	interruptedOrDone := NewLatch()
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go func() {
		select {
		case <-ctx.Done():
			interruptedOrDone.Notify()
		case <-watchCtx.Done():
		}
	}()

	var wg sync.WaitGroup
	for id := range s.depsMap {
		if _, isCircular := circular[id]; isCircular {
			continue
		}
		wg.Add(1)
		go func(id pkgid.ID) {
			defer wg.Done()
			s.runOne(ctx, id, compile, isStale, suspendedSet, limiter, interruptedOrDone)
		}(id)
	}
	wg.Wait()
	interruptedOrDone.Notify()

	s.mu.Lock()
	defer s.mu.Unlock()
	return &Report{
		Failed:              cloneErrMap(s.failed),
		Skipped:             append([]pkgid.ID(nil), s.skipped...),
		PrecompErr:          append([]pkgid.ID(nil), s.precompErr...),
		Circular:            append([]pkgid.ID(nil), s.circular...),
		NDone:               s.nDone.Load(),
		NAlreadyPrecompiled: s.nAlreadyPrecompiled.Load(),
	}, nil
}

func (s *Scheduler) runOne(ctx context.Context, id pkgid.ID, compile CompileFunc, isStale StaleFunc, suspendedSet map[string]struct{}, limiter *semaphore.Weighted, interruptedOrDone *Latch) {
	st := s.state[id]
	defer func() {
		s.nDone.Add(1)
		st.processed.Notify()
	}()

	depRecompiled := false
	for _, dep := range s.depsMap[id] {
		depState := s.state[dep]
		if depState == nil {
			continue
		}
		if err := depState.processed.Wait(ctx); err != nil {
			return
		}
		depState.mu.Lock()
		if depState.recompiled {
			depRecompiled = true
		}
		depState.mu.Unlock()
	}

	_, isSuspended := suspendedSet[id.UUID.String()]
	if isSuspended && !depRecompiled {
		st.mu.Lock()
		st.state = Skipped
		st.mu.Unlock()
		s.mu.Lock()
		s.skipped = append(s.skipped, id)
		s.mu.Unlock()
		return
	}

	stale := depRecompiled || isStale(id)
	if !stale {
		s.nAlreadyPrecompiled.Add(1)
		return
	}

	select {
	case <-interruptedOrDone.Done():
		return
	default:
	}

	if err := limiter.Acquire(ctx, 1); err != nil {
		return
	}
	defer limiter.Release(1)

	select {
	case <-interruptedOrDone.Done():
		return
	default:
	}

	st.mu.Lock()
	st.started = true
	st.state = Started
	st.mu.Unlock()
	s.queue.push(id)
	defer s.queue.remove(id)

	st.mu.Lock()
	st.state = Compiling
	st.mu.Unlock()

	outcome, stderr, err := compile(ctx, id)
	switch outcome {
	case CompileOK:
		st.mu.Lock()
		st.recompiled = true
		st.state = Compiled
		st.mu.Unlock()
	case CompilePrecompileError:
		st.mu.Lock()
		st.state = PrecompErr
		st.mu.Unlock()
		s.mu.Lock()
		s.precompErr = append(s.precompErr, id)
		s.mu.Unlock()
	default:
		st.mu.Lock()
		st.state = Failed
		st.mu.Unlock()
		s.mu.Lock()
		if err != nil && stderr == "" {
			stderr = err.Error()
		}
		s.failed[id] = stderr
		s.mu.Unlock()
		if s.Suspended != nil {
			_ = s.Suspended.Suspend(ctx, s.ProjectPath, s.RuntimeVersion, id.UUID.String(), time.Now())
		}
	}
}

func cloneErrMap(in map[pkgid.ID]string) map[pkgid.ID]string {
	out := make(map[pkgid.ID]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
