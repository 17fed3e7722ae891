// Package ops implements the Operation Dispatcher (spec §4.9): one file
// per top-level entry point (add, develop, rm, up, pin, free, test,
// build, status, instantiate, resolve, precompile, gc, activate, undo,
// redo), each following the same validate → deep-copy → resolve →
// mutate → snapshot → write → auto-precompile skeleton.
package ops

import (
	"context"
	"os"

	"github.com/jra3/pkgctl/internal/collab"
	"github.com/jra3/pkgctl/internal/depot"
	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/precompile"
	"github.com/jra3/pkgctl/internal/runtime"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// Dispatcher holds the injected out-of-scope collaborators (spec §1,
// §6) plus the Runtime value every operation mutates through.
type Dispatcher struct {
	RT *runtime.Runtime

	Resolver    collab.Resolver
	Downloader  collab.Downloader
	Registry    collab.Registry
	BuildRunner collab.BuildRunner
	GitClient   collab.GitClient
	TestRunner  collab.TestRunner

	// Depot is where instantiate/add extract source and artifacts and
	// where precompile looks up cached compiled output.
	Depot depot.Root

	// Compile and IsStale drive auto-precompile after a mutating
	// operation (spec §4.9). Either may be nil, in which case
	// auto-precompile is skipped entirely rather than erroring — a
	// caller that has not wired a build system yet can still use the
	// rest of the dispatcher.
	Compile precompile.CompileFunc
	IsStale precompile.StaleFunc

	// SystemImage lists package uuids considered always-available and
	// excluded from the precompile dependency map (spec §4.8 step 1).
	SystemImage map[string]struct{}

	// RuntimeVersion identifies the compiler/runtime build scope used to
	// key persistent precompile suspension.
	RuntimeVersion string

	// OnSchedulerStart, when set, is called with the freshly built
	// scheduler before Precompile runs it — a caller's hook point for
	// attaching a progress renderer to the scheduler's live queue.
	OnSchedulerStart func(*precompile.Scheduler)
}

// mutationResult captures what a per-operation mutate closure produced.
// Reserved for future use by operations that need to scope
// auto-precompile to only what they touched; currently unused fields
// are fine to leave empty.
type mutationResult struct {
	touched []string
}

// resolveAgainstEnv selects which part of the environment a spec's
// missing name/uuid half is resolved against. resolveNone is used by
// operations (add, develop) that introduce specs the environment does
// not know about yet — resolution there is the mutate closure's job,
// typically via the injected Resolver.
type resolveAgainstEnv int

const (
	resolveNone resolveAgainstEnv = iota
	resolveProject
	resolveManifest
)

// runSkeleton implements the shared validate → deep-copy → resolve →
// mutate → snapshot → write → auto-precompile flow (spec §4.9). Per-
// operation files supply op, mode, and a mutate closure.
func (d *Dispatcher) runSkeleton(
	ctx context.Context,
	env *envcache.Cache,
	op specvalidate.Operation,
	against resolveAgainstEnv,
	specs []specvalidate.Spec,
	updateRegistry bool,
	mutate func(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) (mutationResult, error),
) error {
	validated, err := specvalidate.Validate(op, env.Project.Name, specs)
	if err != nil {
		return err
	}

	if updateRegistry && d.Registry != nil {
		if err := d.Registry.Update(ctx); err != nil {
			return pkgerr.Wrap(pkgerr.RegistryFailure, err, "refreshing registry")
		}
	}

	resolved := validated
	switch against {
	case resolveProject:
		resolved, err = env.ResolveProjectDeps(validated)
	case resolveManifest:
		resolved, err = env.ResolveManifest(validated)
	}
	if err != nil {
		return err
	}
	if against != resolveNone {
		if err := envcache.EnsureResolved(resolved); err != nil {
			return err
		}
	}

	result, err := mutate(ctx, env, resolved)
	if err != nil {
		return err
	}

	if err := env.Manifest.CheckClosure(); err != nil {
		return pkgerr.Wrap(pkgerr.InvalidSpec, err, "operation left manifest non-closed")
	}

	// Snapshot before Write: Write resets the original state that
	// Snapshot compares against.
	if d.RT != nil && d.RT.Undo != nil {
		d.RT.Undo.Snapshot(env)
	}

	if env.Changed() {
		if err := env.Write(); err != nil {
			return err
		}
	}

	if d.RT != nil && d.RT.Logger != nil && len(result.touched) > 0 {
		d.RT.Logger.Printf("[%s] touched %d package(s)", opName(op), len(result.touched))
	}

	if autoPrecompileEnabled() && d.Compile != nil && d.IsStale != nil {
		_, _ = d.Precompile(ctx, env, false)
	}

	return nil
}

// autoPrecompileEnabled reads JULIA_PKG_PRECOMPILE_AUTO (spec §6),
// defaulting to on.
func autoPrecompileEnabled() bool {
	return os.Getenv("JULIA_PKG_PRECOMPILE_AUTO") != "0"
}

func opName(op specvalidate.Operation) string {
	switch op {
	case specvalidate.Add:
		return "add"
	case specvalidate.Develop:
		return "develop"
	case specvalidate.Rm:
		return "rm"
	case specvalidate.Up:
		return "up"
	case specvalidate.Pin:
		return "pin"
	case specvalidate.Free:
		return "free"
	default:
		return "op"
	}
}
