package ops

import (
	"context"

	"github.com/jra3/pkgctl/internal/collab"
	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// TestOptions carries `test`'s recognised options (spec §6: coverage,
// julia_args, test_args).
type TestOptions struct {
	Coverage bool
	Args     []string
	TestArgs []string
}

// Test is read-only with respect to the environment (no undo snapshot,
// no manifest write): it resolves specs against the manifest and
// forwards each to the injected TestRunner (spec §1: the test harness
// itself is out of scope).
func (d *Dispatcher) Test(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec, opts TestOptions) error {
	if d.TestRunner == nil {
		return pkgerr.New(pkgerr.InvalidSpec, "test requires a configured test runner")
	}

	resolved, err := env.ResolveManifest(specs)
	if err != nil {
		return err
	}
	if err := envcache.EnsureResolved(resolved); err != nil {
		return err
	}

	runnerOpts := collab.TestOptions{Coverage: opts.Coverage, Args: opts.Args, TestArgs: opts.TestArgs}
	for _, s := range resolved {
		entry, ok := env.Manifest[s.UUID]
		if !ok {
			return pkgerr.New(pkgerr.NotFound, "package %q is not in the manifest", s.Name)
		}
		if err := d.TestRunner.RunTests(ctx, s.UUID, entry, runnerOpts); err != nil {
			return pkgerr.Wrap(pkgerr.PrecompileError, err, "running tests for %s", s.Name)
		}
	}
	return nil
}
