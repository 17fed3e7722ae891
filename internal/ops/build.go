package ops

import (
	"context"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// Build is read-only with respect to the environment: it resolves
// specs against the manifest and reruns each one's build script via the
// injected BuildRunner, without touching the manifest or undo log.
func (d *Dispatcher) Build(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) error {
	if d.BuildRunner == nil {
		return pkgerr.New(pkgerr.InvalidSpec, "build requires a configured build runner")
	}

	resolved, err := env.ResolveManifest(specs)
	if err != nil {
		return err
	}
	if err := envcache.EnsureResolved(resolved); err != nil {
		return err
	}

	for _, s := range resolved {
		entry, ok := env.Manifest[s.UUID]
		if !ok {
			return pkgerr.New(pkgerr.NotFound, "package %q is not in the manifest", s.Name)
		}
		if err := d.BuildRunner.RunBuild(ctx, s.UUID, entry); err != nil {
			return pkgerr.Wrap(pkgerr.IOFailure, err, "building %s", s.Name)
		}
	}
	return nil
}
