package ops

import (
	"context"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// UpOptions carries `up`'s recognised options (spec §6).
type UpOptions struct {
	Level          string // fixed | patch | minor | major
	Mode           specvalidate.Mode
	UpdateRegistry bool
}

// Up re-resolves specs (or, if specs is empty, every manifest entry)
// within the requested version-bump level and merges the changed
// entries back into the manifest (spec §4.9).
func (d *Dispatcher) Up(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec, opts UpOptions) error {
	against := resolveManifest
	if opts.Mode == specvalidate.ModeProject {
		against = resolveProject
	}
	if len(specs) == 0 {
		against = resolveNone
	}

	return d.runSkeleton(ctx, env, specvalidate.Up, against, specs, opts.UpdateRegistry,
		func(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) (mutationResult, error) {
			if d.Resolver == nil {
				return mutationResult{}, pkgerr.New(pkgerr.InvalidSpec, "up requires a configured resolver")
			}

			changed, err := d.Resolver.Upgrade(ctx, env.Manifest, specs, opts.Level)
			if err != nil {
				return mutationResult{}, pkgerr.Wrap(pkgerr.RegistryFailure, err, "upgrading %d spec(s)", len(specs))
			}

			var touched []string
			for uuid, entry := range changed {
				env.Manifest[uuid] = entry
				touched = append(touched, uuid)
			}
			return mutationResult{touched: touched}, nil
		},
	)
}

// Resolve is `up` pinned to level=fixed, manifest mode, with no
// registry refresh (spec §4.9: "`resolve` is defined as `up` with
// level=fixed, manifest mode, no registry refresh").
func (d *Dispatcher) Resolve(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) error {
	return d.Up(ctx, env, specs, UpOptions{Level: "fixed", Mode: specvalidate.ModeManifest, UpdateRegistry: false})
}
