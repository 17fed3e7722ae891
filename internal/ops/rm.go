package ops

import (
	"context"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// RmOptions carries `rm`'s recognised options (spec §6).
type RmOptions struct {
	Mode specvalidate.Mode // project or manifest
}

// Rm removes specs from the project's dependency map (ModeProject) or
// the manifest (ModeManifest). Specs must already resolve to a known
// uuid (spec §7: NotFound is fatal).
func (d *Dispatcher) Rm(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec, opts RmOptions) error {
	against := resolveProject
	if opts.Mode == specvalidate.ModeManifest {
		against = resolveManifest
	}

	return d.runSkeleton(ctx, env, specvalidate.Rm, against, specs, false,
		func(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) (mutationResult, error) {
			var touched []string
			for _, s := range specs {
				switch opts.Mode {
				case specvalidate.ModeProject:
					if _, ok := env.Project.Deps[s.Name]; !ok {
						return mutationResult{}, pkgerr.New(pkgerr.NotFound, "package %q is not in the project", s.Name)
					}
					delete(env.Project.Deps, s.Name)
				case specvalidate.ModeManifest:
					if _, ok := env.Manifest[s.UUID]; !ok {
						return mutationResult{}, pkgerr.New(pkgerr.NotFound, "package %q is not in the manifest", s.Name)
					}
					delete(env.Manifest, s.UUID)
					delete(env.Project.Deps, s.Name)
				}
				touched = append(touched, s.UUID)
			}
			return mutationResult{touched: touched}, nil
		},
	)
}
