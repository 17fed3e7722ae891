package ops

import (
	"context"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// FreeOptions carries `free`'s recognised options (spec §6).
type FreeOptions struct {
	Mode specvalidate.Mode
}

// Free clears a pinned or path/repo-tracked entry's fixed location,
// returning it to ordinary registry resolution on the next `up`.
func (d *Dispatcher) Free(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec, opts FreeOptions) error {
	return d.runSkeleton(ctx, env, specvalidate.Free, resolveManifest, specs, false,
		func(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) (mutationResult, error) {
			var touched []string
			for _, s := range specs {
				entry, ok := env.Manifest[s.UUID]
				if !ok {
					return mutationResult{}, pkgerr.New(pkgerr.NotFound, "package %q is not in the manifest", s.Name)
				}
				entry.Pinned = false
				entry.Path = ""
				entry.Repo = nil
				env.Manifest[s.UUID] = entry
				touched = append(touched, s.UUID)
			}
			return mutationResult{touched: touched}, nil
		},
	)
}
