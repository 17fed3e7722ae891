package ops

import (
	"context"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// Pin marks specs' manifest entries as pinned, optionally to an exact
// version carried on the validated spec (spec §4.1 validatePin already
// rejected a non-exact range).
func (d *Dispatcher) Pin(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) error {
	return d.runSkeleton(ctx, env, specvalidate.Pin, resolveManifest, specs, false,
		func(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) (mutationResult, error) {
			var touched []string
			for _, s := range specs {
				entry, ok := env.Manifest[s.UUID]
				if !ok {
					return mutationResult{}, pkgerr.New(pkgerr.NotFound, "package %q is not in the manifest", s.Name)
				}
				entry.Pinned = true
				if s.VersionLower != "" {
					entry.Version = s.VersionLower
				}
				env.Manifest[s.UUID] = entry
				touched = append(touched, s.UUID)
			}
			return mutationResult{touched: touched}, nil
		},
	)
}
