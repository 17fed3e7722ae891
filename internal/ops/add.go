package ops

import (
	"context"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// AddOptions carries `add`'s recognised options (spec §6).
type AddOptions struct {
	Preserve       string // tiered | all | direct | semver | none
	Platform       string
	UpdateRegistry bool
}

// Add resolves new specs through the Resolver, extends the project's
// dependency map and the manifest, downloads source/artifacts, and
// auto-precompiles (spec §4.9).
func (d *Dispatcher) Add(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec, opts AddOptions) error {
	return d.runSkeleton(ctx, env, specvalidate.Add, resolveNone, specs, opts.UpdateRegistry,
		func(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) (mutationResult, error) {
			if d.Resolver == nil {
				return mutationResult{}, pkgerr.New(pkgerr.InvalidSpec, "add requires a configured resolver")
			}

			resolvedManifest, err := d.Resolver.Resolve(ctx, specs, opts.Preserve)
			if err != nil {
				return mutationResult{}, pkgerr.Wrap(pkgerr.RegistryFailure, err, "resolving %d spec(s)", len(specs))
			}

			var touched []string
			if env.Project.Deps == nil {
				env.Project.Deps = map[string]string{}
			}
			if env.Manifest == nil {
				env.Manifest = manifest.Manifest{}
			}
			for uuid, entry := range resolvedManifest {
				env.Project.Deps[entry.Name] = uuid
				env.Manifest[uuid] = entry
				touched = append(touched, uuid)

				if d.Downloader != nil {
					if _, err := d.Downloader.DownloadSource(ctx, uuid, entry); err != nil {
						return mutationResult{}, pkgerr.Wrap(pkgerr.IOFailure, err, "downloading source for %s", entry.Name)
					}
					if opts.Platform != "" {
						if _, err := d.Downloader.DownloadArtifact(ctx, uuid, entry, opts.Platform); err != nil {
							return mutationResult{}, pkgerr.Wrap(pkgerr.IOFailure, err, "downloading artifact for %s", entry.Name)
						}
					}
				}
			}

			return mutationResult{touched: touched}, nil
		},
	)
}
