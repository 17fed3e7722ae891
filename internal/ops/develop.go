package ops

import (
	"context"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/pkgid"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// DevelopOptions carries `develop`'s recognised options (spec §6).
type DevelopOptions struct {
	Platform       string
	UpdateRegistry bool
}

// Develop pins specs to a local filesystem path or a repo clone without
// consulting the version solver — path and repo(no-rev) tracked specs
// only reach here, enforced by specvalidate (spec §4.1, "rev argument
// not supported by develop").
func (d *Dispatcher) Develop(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec, opts DevelopOptions) error {
	return d.runSkeleton(ctx, env, specvalidate.Develop, resolveNone, specs, opts.UpdateRegistry,
		func(ctx context.Context, env *envcache.Cache, specs []specvalidate.Spec) (mutationResult, error) {
			if env.Project.Deps == nil {
				env.Project.Deps = map[string]string{}
			}
			if env.Manifest == nil {
				env.Manifest = manifest.Manifest{}
			}

			var touched []string
			for _, s := range specs {
				uuid := s.UUID
				if uuid == "" {
					id, err := pkgid.NewRandom(s.Name)
					if err != nil {
						return mutationResult{}, pkgerr.Wrap(pkgerr.IOFailure, err, "allocating uuid for %s", s.Name)
					}
					uuid = id.UUID.String()
				}

				entry := manifest.Entry{Name: s.Name}

				switch t := s.Tracking.(type) {
				case specvalidate.PathTracking:
					entry.Path = t.Path
				case specvalidate.RepoTracking:
					if d.GitClient == nil {
						return mutationResult{}, pkgerr.New(pkgerr.InvalidSpec, "develop with repo.source requires a configured git client")
					}
					clonePath, err := d.GitClient.CloneOrFetch(ctx, t.Source)
					if err != nil {
						return mutationResult{}, pkgerr.Wrap(pkgerr.GitFailure, err, "cloning %s", t.Source)
					}
					entry.Repo = &manifest.Repo{Source: t.Source, Subdir: t.Subdir}
					entry.Path = clonePath
				default:
					return mutationResult{}, pkgerr.New(pkgerr.InvalidSpec, "develop requires a path or repo.source for %s", s.Name)
				}

				env.Project.Deps[s.Name] = uuid
				env.Manifest[uuid] = entry
				touched = append(touched, uuid)
			}

			return mutationResult{touched: touched}, nil
		},
	)
}
