package ops

import (
	"context"
	"os"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/pkgerr"
)

// InstantiateOptions carries `instantiate`'s recognised options (spec
// §6).
type InstantiateOptions struct {
	Platform       string
	UpdateRegistry bool
	Verbose        bool
}

// Instantiate materialises every manifest entry's source and artifacts
// into the depot, synthesising a project file from the manifest when
// one is missing (spec §4.9).
func (d *Dispatcher) Instantiate(ctx context.Context, env *envcache.Cache, opts InstantiateOptions) error {
	if err := d.synthesizeProjectIfMissing(env); err != nil {
		return err
	}

	if opts.UpdateRegistry && d.Registry != nil {
		if err := d.Registry.Update(ctx); err != nil {
			return pkgerr.Wrap(pkgerr.RegistryFailure, err, "refreshing registry")
		}
	}

	if err := d.ensureManifestInProject(env); err != nil {
		return err
	}

	for uuid, entry := range env.Manifest {
		if entry.Repo != nil && d.GitClient != nil {
			clonePath, err := d.GitClient.CloneOrFetch(ctx, entry.Repo.Source)
			if err != nil {
				return pkgerr.Wrap(pkgerr.GitFailure, err, "fetching %s", entry.Name)
			}
			dest := d.Depot.PackagePath(entry.Name, entry.TreeHash)
			if err := d.GitClient.CheckoutTreeHash(ctx, clonePath, entry.TreeHash, dest); err != nil {
				return pkgerr.Wrap(pkgerr.GitFailure, err, "checking out %s at %s", entry.Name, entry.TreeHash)
			}
		}

		if d.Downloader != nil {
			if _, err := d.Downloader.DownloadSource(ctx, uuid, entry); err != nil {
				return pkgerr.Wrap(pkgerr.IOFailure, err, "downloading source for %s", entry.Name)
			}
			if opts.Platform != "" {
				if _, err := d.Downloader.DownloadArtifact(ctx, uuid, entry, opts.Platform); err != nil {
					return pkgerr.Wrap(pkgerr.IOFailure, err, "downloading artifact for %s", entry.Name)
				}
			}
		}

		if d.BuildRunner != nil {
			if err := d.BuildRunner.RunBuild(ctx, uuid, entry); err != nil {
				return pkgerr.Wrap(pkgerr.IOFailure, err, "running build script for %s", entry.Name)
			}
		}

		if opts.Verbose && d.RT != nil && d.RT.Logger != nil {
			d.RT.Logger.Printf("[instantiate] materialised %s", entry.Name)
		}
	}

	if err := env.Manifest.CheckClosure(); err != nil {
		return pkgerr.Wrap(pkgerr.InvalidSpec, err, "manifest not transitively closed")
	}
	if d.RT != nil && d.RT.Undo != nil {
		d.RT.Undo.Snapshot(env)
	}
	if env.Changed() {
		if err := env.Write(); err != nil {
			return err
		}
	}

	if autoPrecompileEnabled() && d.Compile != nil && d.IsStale != nil {
		_, _ = d.Precompile(ctx, env, false)
	}

	return nil
}

// synthesizeProjectIfMissing builds a project from the manifest's
// top-level names when no project file exists on disk yet (spec §4.9).
func (d *Dispatcher) synthesizeProjectIfMissing(env *envcache.Cache) error {
	if _, err := os.Stat(env.ProjectFilePath); err == nil {
		return nil
	}
	if len(env.Manifest) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	if env.Project.Deps == nil {
		env.Project.Deps = map[string]string{}
	}
	for uuid, entry := range env.Manifest {
		if _, dup := seen[entry.Name]; dup {
			return pkgerr.New(pkgerr.InvalidSpec, "manifest has duplicate top-level name %q, cannot synthesise a project", entry.Name)
		}
		seen[entry.Name] = struct{}{}
		env.Project.Deps[entry.Name] = uuid
	}
	return nil
}

// ensureManifestInProject verifies every manifest uuid is a direct
// entry of the project's dependency map (spec §4.9).
func (d *Dispatcher) ensureManifestInProject(env *envcache.Cache) error {
	byUUID := map[string]struct{}{}
	for _, uuid := range env.Project.Deps {
		byUUID[uuid] = struct{}{}
	}
	for uuid, entry := range env.Manifest {
		if _, ok := byUUID[uuid]; !ok {
			return pkgerr.New(pkgerr.InvalidSpec, "manifest entry %q (%s) is not in the project dependency map", entry.Name, uuid)
		}
	}
	return nil
}
