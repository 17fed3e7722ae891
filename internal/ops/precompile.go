package ops

import (
	"context"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/pkgid"
	"github.com/jra3/pkgctl/internal/precompile"
	"github.com/jra3/pkgctl/internal/precompile/suspendstore"
)

// Precompile runs the scheduler (spec §4.8) over env's resolved
// manifest. When clearSuspended is true (a direct user invocation, not
// an auto-precompile follow-up — spec §4.8: "when the user invokes
// precompile manually... the list is first cleared"), the persistent
// suspended set for this project/runtime is cleared first.
func (d *Dispatcher) Precompile(ctx context.Context, env *envcache.Cache, clearSuspended bool) (*precompile.Report, error) {
	if d.Compile == nil || d.IsStale == nil {
		return nil, pkgerr.New(pkgerr.InvalidSpec, "no compile backend configured")
	}

	if d.RT != nil && d.RT.Suspended != nil && clearSuspended {
		if err := d.RT.Suspended.Clear(ctx, env.ProjectFilePath, d.RuntimeVersion); err != nil {
			return nil, pkgerr.Wrap(pkgerr.IOFailure, err, "clearing suspended packages")
		}
	}

	var self *pkgid.ID
	var projectDeps map[string]string
	if env.Project.HasSelf() {
		id, err := pkgid.New(env.Project.Name, env.Project.UUID)
		if err == nil {
			self = &id
			projectDeps = env.Project.Deps
		}
	}

	depsMap := precompile.BuildDepsMap(env.Manifest, d.SystemImage, self, projectDeps, self != nil)

	var suspended *suspendstore.Store
	if d.RT != nil {
		suspended = d.RT.Suspended
	}

	sched := precompile.New(depsMap, suspended, env.ProjectFilePath, d.RuntimeVersion)
	if d.OnSchedulerStart != nil {
		d.OnSchedulerStart(sched)
	}
	return sched.Run(ctx, d.Compile, d.IsStale)
}
