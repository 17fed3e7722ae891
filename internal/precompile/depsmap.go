package precompile

import (
	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/pkgid"
)

// BuildDepsMap constructs the scheduler's dependency map from a resolved
// manifest, excluding packages already provided by the system image, and
// optionally augmented with the active project itself when it has a
// source file to precompile (spec §4.8).
func BuildDepsMap(man manifest.Manifest, systemImage map[string]struct{}, project *pkgid.ID, projectDeps map[string]string, projectHasSource bool) map[pkgid.ID][]pkgid.ID {
	out := make(map[pkgid.ID][]pkgid.ID, len(man))
	for rawUUID, entry := range man {
		if _, provided := systemImage[rawUUID]; provided {
			continue
		}
		id, err := pkgid.New(entry.Name, rawUUID)
		if err != nil {
			continue
		}
		out[id] = depsOf(entry.Deps, systemImage)
	}

	if project != nil && projectHasSource {
		out[*project] = depsOf(projectDeps, systemImage)
	}

	return out
}

func depsOf(names map[string]string, systemImage map[string]struct{}) []pkgid.ID {
	var deps []pkgid.ID
	for depName, depUUID := range names {
		if _, provided := systemImage[depUUID]; provided {
			continue
		}
		id, err := pkgid.New(depName, depUUID)
		if err != nil {
			continue
		}
		deps = append(deps, id)
	}
	return deps
}
