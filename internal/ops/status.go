package ops

import (
	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// StatusOptions carries `status`'s recognised options (spec §6).
type StatusOptions struct {
	Mode specvalidate.Mode
}

// StatusEntry describes one manifest entry's relationship to its
// original snapshot.
type StatusEntry struct {
	Name    string
	UUID    string
	Added   bool
	Removed bool
	Changed bool
}

// Status is read-only: it never mutates, validates, or snapshots undo —
// it only diffs the live environment against the snapshot captured at
// Load time (spec §4.9 lists it among the dispatcher entry points, but
// spec §3's Environment Cache contract makes clear original_* exists
// exactly for this kind of diff).
func (d *Dispatcher) Status(env *envcache.Cache, opts StatusOptions) []StatusEntry {
	live, original := env.Manifest, env.OriginalManifest
	if opts.Mode == specvalidate.ModeProject {
		return diffProjectDeps(env)
	}
	return diffManifests(live, original)
}

func diffManifests(live, original manifest.Manifest) []StatusEntry {
	var out []StatusEntry
	for uuid, entry := range live {
		orig, ok := original[uuid]
		switch {
		case !ok:
			out = append(out, StatusEntry{Name: entry.Name, UUID: uuid, Added: true})
		case !entriesEqual(entry, orig):
			out = append(out, StatusEntry{Name: entry.Name, UUID: uuid, Changed: true})
		}
	}
	for uuid, entry := range original {
		if _, ok := live[uuid]; !ok {
			out = append(out, StatusEntry{Name: entry.Name, UUID: uuid, Removed: true})
		}
	}
	return out
}

func diffProjectDeps(env *envcache.Cache) []StatusEntry {
	var out []StatusEntry
	for name, uuid := range env.Project.Deps {
		if origUUID, ok := env.OriginalProject.Deps[name]; !ok {
			out = append(out, StatusEntry{Name: name, UUID: uuid, Added: true})
		} else if origUUID != uuid {
			out = append(out, StatusEntry{Name: name, UUID: uuid, Changed: true})
		}
	}
	for name, uuid := range env.OriginalProject.Deps {
		if _, ok := env.Project.Deps[name]; !ok {
			out = append(out, StatusEntry{Name: name, UUID: uuid, Removed: true})
		}
	}
	return out
}

// entriesEqual reports whether two manifest entries are identical in
// every field status cares about.
func entriesEqual(a, b manifest.Entry) bool {
	if a.Name != b.Name || a.Version != b.Version || a.TreeHash != b.TreeHash || a.Pinned != b.Pinned || a.Path != b.Path {
		return false
	}
	if (a.Repo == nil) != (b.Repo == nil) {
		return false
	}
	if a.Repo != nil && *a.Repo != *b.Repo {
		return false
	}
	return true
}
