// Package manifest models the resolved dependency graph of an
// environment (spec §3): uuid -> entry, where every entry's deps map
// references uuids that are themselves keys, transitively closed.
package manifest

import "fmt"

// Repo describes a git-tracked package's source.
type Repo struct {
	Source   string `toml:"source,omitempty"`
	Revision string `toml:"rev,omitempty"`
	Subdir   string `toml:"subdir,omitempty"`
}

// Entry is one resolved dependency in the manifest.
type Entry struct {
	Name     string            `toml:"name"`
	Version  string            `toml:"version,omitempty"`
	TreeHash string            `toml:"git-tree-sha1,omitempty"`
	Repo     *Repo             `toml:"repo,omitempty"`
	Path     string            `toml:"path,omitempty"`
	Pinned   bool              `toml:"pinned,omitempty"`
	Deps     map[string]string `toml:"deps,omitempty"` // name -> uuid
}

// Manifest maps uuid -> Entry.
type Manifest map[string]Entry

// Clone returns a deep copy.
func (m Manifest) Clone() Manifest {
	if m == nil {
		return nil
	}
	out := make(Manifest, len(m))
	for uuid, e := range m {
		ce := e
		if e.Repo != nil {
			r := *e.Repo
			ce.Repo = &r
		}
		if e.Deps != nil {
			ce.Deps = make(map[string]string, len(e.Deps))
			for k, v := range e.Deps {
				ce.Deps[k] = v
			}
		}
		out[uuid] = ce
	}
	return out
}

// Equal reports whether two manifests are identical.
func (m Manifest) Equal(o Manifest) bool {
	if len(m) != len(o) {
		return false
	}
	for uuid, e := range m {
		oe, ok := o[uuid]
		if !ok || !entriesEqual(e, oe) {
			return false
		}
	}
	return true
}

func entriesEqual(a, b Entry) bool {
	if a.Name != b.Name || a.Version != b.Version || a.TreeHash != b.TreeHash ||
		a.Path != b.Path || a.Pinned != b.Pinned {
		return false
	}
	if (a.Repo == nil) != (b.Repo == nil) {
		return false
	}
	if a.Repo != nil && *a.Repo != *b.Repo {
		return false
	}
	if len(a.Deps) != len(b.Deps) {
		return false
	}
	for k, v := range a.Deps {
		if bv, ok := b.Deps[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// CheckClosure verifies the invariant in spec §3: every uuid referenced
// in any entry's deps exists as a key in the manifest, transitively (which
// reduces to checking direct membership since deps are walked from every
// entry).
func (m Manifest) CheckClosure() error {
	for uuid, e := range m {
		for depName, depUUID := range e.Deps {
			if _, ok := m[depUUID]; !ok {
				return fmt.Errorf("manifest not transitively closed: %s depends on %s (%s) which is not a manifest key", uuid, depName, depUUID)
			}
		}
	}
	return nil
}
