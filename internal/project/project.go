// Package project models the project file: a map from dependency name to
// uuid, plus an optional self-identity making the project itself a
// package (spec §3).
package project

// Project is the decoded form of the project TOML file.
type Project struct {
	Name    string            `toml:"name,omitempty"`
	UUID    string            `toml:"uuid,omitempty"`
	Version string            `toml:"version,omitempty"`
	Deps    map[string]string `toml:"deps,omitempty"` // name -> uuid
}

// Clone returns a deep copy so diffing against an original snapshot is
// safe while the live copy is mutated in place.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := &Project{Name: p.Name, UUID: p.UUID, Version: p.Version}
	if p.Deps != nil {
		out.Deps = make(map[string]string, len(p.Deps))
		for k, v := range p.Deps {
			out.Deps[k] = v
		}
	}
	return out
}

// Equal reports whether two projects are identical, including dep maps.
func (p *Project) Equal(o *Project) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Name != o.Name || p.UUID != o.UUID || p.Version != o.Version {
		return false
	}
	if len(p.Deps) != len(o.Deps) {
		return false
	}
	for k, v := range p.Deps {
		if ov, ok := o.Deps[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// HasSelf reports whether the project makes itself a package.
func (p *Project) HasSelf() bool {
	return p != nil && p.Name != "" && p.UUID != ""
}
