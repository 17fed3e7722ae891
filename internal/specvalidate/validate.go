// Package specvalidate normalises and rejects malformed package
// specifications from callers before they reach the rest of the core
// (spec §4.1). Validation rules are per-operation; every rule failure
// surfaces as a pkgerr.InvalidSpec error with a human-readable message.
package specvalidate

import (
	"fmt"

	"github.com/jra3/pkgctl/internal/pkgerr"
)

// Operation identifies which dispatcher entry point is validating specs.
type Operation int

const (
	Add Operation = iota
	Develop
	Rm
	Up
	Pin
	Free
)

// Mode selects whether a spec is tracked in the project file or the
// manifest only.
type Mode int

const (
	ModeProject Mode = iota
	ModeManifest
)

// Tracking is the tagged variant over how a package's source is located,
// per the design note in spec §9: path-tracked, repo-tracked, or left for
// the registry to resolve. Exactly one of these may be set on a Spec.
type Tracking interface {
	isTracking()
}

// PathTracking pins a package to a local filesystem directory (used by
// `develop`).
type PathTracking struct {
	Path string
}

func (PathTracking) isTracking() {}

// RepoTracking pins a package to a git source, optional revision and
// subdirectory.
type RepoTracking struct {
	Source   string
	Revision string
	Subdir   string
}

func (RepoTracking) isTracking() {}

// RegistryTracking means the package is resolved through the registry by
// name/uuid/version constraint — the default when no path or repo is given.
type RegistryTracking struct{}

func (RegistryTracking) isTracking() {}

// Spec is the user-facing package specification, normalised form.
type Spec struct {
	Name string
	UUID string // raw string; parsed to a uuid.UUID only at ensure_resolved

	VersionLower string // "" means unconstrained
	VersionUpper string

	TreeHash string
	Pinned   bool
	Mode     Mode

	Tracking Tracking
}

// clone deep-copies a Spec so validation never mutates (or lets downstream
// mutate) a caller-held slice element.
func (s Spec) clone() Spec {
	out := s
	switch t := s.Tracking.(type) {
	case PathTracking:
		out.Tracking = PathTracking{Path: t.Path}
	case RepoTracking:
		out.Tracking = RepoTracking{Source: t.Source, Revision: t.Revision, Subdir: t.Subdir}
	case RegistryTracking:
		out.Tracking = RegistryTracking{}
	}
	return out
}

const reservedName = "julia"

// Validate normalises and validates specs for the given operation,
// returning a deep copy of the (possibly adjusted) spec list or an
// InvalidSpec error naming the first violation found.
func Validate(op Operation, projectSelfName string, specs []Spec) ([]Spec, error) {
	out := make([]Spec, 0, len(specs))
	seenNames := map[string]struct{}{}
	seenUUIDs := map[string]struct{}{}

	for _, s := range specs {
		c := s.clone()

		if c.Tracking == nil {
			c.Tracking = RegistryTracking{}
		}

		switch op {
		case Add, Develop:
			if err := validateAddLike(op, projectSelfName, c); err != nil {
				return nil, err
			}
		case Rm, Free:
			if err := validateRmLike(c); err != nil {
				return nil, err
			}
		case Pin:
			if err := validatePin(c); err != nil {
				return nil, err
			}
		case Up:
			// spec §4.1 does not narrow `up` beyond the generic identity
			// requirement already implied by resolution; nothing extra here.
		}

		if op == Add || op == Develop {
			if c.Name != "" {
				if _, dup := seenNames[c.Name]; dup {
					return nil, pkgerr.New(pkgerr.InvalidSpec, "duplicate package name %q in spec list", c.Name)
				}
				seenNames[c.Name] = struct{}{}
			}
			if c.UUID != "" {
				if _, dup := seenUUIDs[c.UUID]; dup {
					return nil, pkgerr.New(pkgerr.InvalidSpec, "duplicate package uuid %q in spec list", c.UUID)
				}
				seenUUIDs[c.UUID] = struct{}{}
			}
		}

		out = append(out, c)
	}

	return out, nil
}

func validateAddLike(op Operation, projectSelfName string, s Spec) error {
	if s.Name == reservedName {
		return pkgerr.New(pkgerr.InvalidSpec, "%s is not a valid package name", reservedName)
	}
	if projectSelfName != "" && s.Name == projectSelfName {
		return pkgerr.New(pkgerr.InvalidSpec, "cannot add %q: it is the name of the active project itself", s.Name)
	}

	repo, isRepo := s.Tracking.(RepoTracking)
	if s.Name == "" && s.UUID == "" && (!isRepo || repo.Source == "") {
		return pkgerr.New(pkgerr.InvalidSpec, "a spec must give at least one of name, uuid, or repo.source")
	}

	if isRepo && (s.VersionLower != "" || s.VersionUpper != "") {
		return pkgerr.New(pkgerr.InvalidSpec, "package %q: a version constraint is not supported for repo-tracked packages", displayName(s))
	}

	if op == Develop {
		if isRepo && repo.Revision != "" {
			return pkgerr.New(pkgerr.InvalidSpec, "rev argument not supported by develop")
		}
	}

	return nil
}

func validateRmLike(s Spec) error {
	if s.Name == "" && s.UUID == "" {
		return pkgerr.New(pkgerr.InvalidSpec, "packages may only be specified by name or UUID")
	}
	if s.VersionLower != "" || s.VersionUpper != "" || s.Pinned || s.TreeHash != "" {
		return pkgerr.New(pkgerr.InvalidSpec, "packages may only be specified by name or UUID")
	}
	if _, ok := s.Tracking.(RegistryTracking); !ok {
		return pkgerr.New(pkgerr.InvalidSpec, "packages may only be specified by name or UUID")
	}
	return nil
}

func validatePin(s Spec) error {
	if _, isRepo := s.Tracking.(RepoTracking); isRepo {
		return pkgerr.New(pkgerr.InvalidSpec, "package %q: pin does not support repo fields", displayName(s))
	}
	if s.VersionLower != "" && s.VersionUpper != "" && s.VersionLower != s.VersionUpper {
		return pkgerr.New(pkgerr.InvalidSpec, "package %q: pin requires an exact version, not a range", displayName(s))
	}
	return nil
}

func displayName(s Spec) string {
	if s.Name != "" {
		return s.Name
	}
	if s.UUID != "" {
		return s.UUID
	}
	return fmt.Sprintf("%v", s.Tracking)
}
