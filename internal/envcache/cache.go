// Package envcache implements the Environment Cache (spec §4.2): the
// parsed project file, manifest, and original snapshots used for
// diffing and undo-skip decisions.
package envcache

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jra3/pkgctl/internal/atomicfile"
	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/pkgerr"
	"github.com/jra3/pkgctl/internal/project"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// Cache holds an environment's loaded state and the original snapshot
// used for undo-skip and diffing (spec §3).
type Cache struct {
	ProjectFilePath  string
	ManifestFilePath string

	Project  *project.Project
	Manifest manifest.Manifest

	OriginalProject  *project.Project
	OriginalManifest manifest.Manifest
}

// Load reads the project and manifest files rooted at dir (project.toml /
// manifest.toml). A missing project file yields an empty Project, not an
// error — a fresh environment is valid. A present-but-malformed file is a
// ParseFailure, which is fatal outside of GC (spec §7).
func Load(dir string) (*Cache, error) {
	projPath := filepath.Join(dir, "project.toml")
	manPath := filepath.Join(dir, "manifest.toml")

	proj := &project.Project{}
	if data, err := os.ReadFile(projPath); err == nil {
		if err := toml.Unmarshal(data, proj); err != nil {
			return nil, pkgerr.Wrap(pkgerr.ParseFailure, err, "parsing %s", projPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, pkgerr.Wrap(pkgerr.IOFailure, err, "reading %s", projPath)
	}

	man := manifest.Manifest{}
	if data, err := os.ReadFile(manPath); err == nil {
		if err := toml.Unmarshal(data, &man); err != nil {
			return nil, pkgerr.Wrap(pkgerr.ParseFailure, err, "parsing %s", manPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, pkgerr.Wrap(pkgerr.IOFailure, err, "reading %s", manPath)
	}

	if err := man.CheckClosure(); err != nil {
		return nil, pkgerr.Wrap(pkgerr.ParseFailure, err, "manifest %s", manPath)
	}

	return &Cache{
		ProjectFilePath:  projPath,
		ManifestFilePath: manPath,
		Project:          proj,
		Manifest:         man,
		OriginalProject:  proj.Clone(),
		OriginalManifest: man.Clone(),
	}, nil
}

// Changed reports whether the live project/manifest differ from the
// snapshot captured at Load time.
func (c *Cache) Changed() bool {
	return !c.Project.Equal(c.OriginalProject) || !c.Manifest.Equal(c.OriginalManifest)
}

// ProjectPath, CurrentProject, CurrentManifest and OriginalState satisfy
// undo.Environment, letting an undo.Log snapshot this Cache directly.
func (c *Cache) ProjectPath() string { return c.ProjectFilePath }

func (c *Cache) CurrentProject() *project.Project { return c.Project }

func (c *Cache) CurrentManifest() manifest.Manifest { return c.Manifest }

func (c *Cache) OriginalState() (*project.Project, manifest.Manifest) {
	return c.OriginalProject, c.OriginalManifest
}

// Write atomically persists the project and manifest files via a
// temp-file-then-rename swap in the same directory, so a crash mid-write
// never leaves a half-written file (same trick as orphanage/usage ledger
// persistence).
func (c *Cache) Write() error {
	if err := writeAtomic(c.ProjectFilePath, c.Project); err != nil {
		return pkgerr.Wrap(pkgerr.IOFailure, err, "writing %s", c.ProjectFilePath)
	}
	if err := c.Manifest.CheckClosure(); err != nil {
		return pkgerr.Wrap(pkgerr.InvalidSpec, err, "refusing to write non-closed manifest")
	}
	if err := writeAtomic(c.ManifestFilePath, c.Manifest); err != nil {
		return pkgerr.Wrap(pkgerr.IOFailure, err, "writing %s", c.ManifestFilePath)
	}
	c.OriginalProject = c.Project.Clone()
	c.OriginalManifest = c.Manifest.Clone()
	return nil
}

func writeAtomic(path string, v any) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	return atomicfile.Write(path, buf.Bytes())
}

// ResolveProjectDeps fills in each spec's missing Name or UUID by
// consulting the project's dep map, failing with UnresolvedSpec when it
// cannot (spec §4.2).
func (c *Cache) ResolveProjectDeps(specs []specvalidate.Spec) ([]specvalidate.Spec, error) {
	return resolve(specs, c.Project.Deps)
}

// ResolveManifest fills in each spec's missing Name or UUID by consulting
// the manifest.
func (c *Cache) ResolveManifest(specs []specvalidate.Spec) ([]specvalidate.Spec, error) {
	byName := map[string]string{}
	for uuid, e := range c.Manifest {
		byName[e.Name] = uuid
	}
	return resolve(specs, byName)
}

func resolve(specs []specvalidate.Spec, nameToUUID map[string]string) ([]specvalidate.Spec, error) {
	uuidToNames := map[string][]string{}
	for name, uuid := range nameToUUID {
		uuidToNames[uuid] = append(uuidToNames[uuid], name)
	}

	out := make([]specvalidate.Spec, len(specs))
	for i, s := range specs {
		out[i] = s
		switch {
		case s.Name != "" && s.UUID == "":
			uuid, ok := nameToUUID[s.Name]
			if !ok {
				return nil, pkgerr.New(pkgerr.UnresolvedSpec, "package %q is not in the environment", s.Name)
			}
			out[i].UUID = uuid
		case s.Name == "" && s.UUID != "":
			names := uuidToNames[s.UUID]
			if len(names) == 0 {
				return nil, pkgerr.New(pkgerr.UnresolvedSpec, "uuid %q is not in the environment", s.UUID)
			}
			if len(names) > 1 {
				return nil, pkgerr.New(pkgerr.UnresolvedSpec, "uuid %q resolves ambiguously to multiple names", s.UUID)
			}
			out[i].Name = names[0]
		}
	}
	return out, nil
}

// EnsureResolved is the terminal check: every spec must now have both a
// name and a uuid, otherwise it fails listing every offender (spec §4.2).
func EnsureResolved(specs []specvalidate.Spec) error {
	var offenders []string
	for _, s := range specs {
		if s.Name == "" || s.UUID == "" {
			if s.Name != "" {
				offenders = append(offenders, s.Name)
			} else if s.UUID != "" {
				offenders = append(offenders, s.UUID)
			} else {
				offenders = append(offenders, "<empty spec>")
			}
		}
	}
	if len(offenders) > 0 {
		return pkgerr.New(pkgerr.UnresolvedSpec, "unresolved specs: %v", offenders)
	}
	return nil
}
