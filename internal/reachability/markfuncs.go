package reachability

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jra3/pkgctl/internal/depot"
	"github.com/jra3/pkgctl/internal/manifest"
)

// PackageMarkFunc returns a ProcessFunc that treats indexFile as a
// manifest.toml path: for every entry carrying a tree-hash, it yields the
// depot-relative package path "packages/<name>/<slug>" (spec §4.5 package
// mark). Depot-relative paths let the GC Driver check reachability
// against any depot by joining with that depot's root.
func PackageMarkFunc() ProcessFunc {
	return func(indexFile string) ([]string, bool) {
		man, ok := readManifest(indexFile)
		if !ok {
			return nil, false
		}
		var paths []string
		for _, e := range man {
			if e.TreeHash == "" {
				continue
			}
			paths = append(paths, depot.Root("").PackagePath(e.Name, e.TreeHash))
		}
		return paths, true
	}
}

// RepoMarkFunc returns a ProcessFunc that, from the same manifest, yields
// the depot-relative clone path "clones/<cache-key>" for every entry
// carrying a repo source (spec §4.5 repo mark).
func RepoMarkFunc() ProcessFunc {
	return func(indexFile string) ([]string, bool) {
		man, ok := readManifest(indexFile)
		if !ok {
			return nil, false
		}
		var paths []string
		for _, e := range man {
			if e.Repo == nil || e.Repo.Source == "" {
				continue
			}
			paths = append(paths, depot.Root("").ClonePath(e.Repo.Source))
		}
		return paths, true
	}
}

func readManifest(path string) (manifest.Manifest, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var man manifest.Manifest
	if err := toml.Unmarshal(data, &man); err != nil {
		return nil, false
	}
	return man, true
}

// artifactEntry is the on-disk shape of one package's Artifacts.toml row:
// either a single tree-hash, or a list keyed by target platform.
type artifactEntry struct {
	TreeHash  string             `toml:"git-tree-sha1,omitempty"`
	Platforms []platformArtifact `toml:"platforms,omitempty"`
}

type platformArtifact struct {
	TreeHash string `toml:"git-tree-sha1"`
}

// ArtifactMarkFunc returns a ProcessFunc over Artifacts.toml index files.
// If indexFile lies under a package already scheduled for deletion, it is
// skipped (its artifacts are not kept alive); otherwise every referenced
// artifact tree-hash, single or platform-keyed, is marked (spec §4.5
// artifact mark). Packages must be marked before this is called —
// packagesToDelete must reflect marking's preliminary result.
func ArtifactMarkFunc(packagesToDelete map[string]struct{}) ProcessFunc {
	return func(indexFile string) ([]string, bool) {
		if underAny(indexFile, packagesToDelete) {
			return nil, false
		}
		data, err := os.ReadFile(indexFile)
		if err != nil {
			return nil, false
		}
		var index map[string]artifactEntry
		if err := toml.Unmarshal(data, &index); err != nil {
			return nil, false
		}
		var paths []string
		for _, e := range index {
			if e.TreeHash != "" {
				paths = append(paths, depot.Root("").ArtifactPath(e.TreeHash))
			}
			for _, p := range e.Platforms {
				if p.TreeHash != "" {
					paths = append(paths, depot.Root("").ArtifactPath(p.TreeHash))
				}
			}
		}
		return paths, true
	}
}

// ScratchMarkFunc returns a ProcessFunc over scratch directory paths.
// parentsOf returns the depot-relative package paths that created this
// scratch directory (recorded by the Usage Ledger's parent_projects set,
// translated to package paths by the caller); if every parent is itself
// scheduled for deletion, the scratch directory is skipped, otherwise it
// is marked reachable (spec §4.5 scratch mark).
func ScratchMarkFunc(parentsOf func(scratchDir string) []string, packagesToDelete map[string]struct{}) ProcessFunc {
	return func(indexFile string) ([]string, bool) {
		parents := parentsOf(indexFile)
		if len(parents) == 0 {
			return []string{indexFile}, true
		}
		for _, p := range parents {
			if _, dead := packagesToDelete[p]; !dead {
				return []string{indexFile}, true
			}
		}
		return nil, false
	}
}

func underAny(path string, prefixes map[string]struct{}) bool {
	for prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
