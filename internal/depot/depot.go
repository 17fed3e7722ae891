// Package depot defines the on-disk layout of a depot (spec §3, §6): a
// filesystem root holding content-addressed packages, artifacts, clones,
// and scratch spaces, plus a logs/ tree.
package depot

import (
	"crypto/sha1" //nolint:gosec // spec mandates git-tree-style lowercase hex SHA-1 identifiers
	"encoding/hex"
	"path/filepath"
)

// Root is a single depot's filesystem root.
type Root string

func (r Root) Packages() string      { return filepath.Join(string(r), "packages") }
func (r Root) Artifacts() string     { return filepath.Join(string(r), "artifacts") }
func (r Root) Clones() string        { return filepath.Join(string(r), "clones") }
func (r Root) Scratchspaces() string { return filepath.Join(string(r), "scratchspaces") }
func (r Root) Logs() string          { return filepath.Join(string(r), "logs") }

func (r Root) ManifestUsageLog() string { return filepath.Join(r.Logs(), "manifest_usage.toml") }
func (r Root) ArtifactUsageLog() string { return filepath.Join(r.Logs(), "artifact_usage.toml") }
func (r Root) ScratchUsageLog() string  { return filepath.Join(r.Logs(), "scratch_usage.toml") }
func (r Root) OrphanedLog() string      { return filepath.Join(r.Logs(), "orphaned.toml") }

// PackagePath returns the extracted source tree location for a package
// given its name and tree-hash.
func (r Root) PackagePath(name, treeHash string) string {
	return filepath.Join(r.Packages(), name, Slug(treeHash))
}

// PackageDir returns the container directory for all slugs of a package
// name (used when pruning empty containers after GC).
func (r Root) PackageDir(name string) string {
	return filepath.Join(r.Packages(), name)
}

// ArtifactPath returns the extracted artifact location for a tree-hash.
func (r Root) ArtifactPath(treeHash string) string {
	return filepath.Join(r.Artifacts(), treeHash)
}

// ClonePath returns the bare git mirror location for a repo source.
func (r Root) ClonePath(source string) string {
	return filepath.Join(r.Clones(), CacheKey(source))
}

// ScratchPath returns a package's scratch directory, keyed by uuid and name.
func (r Root) ScratchPath(uuid, name string) string {
	return filepath.Join(r.Scratchspaces(), uuid, name)
}

// ScratchContainerDir returns the per-uuid container directory (used when
// pruning empty containers after GC).
func (r Root) ScratchContainerDir(uuid string) string {
	return filepath.Join(r.Scratchspaces(), uuid)
}

// Slug is the implementation-defined deterministic function of a tree-hash
// used as a package's directory name. It is the tree-hash itself: already
// a content address, already filesystem-safe, and stable across depots.
func Slug(treeHash string) string {
	return treeHash
}

// CacheKey derives the directory name used for a git clone mirror from its
// source URL — a SHA-1 hex digest, so two depots never collide and the
// key is filesystem-safe regardless of URL characters.
func CacheKey(source string) string {
	sum := sha1.Sum([]byte(source)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// HexTreeHash encodes a raw digest as lowercase hex, mirroring the
// "git-tree hashes are lowercase hex SHA-1" requirement in spec §6.
func HexTreeHash(raw []byte) string {
	return hex.EncodeToString(raw)
}
