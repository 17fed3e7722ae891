// Package depotfs exposes a read-only FUSE view of an environment's
// resolved manifest (SPEC_FULL.md §5), adapted from the teacher's
// pkg/fuse. Top-level entries are manifest package names; each
// directory mirrors the real packages/<name>/<slug> tree from whichever
// depot owns that package. The view snapshots the manifest at mount
// time — it is not live-refreshing.
package depotfs

import (
	"context"
	"fmt"
	"log"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/jra3/pkgctl/internal/depot"
	"github.com/jra3/pkgctl/internal/envcache"
)

// listCacheTTL bounds how long a directory listing is reused before
// os.ReadDir runs again. The view already snapshots the manifest at
// mount time (spec §5: "not live-refreshing"), so caching listings for
// the lifetime of a short-lived browse session trades a little extra
// staleness for fewer syscalls against what's usually a network or
// slow-disk-backed depot mount.
const listCacheTTL = 10 * time.Second

// Root is the root node of a depot browser filesystem: one directory
// entry per manifest package, resolved against a depot search path.
type Root struct {
	fs.Inode

	depots    []depot.Root
	entries   map[string]pkgLocation
	debug     bool
	listCache *listCache
}

type pkgLocation struct {
	path string // resolved on-disk package tree, empty if unresolved
}

// New builds a Root snapshotting env's manifest against depots in
// search order (spec §3.1: first entry wins when more than one depot
// holds the same content).
func New(env *envcache.Cache, depots []string, debug bool) *Root {
	roots := make([]depot.Root, len(depots))
	for i, d := range depots {
		roots[i] = depot.Root(d)
	}

	entries := make(map[string]pkgLocation, len(env.Manifest))
	for _, entry := range env.Manifest {
		if entry.TreeHash == "" {
			continue
		}
		entries[entry.Name] = pkgLocation{path: resolvePackagePath(roots, entry.Name, entry.TreeHash)}
	}

	return &Root{
		depots:    roots,
		entries:   entries,
		debug:     debug,
		listCache: newListCache(listCacheTTL),
	}
}

func resolvePackagePath(depots []depot.Root, name, treeHash string) string {
	for _, d := range depots {
		candidate := d.PackagePath(name, treeHash)
		if dirExists(candidate) {
			return candidate
		}
	}
	if len(depots) > 0 {
		return depots[0].PackagePath(name, treeHash)
	}
	return ""
}

// Mount attaches the browser at mountpoint. Writes of any kind fail
// with syscall.EROFS — unlike the teacher's writable NewIssueFileNode,
// this view is inspection-only.
func Mount(env *envcache.Cache, depots []string, mountpoint string, debug bool) (*fuse.Server, error) {
	root := New(env, depots, debug)

	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:   "pkgctl-depotfs",
			FsName: "depotfs",
			Debug:  debug,
		},
	}

	server, err := fs.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, fmt.Errorf("mount failed: %w", err)
	}
	return server, nil
}

var _ = (fs.NodeReaddirer)((*Root)(nil))
var _ = (fs.NodeLookuper)((*Root)(nil))

func (r *Root) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	if r.debug {
		log.Printf("depotfs: readdir root")
	}
	dirEntries := make([]fuse.DirEntry, 0, len(r.entries))
	for name := range r.entries {
		dirEntries = append(dirEntries, fuse.DirEntry{Name: name, Mode: fuse.S_IFDIR})
	}
	return fs.NewListDirStream(dirEntries), fs.OK
}

func (r *Root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if r.debug {
		log.Printf("depotfs: lookup root %s", name)
	}
	loc, ok := r.entries[name]
	if !ok || loc.path == "" {
		return nil, syscall.ENOENT
	}

	child := r.NewInode(ctx, &dirNode{realPath: loc.path, debug: r.debug, listCache: r.listCache}, fs.StableAttr{Mode: fuse.S_IFDIR})
	return child, fs.OK
}
