package depotfs

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// dirNode mirrors one real on-disk directory from a package's extracted
// source tree (spec §3.1's packages/<name>/<slug> layout).
type dirNode struct {
	fs.Inode
	realPath  string
	debug     bool
	listCache *listCache
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

var _ = (fs.NodeReaddirer)((*dirNode)(nil))
var _ = (fs.NodeLookuper)((*dirNode)(nil))
var _ = (fs.NodeMkdirer)((*dirNode)(nil))
var _ = (fs.NodeCreater)((*dirNode)(nil))

func (n *dirNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	if n.debug {
		log.Printf("depotfs: readdir %s", n.realPath)
	}

	if n.listCache != nil {
		if cached, ok := n.listCache.get(n.realPath); ok {
			return fs.NewListDirStream(cached), fs.OK
		}
	}

	children, err := os.ReadDir(n.realPath)
	if err != nil {
		return nil, syscall.EIO
	}

	entries := make([]fuse.DirEntry, 0, len(children))
	for _, c := range children {
		mode := uint32(fuse.S_IFREG)
		if c.IsDir() {
			mode = fuse.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: c.Name(), Mode: mode})
	}

	if n.listCache != nil {
		n.listCache.set(n.realPath, entries)
	}

	return fs.NewListDirStream(entries), fs.OK
}

func (n *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if n.debug {
		log.Printf("depotfs: lookup %s/%s", n.realPath, name)
	}
	childPath := filepath.Join(n.realPath, name)
	info, err := os.Stat(childPath)
	if err != nil {
		return nil, syscall.ENOENT
	}

	if info.IsDir() {
		child := n.NewInode(ctx, &dirNode{realPath: childPath, debug: n.debug, listCache: n.listCache}, fs.StableAttr{Mode: fuse.S_IFDIR})
		return child, fs.OK
	}

	child := n.NewInode(ctx, &fileNode{realPath: childPath, debug: n.debug}, fs.StableAttr{Mode: fuse.S_IFREG})
	return child, fs.OK
}

// Mkdir always fails: the view is read-only (spec §5).
func (n *dirNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return nil, syscall.EROFS
}

// Create always fails: the view is read-only (spec §5).
func (n *dirNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	return nil, nil, 0, syscall.EROFS
}
