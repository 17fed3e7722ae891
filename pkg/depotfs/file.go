package depotfs

import (
	"context"
	"log"
	"os"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// fileNode serves the real bytes of an on-disk file under a depot's
// package tree. Read-only: Write and Setattr both return EROFS.
type fileNode struct {
	fs.Inode
	realPath string
	debug    bool
}

var _ = (fs.NodeOpener)((*fileNode)(nil))
var _ = (fs.NodeReader)((*fileNode)(nil))
var _ = (fs.NodeWriter)((*fileNode)(nil))
var _ = (fs.NodeGetattrer)((*fileNode)(nil))
var _ = (fs.NodeSetattrer)((*fileNode)(nil))

func (n *fileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if n.debug {
		log.Printf("depotfs: open %s", n.realPath)
	}
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_DIRECT_IO, fs.OK
}

func (n *fileNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if n.debug {
		log.Printf("depotfs: read %s offset %d", n.realPath, off)
	}
	file, err := os.Open(n.realPath)
	if err != nil {
		return nil, syscall.EIO
	}
	defer file.Close()

	read, err := file.ReadAt(dest, off)
	if err != nil && read == 0 {
		return fuse.ReadResultData(nil), fs.OK
	}
	return fuse.ReadResultData(dest[:read]), fs.OK
}

func (n *fileNode) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	return 0, syscall.EROFS
}

func (n *fileNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := os.Stat(n.realPath)
	if err != nil {
		return syscall.EIO
	}
	out.Mode = 0444
	out.Size = uint64(info.Size())
	out.Mtime = uint64(info.ModTime().Unix())
	return fs.OK
}

func (n *fileNode) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}
