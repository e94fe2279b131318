//go:build linux
// +build linux

// Package debugfs exposes live bridge state (parameter cache, shadow
// state, render registry, file-IPC staging files) as a read-only FUSE
// tree, so an operator can `ls`/`cat` their way through a running bridge
// instead of it being a black box once embedded in the host (spec.md's
// Design Notes imply operators need visibility; this is the mechanism
// SPEC_FULL.md adds for it). Modeled directly on vodfs.Root/file.go: a
// small fixed directory of nodes, each rendering its content on demand
// rather than caching a stale snapshot.
package debugfs

import (
	"context"
	"hash/fnv"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// StateProvider supplies the text content for each inspection file. Every
// method is called fresh on each getattr and read, so the tree always reflects current
// state; implementations should be cheap (a few sprintf'd lines) since
// spec.md's single-writer components make a coherent snapshot trivial to
// assemble.
type StateProvider interface {
	ParamCacheSnapshot() string
	ShadowSnapshot() string
	RenderRegistrySnapshot() string
	StagingSnapshot() string
}

// Root is the filesystem root: one fixed directory of inspection files.
type Root struct {
	fs.Inode
	Provider StateProvider
}

var _ fs.NodeLookuper = (*Root)(nil)
var _ fs.NodeReaddirer = (*Root)(nil)

func (r *Root) entries() map[string]func() string {
	return map[string]func() string{
		"params.txt":  r.Provider.ParamCacheSnapshot,
		"shadow.txt":  r.Provider.ShadowSnapshot,
		"renders.txt": r.Provider.RenderRegistrySnapshot,
		"staging.txt": r.Provider.StagingSnapshot,
	}
}

func (r *Root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	render, ok := r.entries()[name]
	if !ok {
		return nil, syscall.ENOENT
	}
	node := &dynamicFileNode{render: render}
	ch := r.NewInode(ctx, node, fs.StableAttr{Mode: fuse.S_IFREG, Ino: inoFromString("debugfs:" + name)})
	out.Mode = fuse.S_IFREG | 0444
	out.SetEntryTimeout(0)
	out.SetAttrTimeout(0)
	return ch, 0
}

func (r *Root) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names := r.entries()
	list := make([]fuse.DirEntry, 0, len(names))
	for name := range names {
		list = append(list, fuse.DirEntry{Name: name, Mode: fuse.S_IFREG})
	}
	return fs.NewListDirStream(list), 0
}

// dynamicFileNode calls render() fresh on every Getattr and Read; it is intentionally
// not cached, since the whole point is a live view of mutable bridge state.
type dynamicFileNode struct {
	fs.Inode
	render func() string
}

var _ fs.NodeGetattrer = (*dynamicFileNode)(nil)
var _ fs.NodeOpener = (*dynamicFileNode)(nil)
var _ fs.NodeReader = (*dynamicFileNode)(nil)

func (n *dynamicFileNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0444
	out.Size = uint64(len(n.render()))
	out.Mtime = uint64(time.Now().Unix())
	return 0
}

func (n *dynamicFileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *dynamicFileNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	content := []byte(n.render())
	if off >= int64(len(content)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(content)) {
		end = int64(len(content))
	}
	return fuse.ReadResultData(content[off:end]), 0
}

func inoFromString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Mount mounts the inspection tree at mountPoint, returning an unmount
// function. It blocks serving requests on a background goroutine.
func Mount(mountPoint string, provider StateProvider) (func(), error) {
	root := &Root{Provider: provider}
	server, err := fs.Mount(mountPoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{FsName: "flbridge-debugfs", Name: "flbridge-debugfs", Debug: false},
	})
	if err != nil {
		return nil, err
	}
	go server.Wait()
	return func() { server.Unmount() }, nil
}
