// Package server exports a file system tree read-only over FUSE
package server

import (
	"context"
	"os"
	"syscall"

	gofs "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/filesystem"
	"github.com/brettbedarf/simfs/internal/util"
)

// Export serves a point-in-time copy of a tree. Later edits to the live
// tree are not visible through the mount.
type Export struct {
	cfg    *config.Config
	root   *filesystem.Node
	uid    uint32
	gid    uint32
	server *fuse.Server
}

// New copies root for export. Nodes owned by the configured actor appear as
// owned by the mounting user; everything else appears owned by uid 0.
func New(cfg *config.Config, root *filesystem.Node) *Export {
	return &Export{
		cfg:  cfg,
		root: filesystem.Clone(root),
		uid:  uint32(os.Getuid()),
		gid:  uint32(os.Getgid()),
	}
}

// Serve mounts the export at mountPoint and returns once the mount is ready
func (e *Export) Serve(mountPoint string) error {
	logger := util.GetLogger("Export.Serve")
	opts := e.cfg.MountOptions
	srv, err := gofs.Mount(mountPoint, &dirNode{export: e, node: e.root}, &gofs.Options{
		MountOptions: fuse.MountOptions{
			Name:    opts.Name,
			FsName:  opts.FsName,
			Debug:   opts.Debug || e.cfg.LogLvl == util.TraceLevel,
			Logger:  util.NewLogLogger("FuseServer", util.DebugLevel),
			Options: []string{"ro"},
		},
	})
	if err != nil {
		return err
	}
	e.server = srv
	logger.Info().Str("mountpoint", mountPoint).Msg("Tree exported")
	return nil
}

// Wait blocks until the export is unmounted
func (e *Export) Wait() {
	if e.server != nil {
		e.server.Wait()
	}
}

// Unmount cleanly unmounts the export.
func (e *Export) Unmount() error {
	if e.server == nil {
		return nil
	}
	return e.server.Unmount()
}

// nodeAttr maps a tree node onto FUSE attributes
func (e *Export) nodeAttr(n *filesystem.Node) fuse.Attr {
	attr := fuse.Attr{
		Size:  uint64(n.Size),
		Mode:  n.Perms.Mode(),
		Nlink: 1,
	}
	if n.IsFolder() {
		attr.Mode |= fuse.S_IFDIR
		attr.Nlink = 2
	} else {
		attr.Mode |= fuse.S_IFREG
		attr.Blocks = (attr.Size + 511) / 512
	}
	if n.Owner == e.cfg.Actor {
		attr.Uid, attr.Gid = e.uid, e.gid
	}
	attr.SetTimes(&n.Modified, &n.Modified, &n.Created)
	return attr
}

// dirNode is a folder of the export. The root dirNode builds the whole inode
// tree when the kernel first attaches it.
type dirNode struct {
	gofs.Inode
	export *Export
	node   *filesystem.Node
}

var (
	_ = (gofs.NodeGetattrer)((*dirNode)(nil))
	_ = (gofs.NodeOnAdder)((*dirNode)(nil))
)

func (d *dirNode) Getattr(_ context.Context, _ gofs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Attr = d.export.nodeAttr(d.node)
	return 0
}

func (d *dirNode) OnAdd(ctx context.Context) {
	if !d.IsRoot() {
		return
	}
	type frame struct {
		inode *gofs.Inode
		node  *filesystem.Node
	}
	stack := []frame{{&d.Inode, d.node}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, ch := range f.node.Children {
			var child *gofs.Inode
			if ch.IsFolder() {
				child = f.inode.NewPersistentInode(ctx, &dirNode{export: d.export, node: ch}, gofs.StableAttr{Mode: fuse.S_IFDIR})
				stack = append(stack, frame{child, ch})
			} else {
				file := &gofs.MemRegularFile{Data: ch.Content, Attr: d.export.nodeAttr(ch)}
				child = f.inode.NewPersistentInode(ctx, file, gofs.StableAttr{Mode: fuse.S_IFREG})
			}
			f.inode.AddChild(ch.Name, child, false)
		}
	}
}
