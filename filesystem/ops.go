package filesystem

import (
	"fmt"
	"path"
	"slices"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/brettbedarf/simfs/metrics"
)

// Operations take paths as absolute, slash-separated strings; callers resolve
// relative paths against Session.Cwd first. Every failure is a *PathError and
// leaves the tree untouched.

// lookup resolves p or fails with ErrNotFound
func (fs *FileSystem) lookup(op, p string) (*Node, error) {
	node := ResolvePath(fs.root, p)
	if node == nil {
		return nil, pathErr(op, CleanPath(p), ErrNotFound)
	}
	return node, nil
}

// lookupWithParent resolves a non-root p along with its parent folder
func (fs *FileSystem) lookupWithParent(op, p string) (node, parent *Node, err error) {
	node, err = fs.lookup(op, p)
	if err != nil {
		return nil, nil, err
	}
	if node.IsRoot() {
		return nil, nil, pathErr(op, "/", ErrRootProtected)
	}
	parent = FindParent(fs.root, node.ID)
	if parent == nil {
		return nil, nil, pathErr(op, CleanPath(p), ErrNotFound)
	}
	return node, parent, nil
}

// Create adds a new file or folder called name inside parentPath, owned by the
// session's actor. Requires write permission on the parent.
func (fs *FileSystem) Create(s *Session, parentPath, name string, typ simfs.NodeType, content []byte) (node *Node, err error) {
	const op = "create"
	defer func() { metrics.RecordOperation(op, err) }()
	logger := util.GetLogger("FS.Create")

	p := path.Join(CleanPath(parentPath), name)
	if !typ.Valid() {
		return nil, pathErr(op, p, fmt.Errorf("unknown node type %q", typ))
	}
	if !validName(name) {
		return nil, pathErr(op, p, ErrInvalidName)
	}
	parent, err := fs.lookup(op, parentPath)
	if err != nil {
		return nil, err
	}
	if !parent.IsFolder() {
		return nil, pathErr(op, CleanPath(parentPath), ErrNotAFolder)
	}
	if !s.can(parent, Write) {
		return nil, pathErr(op, p, ErrPermissionDenied)
	}
	if _, exists := parent.GetChild(name); exists {
		return nil, pathErr(op, p, ErrNameConflict)
	}

	now := fs.now()
	if typ == simfs.FolderNodeType {
		node = NewFolder(name, s.Actor.Name, now)
	} else {
		node = NewFile(name, s.Actor.Name, content, now)
	}
	parent.AddChild(node)
	parent.Modified = now
	fs.commit()

	logger.Debug().Str("path", p).Str("type", string(typ)).Msg("Created node")
	return node, nil
}

// Rename changes the name of the node at p. Requires write permission on the
// node itself.
func (fs *FileSystem) Rename(s *Session, p, newName string) (err error) {
	const op = "rename"
	defer func() { metrics.RecordOperation(op, err) }()

	node, parent, err := fs.lookupWithParent(op, p)
	if err != nil {
		return err
	}
	if !validName(newName) {
		return pathErr(op, CleanPath(p), ErrInvalidName)
	}
	if !s.can(node, Write) {
		return pathErr(op, CleanPath(p), ErrPermissionDenied)
	}
	if sibling, exists := parent.GetChild(newName); exists && sibling != node {
		return pathErr(op, CleanPath(p), ErrNameConflict)
	}
	if node.Name == newName {
		return nil
	}

	node.Name = newName
	node.Modified = fs.now()
	fs.commit()
	util.GetLogger("FS.Rename").Debug().Str("path", CleanPath(p)).Str("name", newName).Msg("Renamed node")
	return nil
}

// Delete removes the node at p and its whole subtree. Requires write
// permission on the parent folder. The root can never be deleted.
func (fs *FileSystem) Delete(s *Session, p string) (err error) {
	const op = "delete"
	defer func() { metrics.RecordOperation(op, err) }()

	node, parent, err := fs.lookupWithParent(op, p)
	if err != nil {
		return err
	}
	if !s.can(parent, Write) {
		return pathErr(op, CleanPath(p), ErrPermissionDenied)
	}

	parent.RemoveChild(node.ID)
	parent.Modified = fs.now()
	fs.commit()
	util.GetLogger("FS.Delete").Debug().Str("path", CleanPath(p)).Msg("Deleted node")
	return nil
}

// Copy places a deep copy of the node at p on the session clipboard. The tree
// is not modified. Requires read permission on the node.
func (fs *FileSystem) Copy(s *Session, p string) (err error) {
	const op = "copy"
	defer func() { metrics.RecordOperation(op, err) }()

	node, _, err := fs.lookupWithParent(op, p)
	if err != nil {
		return err
	}
	if !s.can(node, Read) {
		return pathErr(op, CleanPath(p), ErrPermissionDenied)
	}
	s.clipboard = &Clipboard{Mode: ClipCopy, Node: Clone(node), Source: CleanPath(p)}
	return nil
}

// Move marks the node at p to be relocated by the next Paste. The tree is not
// modified. Requires write permission on the source parent.
func (fs *FileSystem) Move(s *Session, p string) (err error) {
	const op = "move"
	defer func() { metrics.RecordOperation(op, err) }()

	node, parent, err := fs.lookupWithParent(op, p)
	if err != nil {
		return err
	}
	if !s.can(parent, Write) {
		return pathErr(op, CleanPath(p), ErrPermissionDenied)
	}
	s.clipboard = &Clipboard{Mode: ClipMove, NodeID: node.ID, Source: CleanPath(p)}
	return nil
}

// Paste inserts the clipboard entry into the folder at destPath and clears the
// clipboard. A name already taken in the destination gets a " (N)" counter.
// Copies receive fresh identifiers; moves keep the node's identity.
func (fs *FileSystem) Paste(s *Session, destPath string) (node *Node, err error) {
	const op = "paste"
	defer func() { metrics.RecordOperation(op, err) }()

	clip := s.clipboard
	if clip == nil {
		return nil, pathErr(op, CleanPath(destPath), ErrNoClipboard)
	}
	dest, err := fs.lookup(op, destPath)
	if err != nil {
		return nil, err
	}
	if !dest.IsFolder() {
		return nil, pathErr(op, CleanPath(destPath), ErrNotAFolder)
	}
	if !s.can(dest, Write) {
		return nil, pathErr(op, CleanPath(destPath), ErrPermissionDenied)
	}

	now := fs.now()
	switch clip.Mode {
	case ClipCopy:
		node = cloneFresh(clip.Node)
		node.Name = uniqueName(dest, node.Name, nil)
		dest.AddChild(node)
	case ClipMove:
		var parent *Node
		node, parent = findNode(fs.root, clip.NodeID)
		if node == nil {
			return nil, pathErr(op, clip.Source, ErrNotFound)
		}
		if parent == nil {
			return nil, pathErr(op, "/", ErrRootProtected)
		}
		if node.IsFolder() && contains(node, dest.ID) {
			return nil, pathErr(op, CleanPath(destPath), ErrInvalidMove)
		}
		if !s.can(parent, Write) {
			return nil, pathErr(op, clip.Source, ErrPermissionDenied)
		}
		if parent != dest {
			name := uniqueName(dest, node.Name, nil)
			parent.RemoveChild(node.ID)
			parent.Modified = now
			node.Name = name
			dest.AddChild(node)
		}
	default:
		return nil, pathErr(op, CleanPath(destPath), ErrNoClipboard)
	}
	dest.Modified = now
	s.clipboard = nil
	fs.commit()

	util.GetLogger("FS.Paste").Debug().
		Str("mode", clip.Mode.String()).
		Str("source", clip.Source).
		Str("path", path.Join(CleanPath(destPath), node.Name)).
		Msg("Pasted node")
	return node, nil
}

// Chmod replaces the permissions of the node at p. Only the node's owner or an
// admin may change them.
func (fs *FileSystem) Chmod(s *Session, p, mode string) (err error) {
	const op = "chmod"
	defer func() { metrics.RecordOperation(op, err) }()

	node, err := fs.lookup(op, p)
	if err != nil {
		return err
	}
	if !s.Admin && s.Actor.Name != node.Owner {
		return pathErr(op, CleanPath(p), ErrPermissionDenied)
	}
	perms, err := ParseMode(mode)
	if err != nil {
		return pathErr(op, CleanPath(p), err)
	}

	node.Perms = perms
	fs.commit()
	util.GetLogger("FS.Chmod").Debug().Str("path", CleanPath(p)).Str("perms", perms.String()).Msg("Changed permissions")
	return nil
}

// Touch updates the modification time of the node at p, creating an empty
// file when nothing exists there. Requires write permission on the node, or
// on the parent when creating.
func (fs *FileSystem) Touch(s *Session, p string) (node *Node, err error) {
	const op = "touch"
	node = ResolvePath(fs.root, p)
	if node == nil {
		dir, name := path.Split(CleanPath(p))
		return fs.Create(s, dir, name, simfs.FileNodeType, nil)
	}
	defer func() { metrics.RecordOperation(op, err) }()
	if !s.can(node, Write) {
		return nil, pathErr(op, CleanPath(p), ErrPermissionDenied)
	}
	node.Modified = fs.now()
	fs.commit()
	return node, nil
}

// ReadFile returns a copy of the content of the file at p. Requires read
// permission on the file.
func (fs *FileSystem) ReadFile(s *Session, p string) (data []byte, err error) {
	const op = "read"
	defer func() { metrics.RecordOperation(op, err) }()

	node, err := fs.lookup(op, p)
	if err != nil {
		return nil, err
	}
	if node.IsFolder() {
		return nil, pathErr(op, CleanPath(p), ErrIsAFolder)
	}
	if !s.can(node, Read) {
		return nil, pathErr(op, CleanPath(p), ErrPermissionDenied)
	}
	return slices.Clone(node.Content), nil
}

// List returns the children of the folder at p in display order. Requires read
// permission on the folder. The returned nodes must not be modified.
func (fs *FileSystem) List(s *Session, p string) (children []*Node, err error) {
	const op = "list"
	defer func() { metrics.RecordOperation(op, err) }()

	node, err := fs.lookup(op, p)
	if err != nil {
		return nil, err
	}
	if !node.IsFolder() {
		return nil, pathErr(op, CleanPath(p), ErrNotAFolder)
	}
	if !s.can(node, Read) {
		return nil, pathErr(op, CleanPath(p), ErrPermissionDenied)
	}
	return slices.Clone(node.Children), nil
}

// Stat returns the node at p without any permission check, like stat(2) on a
// searchable path. The returned node must not be modified.
func (fs *FileSystem) Stat(p string) (*Node, error) {
	return fs.lookup("stat", p)
}

// ChangeDir moves the session's working directory to the folder at p.
// Requires execute permission on the folder.
func (fs *FileSystem) ChangeDir(s *Session, p string) (err error) {
	const op = "cd"
	defer func() { metrics.RecordOperation(op, err) }()

	node, err := fs.lookup(op, p)
	if err != nil {
		return err
	}
	if !node.IsFolder() {
		return pathErr(op, CleanPath(p), ErrNotAFolder)
	}
	if !s.can(node, Execute) {
		return pathErr(op, CleanPath(p), ErrPermissionDenied)
	}
	s.Cwd = CleanPath(p)
	return nil
}
