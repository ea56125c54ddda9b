package filesystem

import (
	"slices"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/google/uuid"
)

// RootID is the stable identifier of every tree's root folder
const RootID = "root"

// Node is a file or folder entry in the tree. Folder-only and file-only fields
// are selected by Type: Children for folders, Content for files.
type Node struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      simfs.NodeType `json:"type"`
	Owner     string         `json:"owner"`
	Perms     Perms          `json:"perms"`
	Size      int64          `json:"size"`
	Created   time.Time      `json:"created"`
	Modified  time.Time      `json:"modified"`
	Corrupted bool           `json:"corrupted,omitempty"`
	Children  []*Node        `json:"children,omitempty"` // insertion order is display order
	Content   []byte         `json:"content,omitempty"`
}

// NewFolder returns an empty folder with the default folder permissions
func NewFolder(name, owner string, now time.Time) *Node {
	return &Node{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     simfs.FolderNodeType,
		Owner:    owner,
		Perms:    DefaultFolderPerms,
		Created:  now,
		Modified: now,
		Children: []*Node{},
	}
}

// NewFile returns a file holding a copy of content with the default file permissions
func NewFile(name, owner string, content []byte, now time.Time) *Node {
	data := make([]byte, len(content))
	copy(data, content)
	return &Node{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     simfs.FileNodeType,
		Owner:    owner,
		Perms:    DefaultFilePerms,
		Size:     int64(len(data)),
		Created:  now,
		Modified: now,
		Content:  data,
	}
}

func (n *Node) IsFolder() bool {
	return n.Type == simfs.FolderNodeType
}

func (n *Node) IsFile() bool {
	return n.Type == simfs.FileNodeType
}

func (n *Node) IsRoot() bool {
	return n.ID == RootID
}

// GetChild returns the direct child with the given name
func (n *Node) GetChild(name string) (child *Node, ok bool) {
	for _, ch := range n.Children {
		if ch.Name == name {
			return ch, true
		}
	}
	return nil, false
}

// AddChild appends child, keeping insertion order
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// RemoveChild detaches the direct child with the given id
func (n *Node) RemoveChild(id string) bool {
	i := slices.IndexFunc(n.Children, func(ch *Node) bool { return ch.ID == id })
	if i < 0 {
		return false
	}
	n.Children = slices.Delete(n.Children, i, i+1)
	return true
}

// setContent replaces a file's content and keeps Size in step
func (n *Node) setContent(content []byte) {
	n.Content = content
	n.Size = int64(len(content))
}

// Clone returns a structural deep copy of n's subtree. The copy shares no
// slices with n and keeps identifiers, so a cloned tree is deep-equal to its
// source.
func Clone(n *Node) *Node {
	return cloneTree(n, false)
}

// cloneFresh is Clone with new identifiers for every node, used when a copy
// must coexist with its source in the same tree.
func cloneFresh(n *Node) *Node {
	return cloneTree(n, true)
}

func cloneTree(src *Node, freshIDs bool) *Node {
	if src == nil {
		return nil
	}
	type pair struct{ src, dst *Node }

	dst := cloneNode(src, freshIDs)
	stack := []pair{{src, dst}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.src.Children == nil {
			continue
		}
		p.dst.Children = make([]*Node, len(p.src.Children))
		for i, ch := range p.src.Children {
			c := cloneNode(ch, freshIDs)
			p.dst.Children[i] = c
			stack = append(stack, pair{ch, c})
		}
	}
	return dst
}

// cloneNode copies n's own fields; children are filled in by the caller
func cloneNode(n *Node, freshID bool) *Node {
	c := *n
	c.Children = nil
	if n.Content != nil {
		c.Content = make([]byte, len(n.Content))
		copy(c.Content, n.Content)
	}
	if freshID {
		c.ID = uuid.NewString()
	}
	return &c
}
