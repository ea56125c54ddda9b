package filesystem

import (
	"fmt"
	"path"
	"strings"
)

// Tree walks. All of them use explicit stacks: trees loaded from a gateway may
// be arbitrarily deep and children never point back at parents, so no cycle
// handling is needed.

// SplitPath returns the non-empty segments of p. "/a/b", "a/b/" and "a//b"
// all yield [a b]; the root yields nothing.
func SplitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
}

// CleanPath returns the canonical absolute form of p
func CleanPath(p string) string {
	return path.Clean("/" + p)
}

// ResolvePath walks children by exact name from root. It returns nil when a
// segment is unmatched or a file is reached before the path ends.
func ResolvePath(root *Node, p string) *Node {
	cur := root
	for _, name := range SplitPath(p) {
		if !cur.IsFolder() {
			return nil
		}
		child, ok := cur.GetChild(name)
		if !ok {
			return nil
		}
		cur = child
	}
	return cur
}

// RecomputeSize returns the size of n. For folders the sum of all descendant
// file sizes is written back into every folder of the subtree, bottom-up.
func RecomputeSize(n *Node) int64 {
	if !n.IsFolder() {
		return n.Size
	}
	// Post-order: a folder is summed once all of its children are final.
	type frame struct {
		node    *Node
		visited bool
	}
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]
		if !f.node.IsFolder() {
			stack = stack[:top]
			continue
		}
		if !f.visited {
			stack[top].visited = true
			for _, ch := range f.node.Children {
				if ch.IsFolder() {
					stack = append(stack, frame{node: ch})
				}
			}
			continue
		}
		stack = stack[:top]
		var sum int64
		for _, ch := range f.node.Children {
			sum += ch.Size
		}
		f.node.Size = sum
	}
	return n.Size
}

// FindParent returns the immediate parent of the node with the given id, or
// nil when the id is unknown or names the root.
func FindParent(root *Node, id string) *Node {
	_, parent := findNode(root, id)
	return parent
}

// findNode returns the node with the given id and its parent. The parent is
// nil for the root and both are nil when the id is unknown.
func findNode(root *Node, id string) (node, parent *Node) {
	if root.ID == id {
		return root, nil
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, ch := range cur.Children {
			if ch.ID == id {
				return ch, cur
			}
			if ch.IsFolder() {
				stack = append(stack, ch)
			}
		}
	}
	return nil, nil
}

// ListAllNodes returns every node of the tree in pre-order (self before
// children, children in display order).
func ListAllNodes(root *Node) []*Node {
	var out []*Node
	stack := []*Node{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		// push in reverse so the first child is visited first
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return out
}

// PathOf returns the absolute path of the node with the given id, or "" when
// it is not part of the tree.
func PathOf(root *Node, id string) string {
	if root.ID == id {
		return "/"
	}
	type frame struct {
		node *Node
		path string
	}
	stack := []frame{{root, ""}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, ch := range f.node.Children {
			p := f.path + "/" + ch.Name
			if ch.ID == id {
				return p
			}
			if ch.IsFolder() {
				stack = append(stack, frame{ch, p})
			}
		}
	}
	return ""
}

// contains reports whether the subtree rooted at n holds a node with the given id
func contains(n *Node, id string) bool {
	node, _ := findNode(n, id)
	return node != nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.Contains(name, "/")
}

// uniqueName returns name, or name with a " (N)" counter inserted before the
// extension, such that no child of folder other than skip carries it.
func uniqueName(folder *Node, name string, skip *Node) string {
	taken := func(candidate string) bool {
		ch, ok := folder.GetChild(candidate)
		return ok && ch != skip
	}
	if !taken(name) {
		return name
	}
	ext := path.Ext(name)
	if ext == name {
		// dotfiles such as ".profile" have no extension to preserve
		ext = ""
	}
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if !taken(candidate) {
			return candidate
		}
	}
}
