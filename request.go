package simfs

// NodeType valid types are FolderNodeType "folder", FileNodeType "file"
type NodeType string

const (
	FolderNodeType NodeType = "folder"
	FileNodeType   NodeType = "file"
)

// Valid reports whether t is a known node type
func (t NodeType) Valid() bool {
	return t == FolderNodeType || t == FileNodeType
}

// CreateRequest describes a node to insert at Path (full path including the
// node's own name). It is produced by entrypoints such as node definition files
// and consumed by the file system's bootstrap insertion.
type CreateRequest struct {
	Path    string
	Type    NodeType
	UUID    string // Optional node identifier; generated when empty
	Content []byte // File content; ignored for folders
	Perms   string // Octal or symbolic mode; empty selects the type default
	Owner   string // Empty selects the file system's default actor
}
