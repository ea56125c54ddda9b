package requests

import "github.com/brettbedarf/simfs"

// NodeRequestDTO is the file representation of [simfs.CreateRequest]
type NodeRequestDTO struct {
	Path    string         `json:"path" yaml:"path"`
	Type    simfs.NodeType `json:"type" yaml:"type"`
	UUID    *string        `json:"uuid,omitempty" yaml:"uuid,omitempty"`       // Optional stable node id (Default random uuid)
	Content *string        `json:"content,omitempty" yaml:"content,omitempty"` // File text; ignored for folders
	Perms   *string        `json:"perms,omitempty" yaml:"perms,omitempty"`     // i.e. "0755" or "rwxr-xr-x" (Default by type)
	Owner   *string        `json:"owner,omitempty" yaml:"owner,omitempty"`     // (Default configured actor)
}
