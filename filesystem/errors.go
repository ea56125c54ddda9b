package filesystem

import "errors"

// Operation errors. Every failed mutation leaves the tree unchanged.
var (
	// ErrPermissionDenied indicates the actor lacks the required permission bit.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNameConflict indicates a sibling with the same name already exists.
	ErrNameConflict = errors.New("name already exists")

	// ErrNotFound indicates a path or node does not exist.
	ErrNotFound = errors.New("no such file or folder")

	// ErrNotAFolder indicates a folder was required.
	ErrNotAFolder = errors.New("not a folder")

	// ErrIsAFolder indicates a file was required.
	ErrIsAFolder = errors.New("is a folder")

	// ErrRootProtected indicates an attempt to delete, rename or relocate the root.
	ErrRootProtected = errors.New("root folder is protected")

	// ErrInvalidMode indicates an unparsable permission mode.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrInvalidName indicates an empty name or one containing a path separator.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidMove indicates a folder would be moved into itself or a descendant.
	ErrInvalidMove = errors.New("cannot move a folder into itself")
)

// Clipboard and snapshot errors
var (
	// ErrNoClipboard indicates paste was called with nothing copied or cut.
	ErrNoClipboard = errors.New("clipboard is empty")

	// ErrNoSnapshot indicates restore was called with an empty history.
	ErrNoSnapshot = errors.New("no snapshot available")
)

// PathError records a failed operation and the path it was applied to.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func pathErr(op, p string, err error) error {
	return &PathError{Op: op, Path: p, Err: err}
}
