package filesystem

// ClipMode is the pending clipboard operation
type ClipMode int

const (
	ClipCopy ClipMode = iota + 1
	ClipMove
)

func (m ClipMode) String() string {
	switch m {
	case ClipCopy:
		return "copy"
	case ClipMove:
		return "move"
	default:
		return "none"
	}
}

// Clipboard is a single pending copy or move.
// For copies Node is a detached deep copy taken at copy time; for moves NodeID
// references the live node, which is looked up again at paste time.
type Clipboard struct {
	Mode   ClipMode
	Node   *Node
	NodeID string
	Source string // absolute path at the time of the copy or move
}

// Session is the per-actor state passed to every operation: who is acting,
// where they are and what they have on the clipboard.
//
// NOTE: Session is not thread-safe; one session belongs to one caller.
type Session struct {
	Actor     Actor
	Admin     bool
	Cwd       string
	clipboard *Clipboard
}

// NewSession returns a session rooted at "/"
func NewSession(actor Actor, admin bool) *Session {
	return &Session{Actor: actor, Admin: admin, Cwd: "/"}
}

// Clipboard returns the pending clipboard entry, or nil
func (s *Session) Clipboard() *Clipboard {
	return s.clipboard
}

func (s *Session) can(n *Node, access Access) bool {
	return CheckPermission(n, access, s.Actor, s.Admin)
}
