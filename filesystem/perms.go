package filesystem

import (
	"fmt"
	"strconv"
)

// Access is a requested operation class, valued as its permission bit
type Access uint8

const (
	Execute Access = 1 << iota
	Write
	Read
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case Execute:
		return "execute"
	default:
		return fmt.Sprintf("access(%d)", uint8(a))
	}
}

// Triple is a read/write/execute mask for one of owner, group or others
type Triple uint8

// Has reports whether every bit of a is set in t
func (t Triple) Has(a Access) bool {
	return Triple(a)&t == Triple(a)
}

func (t Triple) String() string {
	b := []byte("---")
	if t.Has(Read) {
		b[0] = 'r'
	}
	if t.Has(Write) {
		b[1] = 'w'
	}
	if t.Has(Execute) {
		b[2] = 'x'
	}
	return string(b)
}

// Perms is the permission triple set of a node
type Perms struct {
	Owner  Triple
	Group  Triple
	Others Triple
}

// Default permissions for new nodes
var (
	DefaultFolderPerms = Perms{Owner: 7, Group: 5, Others: 4} // rwxr-xr--
	DefaultFilePerms   = Perms{Owner: 6, Group: 4, Others: 4} // rw-r--r--
)

// PermsFromMode builds Perms from the low 9 bits of an octal mode such as 0o750
func PermsFromMode(mode uint32) Perms {
	return Perms{
		Owner:  Triple((mode >> 6) & 7),
		Group:  Triple((mode >> 3) & 7),
		Others: Triple(mode & 7),
	}
}

// Mode returns the octal mode, e.g. 0o750
func (p Perms) Mode() uint32 {
	return uint32(p.Owner)<<6 | uint32(p.Group)<<3 | uint32(p.Others)
}

// String renders the symbolic form, e.g. "rwxr-x---"
func (p Perms) String() string {
	return p.Owner.String() + p.Group.String() + p.Others.String()
}

func (p Perms) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Perms) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseMode parses "750", "0750" or "rwxr-x---" into Perms.
// Any other input yields an error wrapping [ErrInvalidMode].
func ParseMode(s string) (Perms, error) {
	switch len(s) {
	case 3, 4:
		if len(s) == 4 && s[0] != '0' {
			break
		}
		mode, err := strconv.ParseUint(s, 8, 32)
		if err != nil {
			break
		}
		return PermsFromMode(uint32(mode)), nil
	case 9:
		var triples [3]Triple
		for i := range triples {
			t, ok := parseSymbolicTriple(s[i*3 : i*3+3])
			if !ok {
				return Perms{}, fmt.Errorf("%w: %q", ErrInvalidMode, s)
			}
			triples[i] = t
		}
		return Perms{Owner: triples[0], Group: triples[1], Others: triples[2]}, nil
	}
	return Perms{}, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func parseSymbolicTriple(s string) (Triple, bool) {
	var t Triple
	for i, want := range [3]byte{'r', 'w', 'x'} {
		switch s[i] {
		case want:
			t |= Triple(4 >> i)
		case '-':
		default:
			return 0, false
		}
	}
	return t, true
}

// Actor is the identity permissions are evaluated against
type Actor struct {
	Name string
	// Privileged actors are evaluated against the group triple of nodes they do not own
	Privileged bool
}

// CheckPermission reports whether actor may perform access on n.
// isAdmin overrides every triple. The function has no side effects.
func CheckPermission(n *Node, access Access, actor Actor, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	var triple Triple
	switch {
	case actor.Name == n.Owner:
		triple = n.Perms.Owner
	case actor.Privileged:
		triple = n.Perms.Group
	default:
		triple = n.Perms.Others
	}
	return triple.Has(access)
}
