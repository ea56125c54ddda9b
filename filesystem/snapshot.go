package filesystem

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// ErrDigestMismatch indicates a stored snapshot whose tree does not match its digest
var ErrDigestMismatch = errors.New("snapshot digest mismatch")

// Snapshot is an immutable deep copy of a whole tree at a point in time
type Snapshot struct {
	ID      string
	Created time.Time
	Digest  string // hex blake3 of the encoded tree
	root    *Node
}

// Tree returns a fresh deep copy of the captured tree
func (s *Snapshot) Tree() *Node {
	return Clone(s.root)
}

// snapshotRecord is the stored form of a Snapshot
type snapshotRecord struct {
	ID      string          `json:"id"`
	Created time.Time       `json:"created"`
	Digest  string          `json:"digest"`
	Root    json.RawMessage `json:"root"`
}

func treeDigest(encoded []byte) string {
	sum := blake3.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

func newSnapshot(root *Node, now time.Time) (*Snapshot, error) {
	tree := Clone(root)
	encoded, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:      uuid.NewString(),
		Created: now,
		Digest:  treeDigest(encoded),
		root:    tree,
	}, nil
}

// MarshalJSON encodes the snapshot together with its tree
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	encoded, err := json.Marshal(s.root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snapshotRecord{
		ID:      s.ID,
		Created: s.Created,
		Digest:  s.Digest,
		Root:    encoded,
	})
}

// decodeSnapshot parses a stored snapshot and verifies its digest
func decodeSnapshot(data []byte) (*Snapshot, error) {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if got := treeDigest(rec.Root); got != rec.Digest {
		return nil, fmt.Errorf("%w: %s", ErrDigestMismatch, rec.ID)
	}
	var root Node
	if err := json.Unmarshal(rec.Root, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot tree: %w", err)
	}
	return &Snapshot{ID: rec.ID, Created: rec.Created, Digest: rec.Digest, root: &root}, nil
}

// SnapshotManager keeps a bounded, most-recent-first snapshot history.
// Restore always targets the head; older entries exist only to be listed.
type SnapshotManager struct {
	cap     int
	history []*Snapshot
}

func NewSnapshotManager(capacity int) *SnapshotManager {
	return &SnapshotManager{cap: max(1, capacity)}
}

// Create captures root, prepends it and returns the new snapshot along with
// any snapshots evicted past the cap.
func (m *SnapshotManager) Create(root *Node, now time.Time) (snap *Snapshot, evicted []*Snapshot, err error) {
	snap, err = newSnapshot(root, now)
	if err != nil {
		return nil, nil, err
	}
	evicted = m.push(snap)
	return snap, evicted, nil
}

func (m *SnapshotManager) push(snap *Snapshot) (evicted []*Snapshot) {
	m.history = slices.Insert(m.history, 0, snap)
	if len(m.history) > m.cap {
		evicted = slices.Clone(m.history[m.cap:])
		m.history = m.history[:m.cap]
	}
	return evicted
}

// Latest returns the most recent snapshot or [ErrNoSnapshot]
func (m *SnapshotManager) Latest() (*Snapshot, error) {
	if len(m.history) == 0 {
		return nil, ErrNoSnapshot
	}
	return m.history[0], nil
}

// List returns the history, most recent first
func (m *SnapshotManager) List() []*Snapshot {
	return slices.Clone(m.history)
}

func (m *SnapshotManager) Len() int {
	return len(m.history)
}

// load replaces the history with snaps ordered by creation time, newest
// first, and returns the ones that did not fit under the cap.
func (m *SnapshotManager) load(snaps []*Snapshot) (evicted []*Snapshot) {
	sorted := slices.Clone(snaps)
	slices.SortFunc(sorted, func(a, b *Snapshot) int { return b.Created.Compare(a.Created) })
	if len(sorted) > m.cap {
		evicted = sorted[m.cap:]
		sorted = sorted[:m.cap]
	}
	m.history = sorted
	return evicted
}
