package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/brettbedarf/simfs/metrics"
)

// RandSource drives corruption and repair. *rand.Rand from math/rand/v2
// satisfies it; tests inject fixed sources.
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// globalRand uses the auto-seeded math/rand/v2 top-level source
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// Option customizes a FileSystem at construction
type Option func(*FileSystem)

// WithGateway persists the tree and snapshots through gw
func WithGateway(gw simfs.Gateway) Option {
	return func(fs *FileSystem) { fs.gateway = gw }
}

// WithRand replaces the random source used by Corrupt and Repair
func WithRand(r RandSource) Option {
	return func(fs *FileSystem) { fs.rand = r }
}

// WithClock replaces the time source used for created/modified stamps
func WithClock(now func() time.Time) Option {
	return func(fs *FileSystem) { fs.now = now }
}

// FileSystem owns one tree, its snapshot history and its persistence.
// Operations are synchronous and single-threaded: callers must not share a
// FileSystem between goroutines without their own locking.
type FileSystem struct {
	cfg       *config.Config
	root      *Node // Root of node tree
	gateway   simfs.Gateway
	snapshots *SnapshotManager
	rand      RandSource
	now       func() time.Time
}

// NewFS creates a FileSystem holding the default tree. Without a gateway the
// tree lives in memory only.
func NewFS(cfg *config.Config, opts ...Option) *FileSystem {
	fs := &FileSystem{
		cfg:       cfg,
		snapshots: NewSnapshotManager(cfg.SnapshotCap),
		rand:      globalRand{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(fs)
	}
	fs.root = DefaultTree(fs.now())
	RecomputeSize(fs.root)
	fs.publishStats()
	return fs
}

// Root returns the live root folder. Callers must not modify it directly.
func (fs *FileSystem) Root() *Node {
	return fs.root
}

// Config returns the configuration the file system was created with
func (fs *FileSystem) Config() *config.Config {
	return fs.cfg
}

// NewSession returns a session for the configured actor
func (fs *FileSystem) NewSession() *Session {
	return NewSession(Actor{Name: fs.cfg.Actor, Privileged: fs.cfg.Privileged}, fs.cfg.Admin)
}

// Load replaces the tree and snapshot history with what the gateway holds.
// It reports false when nothing was saved yet, in which case the current tree
// is saved so later runs find it.
func (fs *FileSystem) Load(ctx context.Context) (bool, error) {
	logger := util.GetLogger("FS.Load")
	if fs.gateway == nil {
		return false, nil
	}

	data, err := fs.gateway.Load(ctx, simfs.RootKey)
	if errors.Is(err, simfs.ErrKeyNotFound) {
		logger.Info().Msg("No saved tree; using the default tree")
		fs.persist()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load tree: %w", err)
	}
	root, err := decodeTree(data)
	if err != nil {
		return false, err
	}
	fs.root = root
	RecomputeSize(fs.root)
	fs.publishStats()
	fs.loadSnapshots(ctx)
	logger.Info().Int("nodes", len(ListAllNodes(fs.root))).Int("snapshots", fs.snapshots.Len()).Msg("Loaded saved tree")
	return true, nil
}

func (fs *FileSystem) loadSnapshots(ctx context.Context) {
	logger := util.GetLogger("FS.loadSnapshots")
	recs, err := fs.gateway.ListSnapshots(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to list saved snapshots")
		return
	}
	snaps := make([]*Snapshot, 0, len(recs))
	for _, rec := range recs {
		snap, err := decodeSnapshot(rec.Data)
		if err != nil {
			logger.Warn().Err(err).Str("id", rec.ID).Msg("Skipping unreadable snapshot")
			continue
		}
		snaps = append(snaps, snap)
	}
	for _, old := range fs.snapshots.load(snaps) {
		fs.dropSnapshot(ctx, old)
	}
	metrics.SetSnapshots(fs.snapshots.Len())
}

// decodeTree parses an encoded tree and checks it has a usable root
func decodeTree(data []byte) (*Node, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree: %w", err)
	}
	if !root.IsFolder() {
		return nil, fmt.Errorf("saved root is a %q, not a folder", root.Type)
	}
	root.ID = RootID
	root.Name = ""
	return &root, nil
}

// Reset replaces the tree with one built from reqs, as if each were passed to
// AddNode on an empty root. The current tree is kept if any request fails.
func (fs *FileSystem) Reset(reqs []*simfs.CreateRequest) error {
	logger := util.GetLogger("FS.Reset")
	now := fs.now()
	root := newRoot(fs.cfg.Actor, now)
	for _, req := range reqs {
		if _, err := addNode(root, req, fs.cfg.Actor, now); err != nil {
			return err
		}
	}
	fs.root = root
	fs.commit()
	logger.Info().Int("requests", len(reqs)).Msg("Tree reset from node requests")
	return nil
}

// AddNode inserts the node described by req, creating missing parent folders
// like `mkdir -p`. It bypasses permission checks and is meant for seeding.
// Requesting a folder that already exists returns the existing folder.
func (fs *FileSystem) AddNode(req *simfs.CreateRequest) (*Node, error) {
	node, err := addNode(fs.root, req, fs.cfg.Actor, fs.now())
	if err != nil {
		return nil, err
	}
	fs.commit()
	return node, nil
}

func addNode(root *Node, req *simfs.CreateRequest, defaultOwner string, now time.Time) (*Node, error) {
	const op = "add"
	p := CleanPath(req.Path)
	if !req.Type.Valid() {
		return nil, pathErr(op, p, fmt.Errorf("unknown node type %q", req.Type))
	}
	segs := SplitPath(p)
	if len(segs) == 0 {
		return nil, pathErr(op, p, ErrRootProtected)
	}
	owner := req.Owner
	if owner == "" {
		owner = defaultOwner
	}
	var perms *Perms
	if req.Perms != "" {
		parsed, err := ParseMode(req.Perms)
		if err != nil {
			return nil, pathErr(op, p, err)
		}
		perms = &parsed
	}

	// Walk the existing part of the path first so a failure changes nothing
	cur := root
	depth := 0
	for ; depth < len(segs)-1; depth++ {
		child, ok := cur.GetChild(segs[depth])
		if !ok {
			break
		}
		if !child.IsFolder() {
			return nil, pathErr(op, p, ErrNotAFolder)
		}
		cur = child
	}
	name := segs[len(segs)-1]
	if depth == len(segs)-1 {
		if existing, ok := cur.GetChild(name); ok {
			if existing.IsFolder() && req.Type == simfs.FolderNodeType {
				return existing, nil
			}
			return nil, pathErr(op, p, ErrNameConflict)
		}
	}
	for _, dir := range segs[depth : len(segs)-1] {
		child := NewFolder(dir, owner, now)
		cur.AddChild(child)
		cur = child
	}

	var node *Node
	if req.Type == simfs.FolderNodeType {
		node = NewFolder(name, owner, now)
	} else {
		node = NewFile(name, owner, req.Content, now)
	}
	if req.UUID != "" {
		node.ID = req.UUID
	}
	if perms != nil {
		node.Perms = *perms
	}
	cur.AddChild(node)
	return node, nil
}

// Usage summarizes the whole tree
type Usage struct {
	Nodes     int
	Folders   int
	Files     int
	Corrupted int
	Bytes     int64
}

// Usage counts nodes by kind and state and reports the root size
func (fs *FileSystem) Usage() Usage {
	u := Usage{Bytes: fs.root.Size}
	for _, n := range ListAllNodes(fs.root) {
		u.Nodes++
		if n.IsFolder() {
			u.Folders++
		} else {
			u.Files++
		}
		if n.Corrupted {
			u.Corrupted++
		}
	}
	return u
}

// commit restores size bookkeeping after an edit and persists the tree
func (fs *FileSystem) commit() {
	RecomputeSize(fs.root)
	fs.publishStats()
	fs.persist()
}

func (fs *FileSystem) publishStats() {
	u := fs.Usage()
	metrics.SetTreeStats(u.Nodes, u.Corrupted, u.Bytes)
}

// saveCtx bounds a single gateway call by the configured save timeout
func (fs *FileSystem) saveCtx() (context.Context, context.CancelFunc) {
	if d := fs.cfg.SaveTimeoutDuration(); d > 0 {
		return context.WithTimeout(context.Background(), d)
	}
	return context.WithCancel(context.Background())
}

// persist writes the tree to the gateway. Failures are logged and counted but
// never undo the in-memory edit.
func (fs *FileSystem) persist() {
	if fs.gateway == nil {
		return
	}
	logger := util.GetLogger("FS.persist")

	data, err := json.Marshal(fs.root)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode tree")
		metrics.RecordPersistFailure()
		return
	}
	ctx, cancel := fs.saveCtx()
	defer cancel()
	if err := fs.gateway.Save(ctx, simfs.RootKey, data); err != nil {
		logger.Warn().Err(err).Msg("Failed to save tree")
		metrics.RecordPersistFailure()
		return
	}
	logger.Trace().Int("bytes", len(data)).Msg("Saved tree")
}
