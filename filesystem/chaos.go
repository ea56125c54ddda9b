package filesystem

import (
	"context"
	"encoding/json"

	"github.com/brettbedarf/simfs/internal/util"
	"github.com/brettbedarf/simfs/metrics"
)

// placeholder replaces unprintable bytes on repair
const placeholder = '?'

// CorruptReport lists the files damaged by a Corrupt call
type CorruptReport struct {
	Paths []string
}

// RepairOutcome is the fate of one corrupted node
type RepairOutcome struct {
	Path     string
	Repaired bool // false means the node was removed
}

// RepairReport lists every corrupted node found by a Repair call
type RepairReport struct {
	Items    []RepairOutcome
	Repaired int
	Removed  int
}

// Corrupt damages up to count distinct uncorrupted files by overwriting a
// random share of their bytes. A count <= 0 picks a count within the
// configured range. Sizes and permissions are never changed.
func (fs *FileSystem) Corrupt(count int) CorruptReport {
	defer metrics.RecordOperation("corrupt", nil)
	logger := util.GetLogger("FS.Corrupt")

	var candidates []*Node
	for _, n := range ListAllNodes(fs.root) {
		if n.IsFile() && !n.Corrupted {
			candidates = append(candidates, n)
		}
	}
	if count <= 0 {
		lo, hi := fs.cfg.CorruptMinFiles, fs.cfg.CorruptMaxFiles
		count = lo + fs.rand.IntN(hi-lo+1)
	}
	count = min(count, len(candidates))

	var report CorruptReport
	if count == 0 {
		logger.Debug().Msg("No files to corrupt")
		return report
	}
	// partial Fisher-Yates: the first count entries become the picks
	for i := range count {
		j := i + fs.rand.IntN(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	for _, n := range candidates[:count] {
		fs.corruptFile(n)
		report.Paths = append(report.Paths, PathOf(fs.root, n.ID))
	}
	fs.commit()

	logger.Info().Strs("paths", report.Paths).Msg("Corrupted files")
	return report
}

// corruptFile overwrites max(1, len*ratio) distinct bytes of n with random
// values and flags it
func (fs *FileSystem) corruptFile(n *Node) {
	if size := len(n.Content); size > 0 {
		lo, hi := fs.cfg.CorruptMinRatio, fs.cfg.CorruptMaxRatio
		ratio := lo + fs.rand.Float64()*(hi-lo)
		k := min(max(1, int(float64(size)*ratio)), size)

		positions := make([]int, size)
		for i := range positions {
			positions[i] = i
		}
		for i := range k {
			j := i + fs.rand.IntN(size-i)
			positions[i], positions[j] = positions[j], positions[i]
			n.Content[positions[i]] = byte(fs.rand.IntN(256))
		}
	}
	n.Corrupted = true
}

// Repair visits every corrupted node. Each one is repaired with the configured
// probability, replacing unprintable bytes with a placeholder, or otherwise
// removed from the tree.
func (fs *FileSystem) Repair() RepairReport {
	defer metrics.RecordOperation("repair", nil)
	logger := util.GetLogger("FS.Repair")

	var corrupted []*Node
	for _, n := range ListAllNodes(fs.root) {
		if n.Corrupted {
			corrupted = append(corrupted, n)
		}
	}

	var report RepairReport
	if len(corrupted) == 0 {
		return report
	}
	// paths first: removals below detach subtrees
	paths := make([]string, len(corrupted))
	for i, n := range corrupted {
		paths[i] = PathOf(fs.root, n.ID)
	}
	for i, n := range corrupted {
		repaired := n.IsRoot() || fs.rand.Float64() < fs.cfg.RepairProbability
		if repaired {
			sanitize(n.Content)
			n.Corrupted = false
			report.Repaired++
		} else {
			if parent := FindParent(fs.root, n.ID); parent != nil {
				parent.RemoveChild(n.ID)
			}
			report.Removed++
		}
		report.Items = append(report.Items, RepairOutcome{Path: paths[i], Repaired: repaired})
	}
	fs.commit()

	logger.Info().Int("repaired", report.Repaired).Int("removed", report.Removed).Msg("Repair finished")
	return report
}

func printable(b byte) bool {
	return (b >= 0x20 && b <= 0x7e) || b == '\t' || b == '\n' || b == '\r'
}

// sanitize replaces unprintable bytes in place, keeping the length
func sanitize(data []byte) {
	for i, b := range data {
		if !printable(b) {
			data[i] = placeholder
		}
	}
}

// Snapshot captures the whole tree at the head of the history, evicting the
// oldest entry past the cap. The snapshot is also stored through the gateway.
func (fs *FileSystem) Snapshot() (snap *Snapshot, err error) {
	defer func() { metrics.RecordOperation("snapshot", err) }()
	logger := util.GetLogger("FS.Snapshot")

	snap, evicted, err := fs.snapshots.Create(fs.root, fs.now())
	if err != nil {
		return nil, err
	}
	metrics.SetSnapshots(fs.snapshots.Len())
	if fs.gateway != nil {
		fs.storeSnapshot(snap)
		for _, old := range evicted {
			ctx, cancel := fs.saveCtx()
			fs.dropSnapshot(ctx, old)
			cancel()
		}
	}
	logger.Info().Str("id", snap.ID).Int("retained", fs.snapshots.Len()).Msg("Snapshot taken")
	return snap, nil
}

// Snapshots returns the retained history, most recent first
func (fs *FileSystem) Snapshots() []*Snapshot {
	return fs.snapshots.List()
}

// Restore replaces the live tree with a copy of the most recent snapshot.
// The snapshot stays in the history.
func (fs *FileSystem) Restore() (snap *Snapshot, err error) {
	defer func() { metrics.RecordOperation("restore", err) }()

	snap, err = fs.snapshots.Latest()
	if err != nil {
		return nil, err
	}
	fs.root = snap.Tree()
	fs.commit()
	util.GetLogger("FS.Restore").Info().Str("id", snap.ID).Msg("Restored snapshot")
	return snap, nil
}

func (fs *FileSystem) storeSnapshot(snap *Snapshot) {
	logger := util.GetLogger("FS.storeSnapshot")
	data, err := json.Marshal(snap)
	if err != nil {
		logger.Error().Err(err).Str("id", snap.ID).Msg("Failed to encode snapshot")
		metrics.RecordPersistFailure()
		return
	}
	ctx, cancel := fs.saveCtx()
	defer cancel()
	if err := fs.gateway.PutSnapshot(ctx, snap.ID, data); err != nil {
		logger.Warn().Err(err).Str("id", snap.ID).Msg("Failed to store snapshot")
		metrics.RecordPersistFailure()
	}
}

func (fs *FileSystem) dropSnapshot(ctx context.Context, snap *Snapshot) {
	if err := fs.gateway.DeleteSnapshot(ctx, snap.ID); err != nil {
		util.GetLogger("FS.dropSnapshot").Warn().Err(err).Str("id", snap.ID).Msg("Failed to delete evicted snapshot")
		metrics.RecordPersistFailure()
	}
}
