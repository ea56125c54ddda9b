package adapters

import (
	"context"
	"slices"

	"github.com/brettbedarf/simfs"
	"github.com/puzpuzpuz/xsync/v4"
)

// MemoryGateway implements [simfs.Gateway] in process memory. It keeps values
// across file system reloads within one process and is safe for concurrent use.
type MemoryGateway struct {
	values    *xsync.Map[string, []byte]
	snapshots *xsync.Map[string, []byte]
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		values:    xsync.NewMap[string, []byte](),
		snapshots: xsync.NewMap[string, []byte](),
	}
}

func (g *MemoryGateway) Load(_ context.Context, key string) ([]byte, error) {
	v, ok := g.values.Load(key)
	if !ok {
		return nil, simfs.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

func (g *MemoryGateway) Save(_ context.Context, key string, value []byte) error {
	g.values.Store(key, slices.Clone(value))
	return nil
}

func (g *MemoryGateway) PutSnapshot(_ context.Context, id string, data []byte) error {
	g.snapshots.Store(id, slices.Clone(data))
	return nil
}

func (g *MemoryGateway) DeleteSnapshot(_ context.Context, id string) error {
	g.snapshots.Delete(id)
	return nil
}

func (g *MemoryGateway) ListSnapshots(context.Context) ([]simfs.SnapshotRecord, error) {
	var recs []simfs.SnapshotRecord
	g.snapshots.Range(func(id string, data []byte) bool {
		recs = append(recs, simfs.SnapshotRecord{ID: id, Data: slices.Clone(data)})
		return true
	})
	return recs, nil
}

func (g *MemoryGateway) Close() error {
	return nil
}

var _ simfs.Gateway = (*MemoryGateway)(nil)
