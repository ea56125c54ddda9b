package adapters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/simfs"
	"github.com/spf13/afero"
)

const (
	snapshotDir = "snapshots"
	jsonExt     = ".json"
)

// FileGateway implements [simfs.Gateway] as JSON files under a directory:
// <dir>/<key>.json for values and <dir>/snapshots/<id>.json for snapshots.
// Writes go to a temporary file that is renamed over the target, so a reader
// never sees a partial value.
type FileGateway struct {
	fs  afero.Fs
	dir string
}

// NewFileGateway creates dir and its snapshot folder on fs when missing
func NewFileGateway(fs afero.Fs, dir string) (*FileGateway, error) {
	if dir == "" {
		return nil, errors.New("file store requires a path")
	}
	if err := fs.MkdirAll(filepath.Join(dir, snapshotDir), 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &FileGateway{fs: fs, dir: dir}, nil
}

func (g *FileGateway) keyPath(key string) string {
	return filepath.Join(g.dir, key+jsonExt)
}

func (g *FileGateway) snapshotPath(id string) string {
	return filepath.Join(g.dir, snapshotDir, id+jsonExt)
}

func (g *FileGateway) Load(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(g.fs, g.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, simfs.ErrKeyNotFound
	} else if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (g *FileGateway) Save(_ context.Context, key string, value []byte) error {
	return g.writeAtomic(g.keyPath(key), value)
}

func (g *FileGateway) PutSnapshot(_ context.Context, id string, data []byte) error {
	return g.writeAtomic(g.snapshotPath(id), data)
}

func (g *FileGateway) DeleteSnapshot(_ context.Context, id string) error {
	err := g.fs.Remove(g.snapshotPath(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing snapshot %s: %w", id, err)
	}
	return nil
}

func (g *FileGateway) ListSnapshots(context.Context) ([]simfs.SnapshotRecord, error) {
	infos, err := afero.ReadDir(g.fs, filepath.Join(g.dir, snapshotDir))
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	var recs []simfs.SnapshotRecord
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, jsonExt) {
			continue
		}
		data, err := afero.ReadFile(g.fs, filepath.Join(g.dir, snapshotDir, name))
		if err != nil {
			return nil, fmt.Errorf("reading snapshot %s: %w", name, err)
		}
		recs = append(recs, simfs.SnapshotRecord{ID: strings.TrimSuffix(name, jsonExt), Data: data})
	}
	return recs, nil
}

func (g *FileGateway) Close() error {
	return nil
}

// writeAtomic writes data next to target and renames it into place
func (g *FileGateway) writeAtomic(target string, data []byte) error {
	next := target + ".next"
	f, err := g.fs.OpenFile(next, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", next, err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		err = fmt.Errorf("writing %s: %w", next, err)
	} else if err = f.Close(); err != nil {
		err = fmt.Errorf("closing %s: %w", next, err)
	} else if err = g.fs.Rename(next, target); err != nil {
		err = fmt.Errorf("renaming %s => %s: %w", next, target, err)
	}
	return err
}

var _ simfs.Gateway = (*FileGateway)(nil)
