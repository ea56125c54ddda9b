// Package simfs contains core domain types and interfaces for the simulated file system
package simfs

import (
	"context"
	"errors"
)

// RootKey is the key the live tree is saved under
const RootKey = "root"

// ErrKeyNotFound is returned by [Gateway.Load] when nothing was ever saved under the key
var ErrKeyNotFound = errors.New("key not found")

// Gateway is the persistence collaborator of the file system. The tree is the
// source of truth while a session runs; a Gateway is a best-effort cache of it
// and implementations only need last-write-wins semantics per key.
type Gateway interface {
	// Load returns the value last saved under key or [ErrKeyNotFound]
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores value under key, replacing any previous value
	Save(ctx context.Context, key string, value []byte) error

	// PutSnapshot stores an encoded snapshot under its id
	PutSnapshot(ctx context.Context, id string, data []byte) error

	// DeleteSnapshot removes a stored snapshot. Removing an unknown id is not an error.
	DeleteSnapshot(ctx context.Context, id string) error

	// ListSnapshots returns every stored snapshot in no particular order
	ListSnapshots(ctx context.Context) ([]SnapshotRecord, error)

	// Close releases any resources (connections, clients) held by the gateway
	Close() error
}

// SnapshotRecord is an encoded snapshot as stored by a [Gateway]
type SnapshotRecord struct {
	ID   string
	Data []byte
}
