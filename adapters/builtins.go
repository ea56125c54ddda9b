package adapters

import (
	"context"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/config"
	"github.com/spf13/afero"
)

type BuiltInStoreType = string

const (
	MemoryStoreType   BuiltInStoreType = "memory"
	FileStoreType     BuiltInStoreType = "file"
	SQLiteStoreType   BuiltInStoreType = "sqlite"
	PostgresStoreType BuiltInStoreType = "postgres"
	S3StoreType       BuiltInStoreType = "s3"
)

// RegisterBuiltins registers all built-in gateways by default
// or only the specific ones if keys are provided
func RegisterBuiltins(r *Registry, stores ...BuiltInStoreType) {
	if len(stores) == 0 {
		// Include all built-in gateways here when adding implementations
		stores = append(stores, MemoryStoreType, FileStoreType, SQLiteStoreType, PostgresStoreType, S3StoreType)
	}

	for _, key := range stores {
		switch key {
		case MemoryStoreType:
			r.Register(key, func(context.Context, config.StoreConfig) (simfs.Gateway, error) {
				return NewMemoryGateway(), nil
			})
		case FileStoreType:
			r.Register(key, func(_ context.Context, cfg config.StoreConfig) (simfs.Gateway, error) {
				return NewFileGateway(afero.NewOsFs(), cfg.Path)
			})
		case SQLiteStoreType:
			r.Register(key, func(ctx context.Context, cfg config.StoreConfig) (simfs.Gateway, error) {
				dsn := cfg.DSN
				if dsn == "" {
					dsn = cfg.Path
				}
				return OpenSQLGateway(ctx, SQLite, dsn)
			})
		case PostgresStoreType:
			r.Register(key, func(ctx context.Context, cfg config.StoreConfig) (simfs.Gateway, error) {
				return OpenSQLGateway(ctx, Postgres, cfg.DSN)
			})
		case S3StoreType:
			r.Register(key, NewS3Gateway)
		}
	}
}
