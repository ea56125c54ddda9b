package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/brettbedarf/simfs"
)

// Dialect holds the driver name and the statements of one SQL database.
// Postgres and SQLite differ only in placeholder syntax and blob type.
type Dialect struct {
	Driver         string
	schema         []string
	loadValue      string
	saveValue      string
	putSnapshot    string
	deleteSnapshot string
	listSnapshots  string
}

var (
	SQLite = Dialect{
		Driver: "sqlite3",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS simfs_values (key TEXT PRIMARY KEY, value BLOB NOT NULL)`,
			`CREATE TABLE IF NOT EXISTS simfs_snapshots (id TEXT PRIMARY KEY, data BLOB NOT NULL)`,
		},
		loadValue: `SELECT value FROM simfs_values WHERE key = ?`,
		saveValue: `INSERT INTO simfs_values (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		putSnapshot: `INSERT INTO simfs_snapshots (id, data) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET data = excluded.data`,
		deleteSnapshot: `DELETE FROM simfs_snapshots WHERE id = ?`,
		listSnapshots:  `SELECT id, data FROM simfs_snapshots`,
	}

	Postgres = Dialect{
		Driver: "postgres",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS simfs_values (key TEXT PRIMARY KEY, value BYTEA NOT NULL)`,
			`CREATE TABLE IF NOT EXISTS simfs_snapshots (id TEXT PRIMARY KEY, data BYTEA NOT NULL)`,
		},
		loadValue: `SELECT value FROM simfs_values WHERE key = $1`,
		saveValue: `INSERT INTO simfs_values (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		putSnapshot: `INSERT INTO simfs_snapshots (id, data) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		deleteSnapshot: `DELETE FROM simfs_snapshots WHERE id = $1`,
		listSnapshots:  `SELECT id, data FROM simfs_snapshots`,
	}
)

// SQLGateway implements [simfs.Gateway] on two key/blob tables
type SQLGateway struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLGateway connects with the dialect's driver, checks the connection
// and creates the tables when missing
func OpenSQLGateway(ctx context.Context, dialect Dialect, dsn string) (*SQLGateway, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s store requires a dsn or path", dialect.Driver)
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if dialect.Driver == SQLite.Driver {
		// a single connection serializes writers instead of failing with SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	g := &SQLGateway{db: db, dialect: dialect}
	if err := g.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return g, nil
}

func (g *SQLGateway) migrate(ctx context.Context) error {
	for _, stmt := range g.dialect.schema {
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (g *SQLGateway) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := g.db.QueryRowContext(ctx, g.dialect.loadValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, simfs.ErrKeyNotFound
	} else if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return value, nil
}

func (g *SQLGateway) Save(ctx context.Context, key string, value []byte) error {
	if _, err := g.db.ExecContext(ctx, g.dialect.saveValue, key, value); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (g *SQLGateway) PutSnapshot(ctx context.Context, id string, data []byte) error {
	if _, err := g.db.ExecContext(ctx, g.dialect.putSnapshot, id, data); err != nil {
		return fmt.Errorf("storing snapshot %s: %w", id, err)
	}
	return nil
}

func (g *SQLGateway) DeleteSnapshot(ctx context.Context, id string) error {
	if _, err := g.db.ExecContext(ctx, g.dialect.deleteSnapshot, id); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", id, err)
	}
	return nil
}

func (g *SQLGateway) ListSnapshots(ctx context.Context) ([]simfs.SnapshotRecord, error) {
	rows, err := g.db.QueryContext(ctx, g.dialect.listSnapshots)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var recs []simfs.SnapshotRecord
	for rows.Next() {
		var rec simfs.SnapshotRecord
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (g *SQLGateway) Close() error {
	return g.db.Close()
}

var _ simfs.Gateway = (*SQLGateway)(nil)
