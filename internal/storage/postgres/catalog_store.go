// Package postgres provides the Postgres-backed catalog store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nerabuild/catalog-crawler/internal/catalog"
)

const defaultTable = "hardware"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for catalog rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// Store keeps canonical records in a single table with a unique
// (brand, model, category) constraint.
type Store struct {
	pool  pgxPool
	table string
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool pgxPool, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema creates the catalog table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	brand          TEXT NOT NULL,
	model          TEXT NOT NULL,
	category       TEXT NOT NULL,
	price          DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (price >= 0),
	original_price DOUBLE PRECISION,
	stock          INTEGER NOT NULL DEFAULT 0,
	image          TEXT NOT NULL DEFAULT '',
	images         JSONB NOT NULL DEFAULT '[]',
	specs          JSONB NOT NULL DEFAULT '{}',
	platform       JSONB NOT NULL DEFAULT '{}',
	model3d        JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	CONSTRAINT %[1]s_identity UNIQUE (brand, model, category)
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Lookup returns the id of the record stored under key.
func (s *Store) Lookup(ctx context.Context, key catalog.IdentityKey) (string, bool, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE brand = $1 AND model = $2 AND category = $3 LIMIT 1`, s.table)
	var id string
	err := s.pool.QueryRow(ctx, query, key.Brand, key.Model, string(key.Category)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", key, err)
	}
	return id, true, nil
}

// Insert writes a new row for record.
func (s *Store) Insert(ctx context.Context, record catalog.CanonicalRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	images, specs, platform, model3d, err := encodeDocuments(record)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	name,
	brand,
	model,
	category,
	price,
	original_price,
	stock,
	image,
	images,
	specs,
	platform,
	model3d,
	created_at,
	updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
)`, s.table)

	args := []any{
		record.ID,
		record.Name,
		record.Brand,
		record.Model,
		string(record.Category),
		record.Price,
		record.OriginalPrice,
		record.Stock,
		record.Image,
		images,
		specs,
		platform,
		model3d,
		record.CreatedAt,
		record.UpdatedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("insert %s: identity already stored: %w", record.Identity(), err)
		}
		return fmt.Errorf("insert %s: %w", record.Identity(), err)
	}
	return nil
}

// UpdateMutable refreshes the volatile columns of the row with id.
func (s *Store) UpdateMutable(ctx context.Context, id string, fields catalog.MutableFields) error {
	query := fmt.Sprintf(`
UPDATE %s
SET price = $2,
	original_price = $3,
	stock = $4,
	image = $5,
	updated_at = $6
WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id, fields.Price, fields.OriginalPrice, fields.Stock, fields.Image, fields.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: record not found", id)
	}
	return nil
}

func encodeDocuments(record catalog.CanonicalRecord) (images, specs, platform, model3d []byte, err error) {
	if record.Images == nil {
		record.Images = []string{}
	}
	if record.Specs == nil {
		record.Specs = map[string]any{}
	}
	if record.Platform == nil {
		record.Platform = map[string]catalog.PlatformRef{}
	}
	if images, err = json.Marshal(record.Images); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal images: %w", err)
	}
	if specs, err = json.Marshal(record.Specs); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal specs: %w", err)
	}
	if platform, err = json.Marshal(record.Platform); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal platform: %w", err)
	}
	if model3d, err = json.Marshal(record.Model3D); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal model3d: %w", err)
	}
	return images, specs, platform, model3d, nil
}
