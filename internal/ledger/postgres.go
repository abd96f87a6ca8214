package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS delivery_ledger (
	id           TEXT PRIMARY KEY,
	identity_key TEXT NOT NULL,
	domain       TEXT NOT NULL,
	role         TEXT NOT NULL,
	unverified   BOOLEAN NOT NULL DEFAULT FALSE,
	company_name TEXT NOT NULL DEFAULT '',
	delivered_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_identity_key ON delivery_ledger(identity_key);
CREATE INDEX IF NOT EXISTS idx_ledger_delivered_at ON delivery_ledger(delivered_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Snapshot(ctx context.Context, horizon time.Duration) (*Snapshot, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-horizon)
	rows, err := s.pool.Query(ctx, `
		SELECT domain, role, unverified, company_name, delivered_at
		FROM delivery_ledger
		WHERE delivered_at > $1`, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: snapshot")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key.Domain, &e.Key.Role, &e.Key.Unverified, &e.CompanyName, &e.DeliveredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ledger entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: snapshot rows")
	}
	return NewSnapshot(now, entries), nil
}

// CommitDelivered appends this run's delivered keys via COPY, which lands
// the batch as a single atomic command.
func (s *PostgresStore) CommitDelivered(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			uuid.NewString(), e.Key.String(), e.Key.Domain, string(e.Key.Role),
			e.Key.Unverified, e.CompanyName, e.DeliveredAt.UTC(),
		})
	}
	_, err := db.CopyFrom(ctx, s.pool, "delivery_ledger",
		[]string{"id", "identity_key", "domain", "role", "unverified", "company_name", "delivered_at"}, rows)
	return eris.Wrap(err, "postgres: commit delivered")
}

func (s *PostgresStore) PruneExpired(ctx context.Context, horizon time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-horizon)
	tag, err := s.pool.Exec(ctx, `DELETE FROM delivery_ledger WHERE delivered_at <= $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM delivery_ledger`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count")
}
