package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS delivery_ledger (
	id           TEXT PRIMARY KEY,
	identity_key TEXT NOT NULL,
	domain       TEXT NOT NULL,
	role         TEXT NOT NULL,
	unverified   INTEGER NOT NULL DEFAULT 0,
	company_name TEXT NOT NULL DEFAULT '',
	delivered_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_identity_key ON delivery_ledger(identity_key);
CREATE INDEX IF NOT EXISTS idx_ledger_delivered_at ON delivery_ledger(delivered_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Snapshot(ctx context.Context, horizon time.Duration) (*Snapshot, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-horizon)
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, role, unverified, company_name, delivered_at
		FROM delivery_ledger
		WHERE delivered_at > ?`, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: snapshot")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			unverified int
		)
		if err := rows.Scan(&e.Key.Domain, &e.Key.Role, &unverified, &e.CompanyName, &e.DeliveredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ledger entry")
		}
		e.Key.Unverified = unverified != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: snapshot rows")
	}
	return NewSnapshot(now, entries), nil
}

func (s *SQLiteStore) CommitDelivered(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin commit")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO delivery_ledger (id, identity_key, domain, role, unverified, company_name, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for _, e := range entries {
		unverified := 0
		if e.Key.Unverified {
			unverified = 1
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), e.Key.String(),
			e.Key.Domain, string(e.Key.Role), unverified, e.CompanyName, e.DeliveredAt.UTC()); err != nil {
			return eris.Wrapf(err, "sqlite: insert entry %s", e.Key.String())
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delivered")
}

func (s *SQLiteStore) PruneExpired(ctx context.Context, horizon time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-horizon)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM delivery_ledger WHERE delivered_at <= ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune rows affected")
	}
	return int(n), nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM delivery_ledger`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count")
}
