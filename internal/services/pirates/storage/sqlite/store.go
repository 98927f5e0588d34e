package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/cryptopia-com/cryptopia-world/internal/platform/storage/sqlitemigrate"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Timestamps are stored as unix nanoseconds so records read back exactly as
// the manager clock produced them. The zero time is stored as 0.
func toNanos(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixNano()
}

func fromNanos(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.Unix(0, value).UTC()
}

func nullNanos(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toNanos(*value), Valid: true}
}

func fromNullNanos(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromNanos(value.Int64)
	return &t
}

// Store provides SQLite-backed persistence for pirates records.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

// DB returns the underlying sql.DB instance.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Open opens a SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, clock: time.Now}
	if _, err := sqlitemigrate.ApplyFS(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const confrontationColumns = `target, attacker, location, arrival_ns, deadline_at, expiration_at,
	escape_attempted, created_at, concluded_at, outcome`

// GetConfrontation returns the target's record.
func (s *Store) GetConfrontation(ctx context.Context, target string) (confrontation.Confrontation, error) {
	if err := ctx.Err(); err != nil {
		return confrontation.Confrontation{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+confrontationColumns+` FROM confrontations WHERE target = ?`, target)
	c, err := scanConfrontation(row)
	if err != nil {
		return confrontation.Confrontation{}, fmt.Errorf("get confrontation: %w", err)
	}
	return c, nil
}

// GetConfrontationByAttacker returns the newest record naming attacker.
func (s *Store) GetConfrontationByAttacker(ctx context.Context, attacker string) (confrontation.Confrontation, error) {
	if err := ctx.Err(); err != nil {
		return confrontation.Confrontation{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+confrontationColumns+` FROM confrontations
WHERE attacker = ? ORDER BY created_at DESC LIMIT 1`, attacker)
	c, err := scanConfrontation(row)
	if err != nil {
		return confrontation.Confrontation{}, fmt.Errorf("get confrontation by attacker: %w", err)
	}
	return c, nil
}

// GetPlunder returns the plunder record of the pair.
func (s *Store) GetPlunder(ctx context.Context, attacker, target string) (confrontation.Plunder, error) {
	if err := ctx.Err(); err != nil {
		return confrontation.Plunder{}, err
	}
	var (
		p         confrontation.Plunder
		deadline  int64
		createdAt int64
		lootedAt  sql.NullInt64
	)
	err := s.sqlDB.QueryRowContext(ctx, `SELECT attacker, target, deadline_at, loot_hash, looted_at, created_at
FROM plunders WHERE attacker = ? AND target = ?`, attacker, target).Scan(
		&p.Attacker, &p.Target, &deadline, &p.LootHash, &lootedAt, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return confrontation.Plunder{}, storage.ErrNotFound
	}
	if err != nil {
		return confrontation.Plunder{}, fmt.Errorf("get plunder: %w", err)
	}
	p.Deadline = fromNanos(deadline)
	p.CreatedAt = fromNanos(createdAt)
	p.LootedAt = fromNullNanos(lootedAt)
	if len(p.LootHash) == 0 {
		p.LootHash = nil
	}
	return p, nil
}

// NonceUsed reports whether nonce was consumed.
func (s *Store) NonceUsed(ctx context.Context, nonce confrontation.Nonce) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM offer_nonces WHERE subject = ? AND nonce = ?`,
		nonce.Subject, nonce.Value).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check nonce: %w", err)
	}
	return true, nil
}

// Commit writes change in one transaction.
func (s *Store) Commit(ctx context.Context, change confrontation.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if n := change.Nonce; n != nil {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO offer_nonces (subject, nonce, consumed_at) VALUES (?, ?, ?)`,
			n.Subject, n.Value, toNanos(s.clock()))
		if err != nil {
			return fmt.Errorf("consume nonce: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("consume nonce: %w", err)
		}
		if affected == 0 {
			return storage.ErrNonceUsed
		}
	}

	if c := change.Confrontation; c != nil {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO confrontations (`+confrontationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(target) DO UPDATE SET
	attacker = excluded.attacker,
	location = excluded.location,
	arrival_ns = excluded.arrival_ns,
	deadline_at = excluded.deadline_at,
	expiration_at = excluded.expiration_at,
	escape_attempted = excluded.escape_attempted,
	created_at = excluded.created_at,
	concluded_at = excluded.concluded_at,
	outcome = excluded.outcome
`,
			c.Target,
			c.Attacker,
			c.Location,
			c.Arrival.UTC().UnixNano(),
			toNanos(c.Deadline),
			toNanos(c.Expiration),
			c.EscapeAttempted,
			toNanos(c.CreatedAt),
			nullNanos(c.ConcludedAt),
			string(c.Outcome),
		); err != nil {
			return fmt.Errorf("put confrontation: %w", err)
		}
	}

	if p := change.Plunder; p != nil {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO plunders (attacker, target, deadline_at, loot_hash, looted_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(attacker, target) DO UPDATE SET
	deadline_at = excluded.deadline_at,
	loot_hash = excluded.loot_hash,
	looted_at = excluded.looted_at,
	created_at = excluded.created_at
`,
			p.Attacker,
			p.Target,
			toNanos(p.Deadline),
			p.LootHash,
			nullNanos(p.LootedAt),
			toNanos(p.CreatedAt),
		); err != nil {
			return fmt.Errorf("put plunder: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func scanConfrontation(row *sql.Row) (confrontation.Confrontation, error) {
	var (
		c           confrontation.Confrontation
		arrival     int64
		deadline    int64
		expiration  int64
		createdAt   int64
		concludedAt sql.NullInt64
		outcome     string
	)
	err := row.Scan(
		&c.Target,
		&c.Attacker,
		&c.Location,
		&arrival,
		&deadline,
		&expiration,
		&c.EscapeAttempted,
		&createdAt,
		&concludedAt,
		&outcome,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return confrontation.Confrontation{}, storage.ErrNotFound
	}
	if err != nil {
		return confrontation.Confrontation{}, err
	}
	c.Arrival = time.Unix(0, arrival).UTC()
	c.Deadline = fromNanos(deadline)
	c.Expiration = fromNanos(expiration)
	c.CreatedAt = fromNanos(createdAt)
	c.ConcludedAt = fromNullNanos(concludedAt)
	c.Outcome = confrontation.Outcome(outcome)
	return c, nil
}
