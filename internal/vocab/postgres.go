package vocab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgx used by [PostgresStore]. Both *pgxpool.Pool and
// *pgx.Conn satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema is the vocabulary table definition applied by [Migrate].
const Schema = `
CREATE TABLE IF NOT EXISTS vocabulary (
	original   TEXT PRIMARY KEY,
	corrected  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the vocabulary table if it does not exist.
func Migrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("vocab: migrate: %w", err)
	}
	return nil
}

// PostgresStore is a [Store] backed by PostgreSQL.
type PostgresStore struct {
	db DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps db. Call [Migrate] first on fresh databases.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add implements [Store] with an upsert.
func (s *PostgresStore) Add(ctx context.Context, original, corrected string) error {
	key, err := normalizeKey(original)
	if err != nil {
		return err
	}
	corrected = strings.TrimSpace(corrected)
	if corrected == "" {
		return fmt.Errorf("vocab: corrected form must not be empty")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO vocabulary (original, corrected)
		VALUES ($1, $2)
		ON CONFLICT (original)
		DO UPDATE SET corrected = EXCLUDED.corrected, updated_at = now()`,
		key, corrected)
	if err != nil {
		return fmt.Errorf("vocab: add %q: %w", key, err)
	}
	return nil
}

// Get implements [Store].
func (s *PostgresStore) Get(ctx context.Context, original string) (string, error) {
	key, err := normalizeKey(original)
	if err != nil {
		return "", err
	}

	var corrected string
	err = s.db.QueryRow(ctx,
		`SELECT corrected FROM vocabulary WHERE original = $1`, key).
		Scan(&corrected)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("vocab: get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("vocab: get %q: %w", key, err)
	}
	return corrected, nil
}

// Remove implements [Store].
func (s *PostgresStore) Remove(ctx context.Context, original string) error {
	key, err := normalizeKey(original)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM vocabulary WHERE original = $1`, key)
	if err != nil {
		return fmt.Errorf("vocab: remove %q: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vocab: remove %q: %w", key, ErrNotFound)
	}
	return nil
}

// All implements [Store].
func (s *PostgresStore) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx, `SELECT original, corrected FROM vocabulary`)
	if err != nil {
		return nil, fmt.Errorf("vocab: list: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var original, corrected string
		if err := rows.Scan(&original, &corrected); err != nil {
			return nil, fmt.Errorf("vocab: list: %w", err)
		}
		out[original] = corrected
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vocab: list: %w", err)
	}
	return out, nil
}

// Entries implements [Store].
func (s *PostgresStore) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT original, corrected, created_at
		FROM vocabulary
		ORDER BY original`)
	if err != nil {
		return nil, fmt.Errorf("vocab: entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Original, &e.Corrected, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("vocab: entries: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vocab: entries: %w", err)
	}
	return out, nil
}
