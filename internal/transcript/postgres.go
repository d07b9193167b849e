package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists transcripts in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_owners (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			active BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS chat_turns (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES chat_owners(id),
			day TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL DEFAULT now(),
			role TEXT NOT NULL,
			content TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_turns_owner_day_ts ON chat_turns (owner_id, day, ts);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) FindOwner(ctx context.Context, id string) (Owner, error) {
	var o Owner
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, created_at, active FROM chat_owners WHERE id=$1`,
		id,
	).Scan(&o.ID, &o.Username, &o.Email, &o.CreatedAt, &o.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Owner{}, ErrOwnerNotFound
	}
	if err != nil {
		return Owner{}, fmt.Errorf("find owner: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) CreateOwner(ctx context.Context, owner Owner) (Owner, error) {
	if owner.CreatedAt.IsZero() {
		owner.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_owners (id, username, email, created_at, active)
		 VALUES ($1, $2, $3, $4, $5)`,
		owner.ID,
		owner.Username,
		owner.Email,
		owner.CreatedAt,
		owner.Active,
	)
	if err != nil {
		return Owner{}, fmt.Errorf("create owner: %w", err)
	}
	return owner, nil
}

func (s *PostgresStore) FindSystemTurn(ctx context.Context, date string) (Turn, bool, error) {
	var t Turn
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, day, ts, role, content
		 FROM chat_turns WHERE day=$1 AND role=$2 LIMIT 1`,
		date,
		RoleSystem,
	).Scan(&t.ID, &t.OwnerID, &t.Date, &t.Timestamp, &t.Role, &t.Content)
	if errors.Is(err, pgx.ErrNoRows) {
		return Turn{}, false, nil
	}
	if err != nil {
		return Turn{}, false, fmt.Errorf("find system turn: %w", err)
	}
	return t, true, nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, turn Turn) (Turn, error) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	if turn.Date == "" {
		turn.Date = turn.Timestamp.Format(DateLayout)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_turns (id, owner_id, day, ts, role, content)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.ID,
		turn.OwnerID,
		turn.Date,
		turn.Timestamp,
		turn.Role,
		turn.Content,
	)
	if err != nil {
		return Turn{}, fmt.Errorf("append turn: %w", err)
	}
	return turn, nil
}

func (s *PostgresStore) ListTurns(ctx context.Context, ownerID, date, excludeRole string) ([]Turn, error) {
	query := `SELECT id, owner_id, day, ts, role, content
		 FROM chat_turns WHERE owner_id=$1 AND day=$2`
	args := []any{ownerID, date}
	if excludeRole != "" {
		query += ` AND role <> $3`
		args = append(args, excludeRole)
	}
	query += ` ORDER BY ts ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Date, &t.Timestamp, &t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}
	return turns, nil
}

func (s *PostgresStore) DeleteTurns(ctx context.Context, ownerID, date, excludeRole string) (int64, error) {
	query := `DELETE FROM chat_turns WHERE owner_id=$1 AND day=$2`
	args := []any{ownerID, date}
	if excludeRole != "" {
		query += ` AND role <> $3`
		args = append(args, excludeRole)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete turns: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
