package memory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresArchive stores transcript turns in PostgreSQL.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initArchiveSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresArchive{pool: pool}, nil
}

func initArchiveSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transcript_turns (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			pii_redacted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_turns_session_created ON transcript_turns (session_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (a *PostgresArchive) SaveTurn(ctx context.Context, turn ArchivedTurn) error {
	stampTurn(&turn)
	_, err := a.pool.Exec(ctx,
		`INSERT INTO transcript_turns (id, session_id, role, text, pii_redacted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.ID,
		turn.SessionID,
		turn.Role,
		turn.Text,
		turn.PIIRedacted,
		turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

func (a *PostgresArchive) RecentTurns(ctx context.Context, sessionID string, limit int) ([]ArchivedTurn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.pool.Query(ctx,
		`SELECT id, session_id, role, text, pii_redacted, created_at
		 FROM transcript_turns WHERE session_id=$1 ORDER BY created_at DESC LIMIT $2`,
		sessionID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent turns: %w", err)
	}
	defer rows.Close()

	items := make([]ArchivedTurn, 0, limit)
	for rows.Next() {
		var t ArchivedTurn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Text, &t.PIIRedacted, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}

	// Oldest first.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (a *PostgresArchive) Close() error {
	a.pool.Close()
	return nil
}
