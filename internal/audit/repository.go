package audit

import (
	"context"
	"database/sql"
)

// Repository is the persistence contract for system log entries.
//
// It MUST be append-only.
// No Update/Delete methods are provided.

type Repository interface {
	Append(ctx context.Context, e Entry) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresRepo appends entries to the system_logs table.
type PostgresRepo struct {
	db execer
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// NewPostgresTxRepo binds the repository to an open transaction so an entry
// commits or rolls back together with the work it describes.
func NewPostgresTxRepo(tx *sql.Tx) *PostgresRepo { return &PostgresRepo{db: tx} }

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_logs (id, level, category, message, request_id, ip_address, endpoint, metadata, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, '')::jsonb, $9)`,
		e.ID, string(e.Level), string(e.Category), e.Message,
		e.RequestID, e.IPAddress, e.Endpoint, e.Metadata, e.CreatedAt,
	)
	return err
}
