package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLBackend persists records in the MySQL table client_sessions.
type SQLBackend struct{ DB *sql.DB }

// NewSQLBackend wraps an open MySQL handle.
func NewSQLBackend(db *sql.DB) *SQLBackend { return &SQLBackend{DB: db} }

const createSessionsTable = `CREATE TABLE IF NOT EXISTS client_sessions (
	session_id    VARCHAR(64)  NOT NULL PRIMARY KEY,
	token         TEXT         NOT NULL,
	refresh_token TEXT         NULL,
	username      VARCHAR(150) NULL,
	expires_at    DATETIME     NOT NULL,
	updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	KEY idx_client_sessions_expires (expires_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the sessions table when it does not exist.
func (r *SQLBackend) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, createSessionsTable)
	return err
}

// Load returns the live record for id.
func (r *SQLBackend) Load(ctx context.Context, id string) (Record, error) {
	var (
		rec      Record
		refresh  sql.NullString
		username sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT token, refresh_token, username, expires_at FROM client_sessions WHERE session_id=? AND expires_at > ? LIMIT 1",
		id, time.Now().UTC()).Scan(&rec.Token, &refresh, &username, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.Refresh = refresh.String
	rec.Username = username.String
	return rec, nil
}

// Save upserts the record for id.
func (r *SQLBackend) Save(ctx context.Context, id string, rec Record) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO client_sessions (session_id, token, refresh_token, username, expires_at) VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE token=VALUES(token), refresh_token=VALUES(refresh_token),
		 username=VALUES(username), expires_at=VALUES(expires_at)`,
		id, rec.Token, nullable(rec.Refresh), nullable(rec.Username), rec.ExpiresAt.UTC())
	return err
}

// Delete removes the record for id.
func (r *SQLBackend) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM client_sessions WHERE session_id=?", id)
	return err
}

// Purge removes every expired record.
func (r *SQLBackend) Purge(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM client_sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
