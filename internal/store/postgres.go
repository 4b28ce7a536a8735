package store

import (
	"context"
	"fmt"

	"github.com/andresmejia3/faceenroll/internal/embedding"
	"github.com/andresmejia3/faceenroll/internal/types"
	"github.com/jackc/pgx/v5"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT,
		embedding BYTEA
	);
`

// Postgres manages a single PostgreSQL connection holding the users table.
type Postgres struct {
	conn *pgx.Conn
}

// NewPostgres establishes a connection to the database and ensures the schema is initialized.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Postgres{conn: conn}, nil
}

// Close terminates the database connection.
func (s *Postgres) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// AddUser inserts a new enrollment and returns its ID.
func (s *Postgres) AddUser(ctx context.Context, name string, emb types.Embedding) (int64, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, "INSERT INTO users (name, embedding) VALUES ($1, $2) RETURNING id", name, embedding.Marshal(emb)).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, tx.Commit(ctx)
}

// ListUsers returns all enrollments ordered by id.
func (s *Postgres) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.conn.Query(ctx, "SELECT id, COALESCE(name, ''), embedding FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		var blob []byte
		if err := rows.Scan(&u.ID, &u.Name, &blob); err != nil {
			return nil, err
		}
		vec, err := embedding.Unmarshal(blob)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", u.ID, err)
		}
		u.Embedding = vec
		users = append(users, u)
	}
	return users, rows.Err()
}

// RenameUser updates the name of a known enrollment.
func (s *Postgres) RenameUser(ctx context.Context, id int64, name string) error {
	tag, err := s.conn.Exec(ctx, "UPDATE users SET name = $1 WHERE id = $2", name, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes one enrollment.
func (s *Postgres) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.conn.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Reset drops the users table to clear the database state, then recreates it.
func (s *Postgres) Reset(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, "DROP TABLE IF EXISTS users CASCADE"); err != nil {
		return err
	}
	_, err := s.conn.Exec(ctx, postgresSchema)
	return err
}
