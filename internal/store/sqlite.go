package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/andresmejia3/faceenroll/internal/embedding"
	"github.com/andresmejia3/faceenroll/internal/types"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		embedding BLOB
	);
`

// SQLite stores enrollments in a local database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if missing) the database file at path and ensures
// the schema exists.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sql.Open is lazy, so this is where a bad path or permission surfaces
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// sqliteDSN adds connection options to path so every pooled connection gets them.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

// Close closes the database handle.
func (s *SQLite) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddUser inserts one row and commits before returning.
func (s *SQLite) AddUser(ctx context.Context, name string, emb types.Embedding) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "INSERT INTO users (name, embedding) VALUES (?, ?)", name, embedding.Marshal(emb))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// ListUsers returns all enrollments ordered by id.
func (s *SQLite) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, embedding FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var (
			u    types.User
			name sql.NullString
			blob []byte
		)
		if err := rows.Scan(&u.ID, &name, &blob); err != nil {
			return nil, err
		}
		u.Name = name.String
		vec, err := embedding.Unmarshal(blob)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", u.ID, err)
		}
		u.Embedding = vec
		users = append(users, u)
	}
	return users, rows.Err()
}

// RenameUser updates the name of an existing enrollment.
func (s *SQLite) RenameUser(ctx context.Context, id int64, name string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// DeleteUser removes one enrollment.
func (s *SQLite) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// Reset drops the users table and recreates it, which also restarts id assignment.
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS users"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
