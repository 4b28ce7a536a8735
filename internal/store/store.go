package store

import (
	"context"
	"errors"
	"strings"

	"github.com/andresmejia3/faceenroll/internal/types"
)

// ErrUserNotFound is returned when an operation targets an id with no row.
var ErrUserNotFound = errors.New("user not found")

// Store persists enrollment records in the users table.
type Store interface {
	// AddUser inserts a new row and returns its id. Names are not deduplicated.
	AddUser(ctx context.Context, name string, emb types.Embedding) (int64, error)
	// ListUsers returns every row ordered by id.
	ListUsers(ctx context.Context) ([]types.User, error)
	RenameUser(ctx context.Context, id int64, name string) error
	DeleteUser(ctx context.Context, id int64) error
	// Reset drops the users table and recreates it empty.
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open picks a backend from the DSN. postgres:// and postgresql:// URLs go to
// PostgreSQL; anything else is treated as a SQLite file path.
// The users table is created if it does not exist.
func Open(ctx context.Context, dsn string) (Store, error) {
	if IsPostgres(dsn) {
		return NewPostgres(ctx, dsn)
	}
	return NewSQLite(ctx, dsn)
}

// IsPostgres reports whether the DSN addresses a PostgreSQL server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
