//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a throwaway Postgres container. It skips the test when
// Docker is not available.
func setupPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "faces",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	container, err := func() (c testcontainers.Container, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
	}()
	if err != nil || container == nil {
		t.Skipf("Docker not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/faces?sslmode=disable", host, port.Port())
}

func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	dsn := setupPostgres(t)

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer s.Close(ctx)
	require.IsType(t, &Postgres{}, s)

	vec := testVector(0.1)
	id, err := s.AddUser(ctx, "alice", vec)
	require.NoError(t, err)
	assert.Positive(t, id)

	// Second open must not fail on the existing table
	s2, err := Open(ctx, dsn)
	require.NoError(t, err)
	_, err = s2.AddUser(ctx, "alice", testVector(0.2))
	require.NoError(t, err)
	require.NoError(t, s2.Close(ctx))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.InDeltaSlice(t, []float64(vec), []float64(users[0].Embedding), 1e-6)

	require.NoError(t, s.RenameUser(ctx, id, "alice-renamed"))
	assert.ErrorIs(t, s.RenameUser(ctx, 99999, "nobody"), ErrUserNotFound)
	require.NoError(t, s.DeleteUser(ctx, id))
	assert.ErrorIs(t, s.DeleteUser(ctx, id), ErrUserNotFound)

	require.NoError(t, s.Reset(ctx))
	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
