//go:build integration

package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/clubhouse/clubhouse/internal/auth"
	"github.com/clubhouse/clubhouse/internal/messages"
	"github.com/clubhouse/clubhouse/internal/platform/db"
	"github.com/clubhouse/clubhouse/internal/shared"
	"github.com/clubhouse/clubhouse/internal/users"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "clubhouse_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/clubhouse_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	pool, err := db.New(ctx, dsn, db.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))
	// Migrate is idempotent.
	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE user_sessions, messages, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := users.NewRepository(openPool(t))

	u := &users.User{Username: "jane", FirstName: "Jane", LastName: "Doe", PasswordHash: "hash"}
	require.NoError(t, repo.Insert(ctx, u))
	require.NotZero(t, u.ID)
	assert.False(t, u.IsMember)

	dup := &users.User{Username: "jane", FirstName: "Other", LastName: "Doe", PasswordHash: "hash"}
	assert.ErrorIs(t, repo.Insert(ctx, dup), shared.ErrDuplicate)

	byName, err := repo.FindByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byName.IsMember = true
	require.NoError(t, repo.Update(ctx, byName))
	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, byID.IsMember)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &users.User{ID: 9999}), shared.ErrNotFound)
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	pool := openPool(t)
	userRepo := users.NewRepository(pool)
	repo := messages.NewRepository(pool)

	author := &users.User{Username: "jane", FirstName: "Jane", LastName: "Doe", PasswordHash: "hash"}
	require.NoError(t, userRepo.Insert(ctx, author))

	first := &messages.Message{AuthorID: &author.ID, Title: "first", Text: "one"}
	require.NoError(t, repo.Insert(ctx, first))
	second := &messages.Message{AuthorID: &author.ID, Title: "second", Text: "two"}
	require.NoError(t, repo.Insert(ctx, second))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Title)
	require.NotNil(t, all[0].Author)
	assert.Equal(t, "Jane Doe", all[0].Author.FullName())

	got, err := repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Text)

	require.NoError(t, repo.Remove(ctx, first.ID))
	assert.ErrorIs(t, repo.Remove(ctx, first.ID), shared.ErrNotFound)
	_, err = repo.FindByID(ctx, first.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, author.ID)
	require.NoError(t, err)
	orphan, err := repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.AuthorID)
	assert.Nil(t, orphan.Author)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	pool := openPool(t)
	userRepo := users.NewRepository(pool)
	repo := auth.NewRepository(pool)

	u := &users.User{Username: "jane", FirstName: "Jane", LastName: "Doe", PasswordHash: "hash"}
	require.NoError(t, userRepo.Insert(ctx, u))

	now := time.Now()
	require.NoError(t, repo.CreateSession(ctx, "live", u.ID, now.Add(time.Hour), "127.0.0.1", "test"))
	require.NoError(t, repo.CreateSession(ctx, "stale", u.ID, now.Add(-time.Hour), "", ""))

	pruned, err := repo.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	require.NoError(t, repo.DeleteSession(ctx, "live"))
	var remaining int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_sessions`).Scan(&remaining))
	assert.Zero(t, remaining)
}
