package identitycache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-web-template/users"
	"github.com/stretchr/testify/require"
)

func testUser() *users.User {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &users.User{
		ID:        "1",
		Email:     "a@b.com",
		Role:      users.RoleUser,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}
}

func repos(t *testing.T) map[string]Repo {
	t.Helper()

	sqlite, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "nested", "identities.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Repo{
		"memory": NewMemoryRepo(),
		"sqlite": sqlite,
	}
}

func TestRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			u, err := repo.Get(ctx, "missing")
			require.NoError(t, err)
			require.Nil(t, u)

			require.NoError(t, repo.Upsert(ctx, "s1", testUser()))
			u, err = repo.Get(ctx, "s1")
			require.NoError(t, err)
			require.Equal(t, testUser(), u)

			require.NoError(t, repo.Upsert(ctx, "s1", nil))
			u, err = repo.Get(ctx, "s1")
			require.NoError(t, err)
			require.Nil(t, u)

			require.NoError(t, repo.Delete(ctx, "s1"))
			require.NoError(t, repo.Delete(ctx, "s1"))
		})
	}
}

func TestRepo_RequiresSessionID(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			require.Error(t, repo.Upsert(context.Background(), "", testUser()))
		})
	}
}

func TestRepo_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	sqlite, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "identities.db"))
	require.NoError(t, err)
	defer sqlite.Close()
	memory := NewMemoryRepo()

	for name, tc := range map[string]struct {
		repo   Repo
		setNow func(func() time.Time)
	}{
		"memory": {memory, func(f func() time.Time) { memory.nowFunc = f }},
		"sqlite": {sqlite, func(f func() time.Time) { sqlite.nowFunc = f }},
	} {
		t.Run(name, func(t *testing.T) {
			tc.setNow(func() time.Time { return now.Add(-48 * time.Hour) })
			require.NoError(t, tc.repo.Upsert(ctx, "old", testUser()))
			tc.setNow(func() time.Time { return now })
			require.NoError(t, tc.repo.Upsert(ctx, "fresh", testUser()))

			removed, err := tc.repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
			require.NoError(t, err)
			require.Equal(t, 1, removed)

			u, err := tc.repo.Get(ctx, "old")
			require.NoError(t, err)
			require.Nil(t, u)

			u, err = tc.repo.Get(ctx, "fresh")
			require.NoError(t, err)
			require.NotNil(t, u)
		})
	}
}

func TestSQLiteRepo_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identities.db")

	first, err := NewSQLiteRepo(path)
	require.NoError(t, err)
	require.NoError(t, first.Upsert(ctx, "s1", testUser()))
	require.NoError(t, first.Close())

	second, err := NewSQLiteRepo(path)
	require.NoError(t, err)
	defer second.Close()

	u, err := second.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, testUser().Email, u.Email)
}
