package browsersession

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-web-template/gqlclient"
	apperrors "github.com/jrsteele09/go-web-template/internal/errors"
	"github.com/jrsteele09/go-web-template/session"
	"github.com/jrsteele09/go-web-template/session/identitycache"
	"github.com/jrsteele09/go-web-template/users"
	"github.com/stretchr/testify/require"
)

func newTestEntry(t *testing.T, id string, identities identitycache.Repo, lastSeen time.Time) Entry {
	t.Helper()

	cache := gqlclient.NewCache()
	transport := gqlclient.NewTransport("http://127.0.0.1:0/graphql", &http.Client{})
	store, err := session.NewStore(context.Background(), id, identities, transport, cache)
	require.NoError(t, err)

	return Entry{
		Store:     store,
		Client:    gqlclient.NewClient(transport, store, gqlclient.WithCache(cache)),
		CreatedAt: lastSeen,
		LastSeen:  lastSeen,
	}
}

func TestInMemoryRepo_CRUD(t *testing.T) {
	repo := NewInMemoryRepo()
	identities := identitycache.NewMemoryRepo()
	now := time.Now()

	_, err := repo.Get("missing")
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	require.Error(t, repo.Upsert("", newTestEntry(t, "a", identities, now)))
	require.Error(t, repo.Upsert("a", Entry{}))

	entry := newTestEntry(t, "a", identities, now)
	require.NoError(t, repo.Upsert("a", entry))

	got, err := repo.Get("a")
	require.NoError(t, err)
	require.Same(t, entry.Store, got.Store)

	later := now.Add(time.Minute)
	require.NoError(t, repo.Touch("a", later))
	got, err = repo.Get("a")
	require.NoError(t, err)
	require.True(t, later.Equal(got.LastSeen))
	require.ErrorIs(t, repo.Touch("missing", later), apperrors.ErrSessionNotFound)

	require.NoError(t, repo.Delete("a"))
	require.NoError(t, repo.Delete("a"))
	require.Equal(t, 0, repo.Len())
}

func TestSweeper_RemovesIdleSessionsAndIdentities(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepo()
	identities := identitycache.NewMemoryRepo()
	now := time.Now()

	idle := newTestEntry(t, "idle", identities, now.Add(-2*time.Hour))
	active := newTestEntry(t, "active", identities, now.Add(-time.Minute))
	require.NoError(t, repo.Upsert("idle", idle))
	require.NoError(t, repo.Upsert("active", active))

	user := users.User{ID: "user-1", Email: "john.doe@example.com"}
	require.NoError(t, idle.Store.SetAuth(ctx, "T1", user))
	require.NoError(t, active.Store.SetAuth(ctx, "T2", user))

	sweeper := NewSweeper(repo, identities, time.Hour)
	sweeper.nowFunc = func() time.Time { return now }

	require.Equal(t, 1, sweeper.Sweep(ctx))

	_, err := repo.Get("idle")
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	_, err = repo.Get("active")
	require.NoError(t, err)

	persisted, err := identities.Get(ctx, "idle")
	require.NoError(t, err)
	require.Nil(t, persisted)
	persisted, err = identities.Get(ctx, "active")
	require.NoError(t, err)
	require.NotNil(t, persisted)
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	sweeper := NewSweeper(NewInMemoryRepo(), identitycache.NewMemoryRepo(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
