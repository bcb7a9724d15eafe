package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larkvale/docdeck/internal/config"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(config.StateConfig{Path: path, Secret: "test-secret"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCredentialRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	token, err := store.CurrentCredential(ctx, ScopeUser)
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, store.SetCredential(ctx, ScopeUser, "user-token"))

	token, err = store.CurrentCredential(ctx, ScopeUser)
	require.NoError(t, err)
	require.Equal(t, "user-token", token)
}

func TestScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	require.NoError(t, store.SetCredential(ctx, ScopeUser, "user-token"))
	require.NoError(t, store.SetCredential(ctx, ScopeAdmin, "admin-token"))

	require.NoError(t, store.ClearCredential(ctx, ScopeUser))

	token, err := store.CurrentCredential(ctx, ScopeUser)
	require.NoError(t, err)
	require.Empty(t, token)

	token, err = store.CurrentCredential(ctx, ScopeAdmin)
	require.NoError(t, err)
	require.Equal(t, "admin-token", token)
}

func TestSetCredentialReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	require.NoError(t, store.SetCredential(ctx, ScopeUser, "old"))
	require.NoError(t, store.SetCredential(ctx, ScopeUser, "new"))

	token, err := store.CurrentCredential(ctx, ScopeUser)
	require.NoError(t, err)
	require.Equal(t, "new", token)
}

func TestClearAbsentCredentialIsNoop(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	require.NoError(t, store.ClearCredential(ctx, ScopeAdmin))
}

func TestCredentialSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store := openStore(t, path)
	require.NoError(t, store.SetCredential(ctx, ScopeUser, "persisted"))
	require.NoError(t, store.Close())

	reopened := openStore(t, path)
	token, err := reopened.CurrentCredential(ctx, ScopeUser)
	require.NoError(t, err)
	require.Equal(t, "persisted", token)
}

func TestUnsealableCredentialReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store := openStore(t, path)
	require.NoError(t, store.SetCredential(ctx, ScopeUser, "sealed-under-old-secret"))
	require.NoError(t, store.Close())

	other, err := Open(config.StateConfig{Path: path, Secret: "a-different-secret"})
	require.NoError(t, err)
	defer other.Close()

	token, err := other.CurrentCredential(ctx, ScopeUser)
	require.NoError(t, err)
	require.Empty(t, token)

	// The stale row was dropped, so a new credential can be stored cleanly.
	require.NoError(t, other.SetCredential(ctx, ScopeUser, "fresh"))
	token, err = other.CurrentCredential(ctx, ScopeUser)
	require.NoError(t, err)
	require.Equal(t, "fresh", token)
}

func TestTokenFuncReadsLiveValue(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))
	read := store.TokenFunc(ScopeUser)

	token, err := read(ctx)
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, store.SetCredential(ctx, ScopeUser, "live"))
	token, err = read(ctx)
	require.NoError(t, err)
	require.Equal(t, "live", token)

	require.NoError(t, store.ClearCredential(ctx, ScopeUser))
	token, err = read(ctx)
	require.NoError(t, err)
	require.Empty(t, token)
}
