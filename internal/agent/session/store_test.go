package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)

	s := NewSession("alpha", "claude")
	s.ConversationID = "sess-1"
	s.AddTurn("hello", "hi", 0.002, 900)
	require.NoError(t, store.Save(s))

	got, err := store.Load("alpha")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "sess-1", got.ConversationID)
	require.Equal(t, 1, got.TurnCount())
	require.Equal(t, 0.002, got.TotalCostUSD)
}

func TestStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Load("nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStore_LoadCorrupt(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.Dir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	_, err := store.Load("bad")
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupt")
	// The corrupt file is left in place for inspection.
	require.FileExists(t, path)
}

func TestStore_RejectsInvalidSave(t *testing.T) {
	store := newTestStore(t)

	s := NewSession("alpha", "claude")
	s.AddTurn("p", "r", 0.01, 100)
	s.TotalCostUSD = 99

	require.Error(t, store.Save(s))
	require.NoFileExists(t, filepath.Join(store.Dir(), "alpha.json"))
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(NewSession("alpha", "claude")))

	require.NoError(t, store.Delete("alpha"))
	got, err := store.Load("alpha")
	require.NoError(t, err)
	require.Nil(t, got)

	// Deleting again is a no-op.
	require.NoError(t, store.Delete("alpha"))
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, store.Save(NewSession(name, "claude")))
	}
	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0o644))

	names, err := store.List()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "bravo", "charlie"}, names)
}

func TestStore_CachedLoadSeesSave(t *testing.T) {
	store := newTestStore(t)
	s := NewSession("alpha", "claude")
	require.NoError(t, store.Save(s))

	_, err := store.Load("alpha")
	require.NoError(t, err)

	s.AddTurn("p", "r", 0.01, 100)
	require.NoError(t, store.Save(s))

	got, err := store.Load("alpha")
	require.NoError(t, err)
	require.Equal(t, 1, got.TurnCount())
}

func TestStore_LoadedSessionsAreIndependent(t *testing.T) {
	store := newTestStore(t)
	s := NewSession("alpha", "claude")
	s.AddTurn("p", "r", 0.01, 100)
	require.NoError(t, store.Save(s))

	first, err := store.Load("alpha")
	require.NoError(t, err)
	first.AddTurn("p2", "r2", 0.02, 100)
	first.ConversationID = "hijacked"

	// An unsaved mutation of one loaded copy never leaks into another.
	second, err := store.Load("alpha")
	require.NoError(t, err)
	require.Equal(t, 1, second.TurnCount())
	require.Empty(t, second.ConversationID)
}
