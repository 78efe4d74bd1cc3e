package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(id string, date time.Time, turns ...Turn) *Session {
	return &Session{ID: id, Date: date, Turns: turns}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), true)
	s := New()
	s.Append(Turn{Role: RoleUser, Content: "what is 2+2"})
	s.Append(Turn{Role: RoleAssistant, ToolCalls: []ToolCall{
		{ID: "call_1", Name: "calculate", Arguments: `{"expression":"2+2"}`},
	}})
	s.Append(Turn{Role: RoleTool, Content: "2+2 = 4", ToolCallID: "call_1"})
	s.Append(Turn{Role: RoleAssistant, Content: "2+2 is 4."})

	require.NoError(t, store.Save(s))

	loaded, err := store.Load(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.True(t, s.Date.Equal(loaded.Date))
	assert.Equal(t, s.Turns, loaded.Turns)
}

func TestStoreSaveOverwrites(t *testing.T) {
	store := NewStore(t.TempDir(), true)
	s := New()
	s.Append(Turn{Role: RoleUser, Content: "one"})
	require.NoError(t, store.Save(s))

	s.Append(Turn{Role: RoleAssistant, Content: "two"})
	require.NoError(t, store.Save(s))

	loaded, err := store.Load(s.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Turns, 2)
}

func TestStoreDisabledSaveIsNoop(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, false)
	s := New()
	s.Append(Turn{Role: RoleUser, Content: "hello"})

	require.NoError(t, store.Save(s))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir(), true)
	_, err := store.Load("20240101-000000")
	require.Error(t, err)
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0644))
	store := NewStore(dir, true)
	_, err := store.Load("bad")
	require.Error(t, err)
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(t.TempDir(), true)
	s := New()
	s.Append(Turn{Role: RoleUser, Content: "x"})
	require.NoError(t, store.Save(s))

	require.NoError(t, store.Delete(s.ID))
	_, err := store.Load(s.ID)
	require.Error(t, err)

	// Deleting an absent session is an error.
	require.Error(t, store.Delete(s.ID))
}

func TestStoreListNewestFirst(t *testing.T) {
	store := NewStore(t.TempDir(), true)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	old := testSession("20240301-100000", base, Turn{Role: RoleUser, Content: "old"})
	mid := testSession("20240302-100000", base.AddDate(0, 0, 1), Turn{Role: RoleUser, Content: "mid"})
	recent := testSession("20240303-100000", base.AddDate(0, 0, 2),
		Turn{Role: RoleUser, Content: "new"}, Turn{Role: RoleAssistant, Content: "hi"})

	for _, s := range []*Session{mid, recent, old} {
		require.NoError(t, store.Save(s))
	}

	sums := store.List()
	require.Len(t, sums, 3)
	assert.Equal(t, "20240303-100000", sums[0].ID)
	assert.Equal(t, "20240302-100000", sums[1].ID)
	assert.Equal(t, "20240301-100000", sums[2].ID)
	assert.Equal(t, 2, sums[0].TurnCount)
}

func TestStoreListMissingDirIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist"), true)
	assert.Empty(t, store.List())
}

func TestStoreListSkipsUnparsableFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, true)
	s := New()
	s.Append(Turn{Role: RoleUser, Content: "fine"})
	require.NoError(t, store.Save(s))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.json"), []byte("not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	sums := store.List()
	require.Len(t, sums, 1)
	assert.Equal(t, s.ID, sums[0].ID)
}
