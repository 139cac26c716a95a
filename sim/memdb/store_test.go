package memdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamlet-sim/hamlet-sim/sim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "memories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_AppendAndRecords_PreservesOrder(t *testing.T) {
	store := openTestStore(t)

	recs := []*sim.MemoryRecord{
		{ID: "m1", Description: "alice at the plaza", CreatedAt: 0, LastAccessedAt: 0, Importance: 3, Kind: sim.MemoryObservation},
		{ID: "m2", Description: "alice opens the fridge", CreatedAt: 1, LastAccessedAt: 1, Importance: 7, Kind: sim.MemoryAction},
		{ID: "m3", Description: "a routine is forming", CreatedAt: 2, LastAccessedAt: 2, Importance: 9, Kind: sim.MemoryReflection, Links: []string{"m1", "m2"}},
	}
	for _, rec := range recs {
		require.NoError(t, store.Append("alice", rec))
	}

	got, err := store.Records("alice")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, rec := range recs {
		assert.Equal(t, rec.ID, got[i].ID)
		assert.Equal(t, rec.Description, got[i].Description)
		assert.Equal(t, rec.Importance, got[i].Importance)
		assert.Equal(t, rec.Kind, got[i].Kind)
	}
	assert.Equal(t, []string{"m1", "m2"}, got[2].Links)
}

func TestStore_Records_FilteredByAgent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Append("alice", &sim.MemoryRecord{ID: "a1", Description: "x", Importance: 1, Kind: sim.MemoryObservation}))
	require.NoError(t, store.Append("bob", &sim.MemoryRecord{ID: "b1", Description: "y", Importance: 1, Kind: sim.MemoryObservation}))

	aliceRecs, err := store.Records("alice")
	require.NoError(t, err)
	require.Len(t, aliceRecs, 1)
	assert.Equal(t, "a1", aliceRecs[0].ID)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_Records_UnknownAgent_Empty(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Records("nobody")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpen_EmptyPath_Fails(t *testing.T) {
	_, err := Open("")

	assert.Error(t, err)
}

func TestStore_ImplementsMemoryLog(t *testing.T) {
	var _ sim.MemoryLog = (*Store)(nil)
}
