package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamlet-sim/hamlet-sim/sim"
)

func samplePayload(tick int64) *sim.TickPayload {
	tree := sim.NewWorldTree("world", "World")
	state := sim.NewCanonicalState(tree)
	state.Tick = tick
	state.Agents["alice"] = &sim.Agent{ID: "alice", Name: "Alice", LocationID: "world"}

	beliefs := sim.NewBeliefState("alice")
	beliefs.Merge(sim.PerceptionSlice{Nodes: []sim.Node{{ID: "world", Kind: sim.NodeArea}}}, tick)

	return &sim.TickPayload{
		Tick:    tick,
		State:   state,
		Beliefs: map[string]*sim.BeliefState{"alice": beliefs},
		Events: []sim.Event{
			&sim.SayEvent{FromAgentID: "alice", ToAgentID: "bob", Utterance: "hi", AreaID: "world"},
			&sim.TimeAdvancedEvent{Tick: tick},
		},
	}
}

func TestReplay_WriteThenRead_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), RunLogName)
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(map[string]any{"seed": float64(42)}))
	require.NoError(t, w.WriteTick(samplePayload(0)))
	require.NoError(t, w.WriteTick(samplePayload(1)))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, float64(42), r.Header()["seed"])

	for want := int64(0); want < 2; want++ {
		tick, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, want, tick.Tick)
		assert.Equal(t, want, tick.State.Tick)
		assert.Equal(t, "alice", tick.State.Agents["alice"].ID)
		require.Len(t, tick.Events, 2)
		say, ok := tick.Events[0].(*sim.SayEvent)
		require.True(t, ok)
		assert.Equal(t, "hi", say.Utterance)
		assert.True(t, tick.Beliefs["alice"].Knows("world"))
	}

	_, err = r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestReplay_OnTick_DefersErrorsToClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), RunLogName)
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(nil))

	w.OnTick(samplePayload(0))

	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	tick, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(0), tick.Tick)
}

func TestReplay_SchemaMismatch_Refused(t *testing.T) {
	path := filepath.Join(t.TempDir(), RunLogName)
	writeRawLog(t, path, map[string]any{
		"type":           "header",
		"schema_version": SchemaVersion + 1,
	})

	_, err := Open(path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestReplay_MissingHeader_Refused(t *testing.T) {
	path := filepath.Join(t.TempDir(), RunLogName)
	writeRawLog(t, path, map[string]any{
		"type":           "tick",
		"schema_version": SchemaVersion,
		"payload":        map[string]any{"tick": 0},
	})

	_, err := Open(path)

	assert.Error(t, err)
}

func TestCreateRunDir_MakesTimestampedDirectory(t *testing.T) {
	base := t.TempDir()

	w, runDir, err := CreateRunDir(base)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, base, filepath.Dir(runDir))
	_, err = os.Stat(filepath.Join(runDir, RunLogName))
	assert.NoError(t, err)
}

// writeRawLog writes one hand-built record so tests can produce logs the
// Writer refuses to.
func writeRawLog(t *testing.T, path string, rec map[string]any) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(f)
	require.NoError(t, err)
	bw := bufio.NewWriter(enc)
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	_, err = bw.Write(append(data, '\n'))
	require.NoError(t, err)
	require.NoError(t, bw.Flush())
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}
