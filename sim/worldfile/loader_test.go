package worldfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamlet-sim/hamlet-sim/sim"
)

const villageDir = "testdata/village"

// writeWorldDir copies the village fixture into a temp dir and applies the
// given overrides, keyed by file name.
func writeWorldDir(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"world.json", "characters.json", "world.map"} {
		content, ok := overrides[name]
		if !ok {
			data, err := os.ReadFile(filepath.Join(villageDir, name))
			require.NoError(t, err)
			content = string(data)
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoad_Village_BuildsValidatedWorld(t *testing.T) {
	def, err := Load(villageDir)
	require.NoError(t, err)

	require.NoError(t, def.State.World.Validate())
	assert.Equal(t, "Town Plaza", def.State.World.Node("plaza").Name)
	assert.Equal(t, "Garden", def.State.World.Node("garden").Name, "missing name falls back to the id")
	assert.Equal(t, sim.NodeArea, def.State.World.Node("cafe").Kind)
	assert.Equal(t, "world", def.State.World.Node("plaza").ParentID)
}

func TestLoad_Village_PortalsOnlyDefineAdjacency(t *testing.T) {
	def, err := Load(villageDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"cafe", "garden"}, def.Graph.Neighbors("plaza"))
	// cafe and garden share the root but have no portal; they reach each
	// other only through the plaza.
	assert.Equal(t, []string{"plaza"}, def.Graph.Neighbors("cafe"))
	assert.Equal(t, []string{"garden", "plaza"}, def.Graph.ShortestPath("cafe", "garden"))
}

func TestLoad_Village_ObjectsAndAgents(t *testing.T) {
	def, err := Load(villageDir)
	require.NoError(t, err)

	require.Contains(t, def.State.Objects, "fridge1")
	assert.Equal(t, "stocked", def.State.Objects["fridge1"].State)
	assert.Equal(t, "cafe", def.State.World.Node("fridge1").ParentID)

	require.Contains(t, def.State.Agents, "alice")
	assert.Equal(t, "plaza", def.State.Agents["alice"].LocationID)
	assert.Equal(t, []string{"plaza", "cafe", "garden"}, def.State.Agents["alice"].PatrolRoute)
	assert.Equal(t, "Bob", def.State.Agents["bob"].Name, "missing name falls back to the id")
	assert.Equal(t, []string{"cafe"}, def.State.Agents["bob"].PatrolRoute, "default route is the start room")
}

func TestLoad_Village_TransitionsExtendDefaultCatalog(t *testing.T) {
	def, err := Load(villageDir)
	require.NoError(t, err)

	gate := def.State.Objects["gate1"]
	ev := def.Catalog.Apply(gate, "alice", sim.VerbOpen)
	assert.True(t, ev.Success)
	assert.Equal(t, "open", gate.State)
	assert.Equal(t, "gate_opened", ev.NarrationKey)

	// Stock types survive alongside the world's custom tables.
	door := &sim.Object{ID: "d", Type: "door", State: "closed"}
	assert.True(t, def.Catalog.Apply(door, "alice", sim.VerbOpen).Success)
}

func TestLoad_PortalToUnknownRoom_Fails(t *testing.T) {
	dir := writeWorldDir(t, map[string]string{"world.json": `{
		"rooms": [{"id": "plaza"}],
		"portals": [["plaza", "atlantis"]]
	}`})

	_, err := Load(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown room")
}

func TestLoad_SchemaViolation_MissingRoomID_Fails(t *testing.T) {
	dir := writeWorldDir(t, map[string]string{"world.json": `{"rooms": [{"name": "No ID"}]}`})

	_, err := Load(dir)

	assert.Error(t, err)
}

func TestLoad_SchemaViolation_UnknownField_Fails(t *testing.T) {
	dir := writeWorldDir(t, map[string]string{"world.json": `{"rooms": [{"id": "plaza"}], "weather": "rain"}`})

	_, err := Load(dir)

	assert.Error(t, err)
}

func TestLoad_BoundsExceedMap_Fails(t *testing.T) {
	dir := writeWorldDir(t, map[string]string{
		"world.json": `{"rooms": [{"id": "plaza", "bounds": {"x": 0, "y": 0, "width": 500, "height": 5}}]}`,
		"characters.json": `{"characters": [{"id": "alice", "start_room_id": "plaza"}]}`,
	})

	_, err := Load(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bounds exceed map")
}

func TestLoad_ObjectInUnknownRoom_Fails(t *testing.T) {
	dir := writeWorldDir(t, map[string]string{"world.json": `{
		"rooms": [{"id": "plaza"}],
		"objects": [{"id": "lamp1", "room_id": "attic", "type": "lamp"}]
	}`})

	_, err := Load(dir)

	assert.Error(t, err)
}

func TestLoad_CharacterInUnknownRoom_Fails(t *testing.T) {
	dir := writeWorldDir(t, map[string]string{
		"characters.json": `{"characters": [{"id": "alice", "start_room_id": "atlantis"}]}`,
	})

	_, err := Load(dir)

	assert.Error(t, err)
}

func TestLoad_NoCharacters_Fails(t *testing.T) {
	dir := writeWorldDir(t, map[string]string{"characters.json": `{"characters": []}`})

	_, err := Load(dir)

	assert.Error(t, err)
}

func TestLoad_MissingMapFile_Fails(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"world.json", "characters.json"} {
		data, err := os.ReadFile(filepath.Join(villageDir, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	_, err := Load(dir)

	assert.Error(t, err)
}
