package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// perceptionWorld: plaza (alice, bob, lamp1) - cafe, with a graph edge.
func perceptionWorld(t *testing.T) (*CanonicalState, *LocationGraph) {
	t.Helper()
	tree := NewWorldTree("world", "World")
	require.NoError(t, tree.AddNode(&Node{ID: "plaza", Name: "Plaza", Kind: NodeArea}, "world"))
	require.NoError(t, tree.AddNode(&Node{ID: "cafe", Name: "Cafe", Kind: NodeArea}, "world"))
	require.NoError(t, tree.AddNode(&Node{ID: "lamp1", Name: "Lamp", Kind: NodeObject}, "plaza"))
	require.NoError(t, tree.AddNode(&Node{ID: "alice", Name: "Alice", Kind: NodeAgent}, "plaza"))
	require.NoError(t, tree.AddNode(&Node{ID: "bob", Name: "Bob", Kind: NodeAgent}, "plaza"))

	g := NewLocationGraph()
	g.AddNode("plaza")
	g.AddNode("cafe")
	g.AddEdge("plaza", "cafe")

	state := NewCanonicalState(tree)
	state.Agents["alice"] = &Agent{ID: "alice", Name: "Alice", LocationID: "plaza"}
	state.Agents["bob"] = &Agent{ID: "bob", Name: "Bob", LocationID: "plaza"}
	state.Objects["lamp1"] = &Object{ID: "lamp1", Type: "lamp", State: "off"}
	return state, g
}

func TestPerceive_LocationNodePlusChildren(t *testing.T) {
	state, _ := perceptionWorld(t)

	slice := Perceive(state, "alice")

	require.Len(t, slice.Nodes, 4)
	assert.Equal(t, "plaza", slice.Nodes[0].ID, "location node comes first")
	ids := []string{slice.Nodes[1].ID, slice.Nodes[2].ID, slice.Nodes[3].ID}
	assert.ElementsMatch(t, []string{"lamp1", "alice", "bob"}, ids)
	require.Contains(t, slice.Objects, "lamp1")
	assert.Equal(t, "off", slice.Objects["lamp1"].State)
}

func TestPerceive_ReturnsCopies(t *testing.T) {
	state, _ := perceptionWorld(t)

	slice := Perceive(state, "alice")
	slice.Nodes[0].Name = "Vandalized"
	slice.Objects["lamp1"].State = "on"

	assert.Equal(t, "Plaza", state.World.Node("plaza").Name)
	assert.Equal(t, "off", state.Objects["lamp1"].State)
}

func TestPerceive_InTransit_SeesOnlyTheNode(t *testing.T) {
	state, _ := perceptionWorld(t)
	state.Agents["alice"].Transit = &Transit{Remaining: []string{"cafe"}, Origin: "plaza", Destination: "cafe"}

	slice := Perceive(state, "alice")

	require.Len(t, slice.Nodes, 1)
	assert.Equal(t, "plaza", slice.Nodes[0].ID)
	assert.Empty(t, slice.Objects)
}

func TestPerceive_UnknownAgent_EmptySlice(t *testing.T) {
	state, _ := perceptionWorld(t)

	slice := Perceive(state, "ghost")

	assert.Empty(t, slice.Nodes)
}

func TestTargetsFor_StationaryAgent(t *testing.T) {
	state, g := perceptionWorld(t)

	vt := TargetsFor(state, g, "alice")

	assert.Equal(t, []string{"cafe"}, vt.Locations)
	assert.Equal(t, []string{"lamp1"}, vt.Objects)
	assert.Equal(t, []string{"bob"}, vt.Agents, "the agent itself is never a SAY target")
}

func TestTargetsFor_InTransit_OnlyMoveTargets(t *testing.T) {
	state, g := perceptionWorld(t)
	state.Agents["alice"].Transit = &Transit{Remaining: []string{"cafe"}, Origin: "plaza", Destination: "cafe"}

	vt := TargetsFor(state, g, "alice")

	assert.Equal(t, []string{"cafe"}, vt.Locations)
	assert.Empty(t, vt.Objects, "INTERACT cannot pass validation mid-path")
	assert.Empty(t, vt.Agents, "SAY cannot pass validation mid-path")
}
