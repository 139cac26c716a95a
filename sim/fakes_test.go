package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakePolicy_PureFunctionOfAgentAndTick(t *testing.T) {
	req := DecisionRequest{
		AgentID: "alice",
		Tick:    3,
		Perception: PerceptionSlice{
			LocationID: "plaza",
			Nodes:      []Node{{ID: "plaza", Kind: NodeArea}},
		},
		Targets: ValidTargets{Locations: []string{"bakery", "cafe"}},
	}

	a1, err1 := FakePolicy{}.Decide(context.Background(), req)
	a2, err2 := FakePolicy{}.Decide(context.Background(), req)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, a1, a2, "same request must always produce the same action")
}

func TestFakePolicy_ActionStaysWithinTargets(t *testing.T) {
	vt := ValidTargets{
		Locations: []string{"cafe"},
		Objects:   []string{"lamp1"},
		Agents:    []string{"bob"},
	}
	for tick := int64(0); tick < 50; tick++ {
		req := DecisionRequest{
			AgentID:    "alice",
			Tick:       tick,
			Perception: PerceptionSlice{LocationID: "plaza", Nodes: []Node{{ID: "plaza", Kind: NodeArea}}},
			Targets:    vt,
		}
		a, err := FakePolicy{}.Decide(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, a, ValidateAction(a, vt), "tick %d: fake proposed an invalid action", tick)
	}
}

func TestFakePolicy_FollowsConfiguredPatrolRoute(t *testing.T) {
	req := DecisionRequest{
		AgentID:     "alice",
		Tick:        1,
		Perception:  PerceptionSlice{LocationID: "cafe", Nodes: []Node{{ID: "cafe", Kind: NodeArea}}},
		PatrolRoute: []string{"plaza", "cafe", "garden"},
		Targets:     ValidTargets{Locations: []string{"garden", "plaza"}},
	}

	a, err := FakePolicy{}.Decide(context.Background(), req)

	require.NoError(t, err)
	require.Equal(t, ActionMove, a.Kind)
	assert.Equal(t, "garden", a.Move.ToLocationID, "the stop after the current one, not the roam rotation")
}

func TestNextPatrolStop_WrapsAndHandlesOffRoute(t *testing.T) {
	route := []string{"plaza", "cafe", "garden"}

	assert.Equal(t, "cafe", nextPatrolStop(route, "plaza"))
	assert.Equal(t, "plaza", nextPatrolStop(route, "garden"), "route wraps at the end")
	assert.Equal(t, "plaza", nextPatrolStop(route, "library"), "off-route agents head for the first stop")
	assert.Equal(t, "", nextPatrolStop(nil, "plaza"))
	assert.Equal(t, "", nextPatrolStop([]string{"plaza"}, "plaza"), "a one-stop route offers nowhere to go")
}

func TestFakeEmbedder_DeterministicAndBounded(t *testing.T) {
	e := FakeEmbedder{Dim: 8}

	v1 := e.Embed("the plaza at dawn")
	v2 := e.Embed("the plaza at dawn")
	v3 := e.Embed("something else entirely")

	assert.Equal(t, v1, v2)
	assert.NotEqual(t, v1, v3)
	require.Len(t, v1, 8)
	for _, x := range v1 {
		assert.GreaterOrEqual(t, x, -1.0)
		assert.LessOrEqual(t, x, 1.0)
	}
}

func TestFakeRater_BoundedAndStable(t *testing.T) {
	r := FakeRater{}

	for _, desc := range []string{"", "a", "a long and eventful description of the day"} {
		got := r.Rate(desc)
		assert.GreaterOrEqual(t, got, 1)
		assert.LessOrEqual(t, got, 10)
		assert.Equal(t, got, r.Rate(desc))
	}
}

func TestFakeInsights_LinksSupportsToRecords(t *testing.T) {
	recent := []*MemoryRecord{
		{ID: "m1"}, {ID: "m2"}, {ID: "m3"}, {ID: "m4"}, {ID: "m5"},
	}

	insights := FakeInsights{}.Reflect(recent)

	require.Len(t, insights, 3)
	assert.Equal(t, []string{"m1", "m2"}, insights[0].Supports)
	assert.Equal(t, []string{"m3", "m4"}, insights[1].Supports)
	assert.Equal(t, []string{"m5"}, insights[2].Supports)
	for _, ins := range insights {
		assert.NotEmpty(t, ins.Text)
	}
}

func TestFakeInsights_EmptyWindow_NoInsights(t *testing.T) {
	assert.Nil(t, FakeInsights{}.Reflect(nil))
}

func TestFakePlanner_ContiguousPlanItems(t *testing.T) {
	plan := FakePlanner{StopTicks: 3}.BuildDayPlan("Alice", 10, "")

	require.Len(t, plan, 3)
	assert.Equal(t, int64(10), plan[0].StartTick)
	for i := 1; i < len(plan); i++ {
		assert.Equal(t, plan[i-1].EndTick, plan[i].StartTick, "plan items must be contiguous")
	}
	assert.Nil(t, activePlanItem(plan, 9))
	assert.Equal(t, &plan[0], activePlanItem(plan, 10))
	assert.Equal(t, &plan[2], activePlanItem(plan, 18))
	assert.Nil(t, activePlanItem(plan, 19))
}
