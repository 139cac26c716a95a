package sim

import "github.com/sirupsen/logrus"

// StartMove plans a journey for a stationary agent. A MOVE issued while the
// agent is mid-path is dropped: re-planning takes effect only once the agent
// is stationary again. Unreachable destinations and moves to the current
// location are also dropped. The first edge is crossed on the following
// tick, so an agent that issues MOVE at tick t is in transit at t and
// arrives no earlier than t+1.
func StartMove(s *CanonicalState, graph *LocationGraph, agentID, toLocationID string) {
	agent := s.Agents[agentID]
	if agent == nil {
		return
	}
	if agent.InTransit() {
		logrus.Debugf("agent %s: MOVE to %s ignored while in transit", agentID, toLocationID)
		return
	}
	if agent.LocationID == toLocationID {
		return
	}
	path := graph.ShortestPath(agent.LocationID, toLocationID)
	if len(path) == 0 {
		logrus.Debugf("agent %s: no path from %s to %s", agentID, agent.LocationID, toLocationID)
		return
	}
	agent.Transit = &Transit{
		Remaining:   path,
		Origin:      agent.LocationID,
		Destination: toLocationID,
	}
}

// AdvanceTransit crosses exactly one edge for an in-transit agent: the agent
// node is reparented to the next location, which makes it perceivable there
// by anything co-located this tick. On arrival the transit ends and a single
// MoveEvent covering the whole journey is returned; nil otherwise.
func AdvanceTransit(s *CanonicalState, agentID string) (Event, error) {
	agent := s.Agents[agentID]
	if agent == nil || !agent.InTransit() {
		return nil, nil
	}
	next := agent.Transit.Remaining[0]
	agent.Transit.Remaining = agent.Transit.Remaining[1:]
	if err := s.World.Reparent(agentID, next); err != nil {
		return nil, err
	}
	agent.LocationID = next
	if len(agent.Transit.Remaining) > 0 {
		return nil, nil
	}
	ev := &MoveEvent{AgentID: agentID, From: agent.Transit.Origin, To: agent.Transit.Destination}
	agent.Transit = nil
	return ev, nil
}
