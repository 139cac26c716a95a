package sim

import "sort"

// PerceptionSlice is the read-only view an agent receives of the frozen
// snapshot: its current location node plus that area's immediate children.
// An agent mid-transit perceives only the intermediate node it occupies.
// All nodes are copies; mutating a slice never touches canonical state.
type PerceptionSlice struct {
	AgentID    string             `json:"agent_id"`
	LocationID string             `json:"location_id"`
	Nodes      []Node             `json:"nodes"`
	Objects    map[string]*Object `json:"objects,omitempty"` // object state for perceived object nodes
}

// Perceive computes an agent's visible slice against the given (frozen)
// state. The node list is the location node followed by its children in
// child order.
func Perceive(s *CanonicalState, agentID string) PerceptionSlice {
	slice := PerceptionSlice{AgentID: agentID, Objects: make(map[string]*Object)}
	agent := s.Agents[agentID]
	if agent == nil {
		return slice
	}
	slice.LocationID = agent.LocationID
	loc := s.World.Node(agent.LocationID)
	if loc == nil {
		return slice
	}
	slice.Nodes = append(slice.Nodes, *loc.clone())
	if agent.InTransit() {
		// Passing through: the node itself is visible, its contents are not.
		return slice
	}
	for _, childID := range loc.Children {
		child := s.World.Node(childID)
		if child == nil {
			continue
		}
		slice.Nodes = append(slice.Nodes, *child.clone())
		if child.Kind == NodeObject {
			if obj := s.Objects[childID]; obj != nil {
				slice.Objects[childID] = obj.clone()
			}
		}
	}
	return slice
}

// TargetsFor computes the valid-target sets for an agent against the frozen
// snapshot. While the agent is in transit, INTERACT and SAY targets are
// empty by construction; those actions cannot pass validation mid-path.
// MOVE destinations are every area reachable from the current location.
func TargetsFor(s *CanonicalState, graph *LocationGraph, agentID string) ValidTargets {
	var vt ValidTargets
	agent := s.Agents[agentID]
	if agent == nil {
		return vt
	}
	vt.Locations = graph.Reachable(agent.LocationID)
	if agent.InTransit() {
		return vt
	}
	loc := s.World.Node(agent.LocationID)
	if loc == nil {
		return vt
	}
	for _, childID := range loc.Children {
		child := s.World.Node(childID)
		if child == nil || childID == agentID {
			continue
		}
		switch child.Kind {
		case NodeObject:
			vt.Objects = append(vt.Objects, childID)
		case NodeAgent:
			vt.Agents = append(vt.Agents, childID)
		}
	}
	sort.Strings(vt.Objects)
	sort.Strings(vt.Agents)
	return vt
}
