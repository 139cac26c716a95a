package sim

// BeliefNode is one remembered node: a copy of what the agent last saw, plus
// the tick it was refreshed. Object attributes are captured alongside so a
// belief can be stale about state as well as structure.
type BeliefNode struct {
	Node   Node    `json:"node"`
	Object *Object `json:"object,omitempty"`
	SeenAt int64   `json:"seen_at"`
}

// BeliefState is an agent's private, possibly partial and stale mirror of
// canonical state. It is written only by its owner's merge step; nodes never
// perceived simply do not exist here, and nodes that vanish canonically are
// never tombstoned.
type BeliefState struct {
	AgentID string                `json:"agent_id"`
	Nodes   map[string]BeliefNode `json:"nodes"`
}

// NewBeliefState returns an empty belief tree for the agent.
func NewBeliefState(agentID string) *BeliefState {
	return &BeliefState{AgentID: agentID, Nodes: make(map[string]BeliefNode)}
}

// Merge upserts every node of a perception slice, keyed by id, stamping each
// with the given tick. Nodes outside the slice are left untouched.
func (b *BeliefState) Merge(slice PerceptionSlice, tick int64) {
	for _, node := range slice.Nodes {
		entry := BeliefNode{Node: node, SeenAt: tick}
		entry.Node.Children = append([]string(nil), node.Children...)
		if obj := slice.Objects[node.ID]; obj != nil {
			entry.Object = obj.clone()
		}
		b.Nodes[node.ID] = entry
	}
}

// Knows reports whether the agent has ever perceived the node.
func (b *BeliefState) Knows(id string) bool {
	_, ok := b.Nodes[id]
	return ok
}

// Clone deep-copies the belief state for inclusion in a published payload.
func (b *BeliefState) Clone() *BeliefState {
	c := NewBeliefState(b.AgentID)
	for id, entry := range b.Nodes {
		cp := entry
		cp.Node.Children = append([]string(nil), entry.Node.Children...)
		if entry.Object != nil {
			cp.Object = entry.Object.clone()
		}
		c.Nodes[id] = cp
	}
	return c
}
