package sim

import "sort"

// Weather is the ambient world-dynamics state. It changes only in the
// world-dynamics phase, never from agent actions.
type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherRain  Weather = "rain"
	WeatherFog   Weather = "fog"
)

// weatherCycle is the deterministic draw space for the dynamics step.
var weatherCycle = []Weather{WeatherClear, WeatherRain, WeatherFog}

// Object holds the mutable runtime state of one object node. Type selects
// the transition table; State is the value the table is consulted against.
// Attrs carries any additional object-type-specific attributes.
type Object struct {
	ID    string            `json:"id"`
	Type  string            `json:"type"`
	State string            `json:"state"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

func (o *Object) clone() *Object {
	c := *o
	if o.Attrs != nil {
		c.Attrs = make(map[string]string, len(o.Attrs))
		for k, v := range o.Attrs {
			c.Attrs[k] = v
		}
	}
	return &c
}

// Transit tracks an agent's progress along a computed path. Remaining holds
// the location ids still to visit, destination last; the agent crosses one
// edge per tick.
type Transit struct {
	Remaining   []string `json:"remaining"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
}

// RemainingEdges reports how many edges are left to cross.
func (t *Transit) RemainingEdges() int {
	if t == nil {
		return 0
	}
	return len(t.Remaining)
}

func (t *Transit) clone() *Transit {
	if t == nil {
		return nil
	}
	c := *t
	c.Remaining = append([]string(nil), t.Remaining...)
	return &c
}

// Agent is the canonical runtime state of one agent. LocationID always
// references an area node; Transit is nil while stationary.
type Agent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	LocationID  string   `json:"location_id"`
	Transit     *Transit `json:"transit,omitempty"`
	PatrolRoute []string `json:"patrol_route,omitempty"`
}

// InTransit reports whether the agent is mid-path.
func (a *Agent) InTransit() bool {
	return a.Transit != nil && len(a.Transit.Remaining) > 0
}

func (a *Agent) clone() *Agent {
	c := *a
	c.Transit = a.Transit.clone()
	c.PatrolRoute = append([]string(nil), a.PatrolRoute...)
	return &c
}

// CanonicalState is the single ground-truth world representation. It is
// exclusively owned and mutated by the Scheduler; everything agents see is a
// clone taken at a tick boundary.
type CanonicalState struct {
	Tick    int64              `json:"tick"`
	World   *WorldTree         `json:"world"`
	Agents  map[string]*Agent  `json:"agents"`
	Objects map[string]*Object `json:"objects"`
	Weather Weather            `json:"weather"`
}

// NewCanonicalState wraps a validated world tree with empty runtime maps.
func NewCanonicalState(world *WorldTree) *CanonicalState {
	return &CanonicalState{
		World:   world,
		Agents:  make(map[string]*Agent),
		Objects: make(map[string]*Object),
		Weather: WeatherClear,
	}
}

// AgentIDs returns all agent ids in ascending order. This ordering is the
// sole determinant of same-tick conflict resolution, so every per-agent loop
// in the kernel iterates it.
func (s *CanonicalState) AgentIDs() []string {
	ids := make([]string, 0, len(s.Agents))
	for id := range s.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone deep-copies the full canonical state. Used for the frozen decide
// snapshot, the per-tick working copy, and the published payload.
func (s *CanonicalState) Clone() *CanonicalState {
	agents := make(map[string]*Agent, len(s.Agents))
	for id, a := range s.Agents {
		agents[id] = a.clone()
	}
	objects := make(map[string]*Object, len(s.Objects))
	for id, o := range s.Objects {
		objects[id] = o.clone()
	}
	return &CanonicalState{
		Tick:    s.Tick,
		World:   s.World.Clone(),
		Agents:  agents,
		Objects: objects,
		Weather: s.Weather,
	}
}
