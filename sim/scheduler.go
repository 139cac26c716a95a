package sim

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/hamlet-sim/hamlet-sim/sim/trace"
)

// TickPayload is the immutable unit published once per committed tick: the
// new canonical state, every agent's belief state, and the tick's ordered
// event list. Consumers must treat it as read-only.
type TickPayload struct {
	Tick    int64                   `json:"tick"`
	State   *CanonicalState         `json:"state"`
	Beliefs map[string]*BeliefState `json:"beliefs"`
	Events  []Event                 `json:"-"`
}

// Scheduler advances the simulation one logical tick at a time. It is the
// sole writer of canonical state; per-agent belief states and memory
// streams are written only inside the owning agent's phase of Step. The
// decide phase is the single point of concurrency — it reads a frozen
// snapshot, so completion order cannot affect outcomes.
type Scheduler struct {
	state    *CanonicalState
	graph    *LocationGraph
	catalog  ObjectCatalog
	collab   Collaborators
	cfg      SchedulerConfig
	memCfg   MemoryConfig
	rng      *PartitionedRNG
	dynamics *WorldDynamics

	memories map[string]*MemoryStream
	beliefs  map[string]*BeliefState
	triggers map[string]*ReflectionTrigger
	plans    map[string][]PlanItem

	sinks []Sink
	trace *trace.SimulationTrace
	tick  int64
}

// NewScheduler validates the initial world and wires up per-agent state.
// A structural invariant violation here is fatal: no tick may commit on top
// of a malformed tree.
func NewScheduler(state *CanonicalState, graph *LocationGraph, catalog ObjectCatalog,
	collab Collaborators, cfg SchedulerConfig, memCfg MemoryConfig, dynCfg DynamicsConfig) (*Scheduler, error) {

	if err := state.World.Validate(); err != nil {
		return nil, err
	}
	for id, agent := range state.Agents {
		loc := state.World.Node(agent.LocationID)
		if loc == nil || loc.Kind != NodeArea {
			return nil, fmt.Errorf("%w: agent %q located at non-area %q", ErrStructuralInvariant, id, agent.LocationID)
		}
	}

	memCfg = memCfg.withDefaults()
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	s := &Scheduler{
		state:    state,
		graph:    graph,
		catalog:  catalog,
		collab:   collab,
		cfg:      cfg,
		memCfg:   memCfg,
		rng:      rng,
		dynamics: NewWorldDynamics(rng, dynCfg),
		memories: make(map[string]*MemoryStream),
		beliefs:  make(map[string]*BeliefState),
		triggers: make(map[string]*ReflectionTrigger),
		plans:    make(map[string][]PlanItem),
	}
	for _, id := range state.AgentIDs() {
		s.memories[id] = NewMemoryStream(id, memCfg, collab.Embedder)
		s.beliefs[id] = NewBeliefState(id)
		s.triggers[id] = NewReflectionTrigger(memCfg.ReflectionThreshold)
	}
	return s, nil
}

// AddSink registers a publish consumer. Sinks receive each committed
// payload exactly once, in tick order.
func (s *Scheduler) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

// SetTrace attaches an optional decision trace.
func (s *Scheduler) SetTrace(t *trace.SimulationTrace) {
	s.trace = t
}

// Tick returns the next tick number Step will produce.
func (s *Scheduler) Tick() int64 { return s.tick }

// State exposes canonical state for tests and tooling. Callers outside Step
// must not mutate it.
func (s *Scheduler) State() *CanonicalState { return s.state }

// Beliefs returns one agent's belief state. Owned by the scheduler; callers
// must not mutate it.
func (s *Scheduler) Beliefs(agentID string) *BeliefState { return s.beliefs[agentID] }

// Memories returns one agent's memory stream.
func (s *Scheduler) Memories(agentID string) *MemoryStream { return s.memories[agentID] }

// Run advances the simulation the given number of ticks.
func (s *Scheduler) Run(ticks int64) error {
	for i := int64(0); i < ticks; i++ {
		if _, err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step advances exactly one tick through the eight kernel phases: freeze,
// perceive, decide, validate, execute, commit, world dynamics, publish.
// On error nothing is committed; the run halts rather than publishing a
// partially-applied state.
func (s *Scheduler) Step() (*TickPayload, error) {
	t := s.tick

	// Phase 1: freeze. The clone is the only state agents see this tick.
	snapshot := s.state.Clone()
	agentIDs := snapshot.AgentIDs()

	// Phase 2: perceive against the frozen snapshot.
	slices := make(map[string]PerceptionSlice, len(agentIDs))
	targets := make(map[string]ValidTargets, len(agentIDs))
	for _, id := range agentIDs {
		slices[id] = Perceive(snapshot, id)
		targets[id] = TargetsFor(snapshot, s.graph, id)
	}

	// Memory excerpts are retrieved single-threaded before the fan-out:
	// retrieval refreshes access times, and that mutation must happen in
	// agent-id order, not goroutine completion order.
	excerpts := make(map[string][]*MemoryRecord, len(agentIDs))
	for _, id := range agentIDs {
		excerpts[id] = s.memories[id].Retrieve(s.retrievalQuery(snapshot, id, t), t)
	}

	// Phase 3: decide, concurrently, buffered, consumed in fixed order.
	proposals := s.decideAll(agentIDs, slices, targets, excerpts, t)

	// Phase 4: validate. Anything outside the valid-target sets becomes IDLE.
	actions := make(map[string]Action, len(agentIDs))
	for _, id := range agentIDs {
		final := ValidateAction(proposals[id], targets[id])
		if s.trace != nil {
			s.trace.RecordValidation(trace.ValidationRecord{
				AgentID:  id,
				Tick:     t,
				Proposed: string(proposals[id].Kind),
				Final:    string(final.Kind),
				Rejected: final.Kind != proposals[id].Kind,
			})
		}
		actions[id] = final
	}

	// Phase 5: execute on a working copy, strictly in ascending agent id.
	// This order is the sole determinant of same-tick conflict resolution.
	working := s.state.Clone()
	var events []Event
	agentEvents := make(map[string][]Event)
	for _, id := range agentIDs {
		if working.Agents[id].InTransit() {
			ev, err := AdvanceTransit(working, id)
			if err != nil {
				return nil, err
			}
			if ev != nil {
				events = append(events, ev)
				agentEvents[id] = append(agentEvents[id], ev)
			}
		}
		a := actions[id]
		switch a.Kind {
		case ActionMove:
			StartMove(working, s.graph, id, a.Move.ToLocationID)
		case ActionInteract:
			obj := working.Objects[a.Interact.ObjectID]
			if obj == nil {
				continue
			}
			res := s.catalog.Apply(obj, id, a.Interact.Verb)
			ev := &res
			events = append(events, ev)
			agentEvents[id] = append(agentEvents[id], ev)
		case ActionSay:
			ev := &SayEvent{
				FromAgentID: id,
				ToAgentID:   a.Say.ToAgentID,
				Utterance:   a.Say.Utterance,
				AreaID:      working.Agents[id].LocationID,
			}
			events = append(events, ev)
			agentEvents[id] = append(agentEvents[id], ev)
		}
	}

	// Phase 6: commit, then merge beliefs from the pre-tick slices — agents
	// never see in-progress changes from other agents in the same tick.
	working.Tick = t
	s.state = working
	for _, id := range agentIDs {
		s.beliefs[id].Merge(slices[id], t)
	}

	// Phase 7: world dynamics, insulated from this tick's agent actions.
	events = append(events, s.dynamics.Step(s.state, t)...)
	events = append(events, &TimeAdvancedEvent{Tick: t})

	// Memory, planning and reflection per agent, in fixed order.
	for _, id := range agentIDs {
		if err := s.processAgentMemory(id, t, slices[id], agentEvents[id]); err != nil {
			return nil, err
		}
	}

	// Phase 8: publish.
	payload := &TickPayload{
		Tick:    t,
		State:   s.state.Clone(),
		Beliefs: make(map[string]*BeliefState, len(agentIDs)),
		Events:  events,
	}
	for _, id := range agentIDs {
		payload.Beliefs[id] = s.beliefs[id].Clone()
	}
	for _, sink := range s.sinks {
		sink.OnTick(payload)
	}

	logrus.Debugf("[tick %07d] committed: %d events, %d agents", t, len(events), len(agentIDs))
	s.tick++
	return payload, nil
}

type decideResult struct {
	idx    int
	action Action
	failed string
}

// decideAll fans one goroutine per agent out against the frozen snapshot.
// Results are buffered and re-assembled by index, so goroutine completion
// order never leaks into outcomes. A policy error or timeout is recovered
// as IDLE for that agent.
func (s *Scheduler) decideAll(agentIDs []string, slices map[string]PerceptionSlice,
	targets map[string]ValidTargets, excerpts map[string][]*MemoryRecord, t int64) map[string]Action {

	ch := make(chan decideResult, len(agentIDs))
	for i, id := range agentIDs {
		req := DecisionRequest{
			AgentID:     id,
			Tick:        t,
			Perception:  slices[id],
			Beliefs:     s.beliefs[id].Clone(),
			Memories:    excerpts[id],
			PatrolRoute: s.state.Agents[id].PatrolRoute,
			Targets:     targets[id],
		}
		go func(idx int, req DecisionRequest) {
			ctx := context.Background()
			cancel := context.CancelFunc(func() {})
			if s.cfg.PolicyTimeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, s.cfg.PolicyTimeout)
			}
			defer cancel()

			inner := make(chan decideResult, 1)
			go func() {
				a, err := s.collab.Policy.Decide(ctx, req)
				if err != nil {
					inner <- decideResult{idx: idx, action: Idle(), failed: err.Error()}
					return
				}
				inner <- decideResult{idx: idx, action: a}
			}()
			select {
			case res := <-inner:
				ch <- res
			case <-ctx.Done():
				// The policy is still running somewhere; its late answer is
				// discarded into the buffered inner channel.
				ch <- decideResult{idx: idx, action: Idle(), failed: "policy timeout"}
			}
		}(i, req)
	}

	out := make(map[string]Action, len(agentIDs))
	for range agentIDs {
		res := <-ch
		id := agentIDs[res.idx]
		if res.failed != "" {
			logrus.Warnf("[tick %07d] agent %s policy recovered as IDLE: %s", t, id, res.failed)
			if s.trace != nil {
				s.trace.RecordFailure(trace.PolicyFailureRecord{AgentID: id, Tick: t, Reason: res.failed})
			}
		}
		out[id] = res.action
	}
	return out
}

// retrievalQuery builds the memory query from the agent's situation and its
// active plan item, when one exists.
func (s *Scheduler) retrievalQuery(snapshot *CanonicalState, id string, t int64) string {
	agent := snapshot.Agents[id]
	locName := agent.LocationID
	if node := snapshot.World.Node(agent.LocationID); node != nil {
		locName = node.Name
	}
	query := fmt.Sprintf("%s at %s.", agent.Name, locName)
	if item := activePlanItem(s.plans[id], t); item != nil {
		query += " " + item.Description
	}
	return query
}

// processAgentMemory runs one agent's end-of-tick bookkeeping: observation
// and action memories, lazy day planning with reaction-driven re-planning,
// and the reflection trigger.
func (s *Scheduler) processAgentMemory(id string, t int64, slice PerceptionSlice, ownEvents []Event) error {
	agent := s.state.Agents[id]
	stream := s.memories[id]
	trigger := s.triggers[id]

	observation := s.describeScene(agent, slice)
	if err := s.appendMemory(id, observation, t, MemoryObservation, nil); err != nil {
		return err
	}

	for _, ev := range ownEvents {
		desc := s.collab.Narrator.Narrate(ev)
		if err := s.appendMemory(id, desc, t, MemoryAction, nil); err != nil {
			return err
		}
	}

	if s.collab.Planner != nil {
		if err := s.planAgentDay(id, agent, t, observation); err != nil {
			return err
		}
	}

	if trigger.ShouldReflect() {
		recent := stream.Since(trigger.WindowFrom())
		insights := s.collab.Insights.Reflect(recent)
		windowStart := stream.Len()
		for _, insight := range insights {
			rec := stream.Append(insight.Text, t, s.collab.Rater.Rate(insight.Text), MemoryReflection, insight.Supports)
			if err := s.logMemory(id, rec); err != nil {
				return err
			}
		}
		trigger.Reset(windowStart)
		// Reflections count toward the next window.
		for _, rec := range stream.Since(windowStart) {
			trigger.Record(rec.Importance)
		}
		if s.trace != nil {
			s.trace.RecordReflection(trace.ReflectionRecord{AgentID: id, Tick: t, Window: len(recent), Insights: len(insights)})
		}
		logrus.Debugf("[tick %07d] agent %s reflected: %d insights over %d records", t, id, len(insights), len(recent))
	}
	return nil
}

// planAgentDay lazily builds the day plan, stores plan memories, and
// re-plans when the planner reacts to the current observation.
func (s *Scheduler) planAgentDay(id string, agent *Agent, t int64, observation string) error {
	if _, ok := s.plans[id]; !ok {
		plan := s.collab.Planner.BuildDayPlan(agent.Name, t, "")
		s.plans[id] = plan
		for _, item := range plan {
			if err := s.appendMemory(id, item.Description, t, MemoryPlan, nil); err != nil {
				return err
			}
		}
	}
	active := activePlanItem(s.plans[id], t)
	activeDesc := ""
	if active != nil {
		activeDesc = active.Description
	}
	reaction := s.collab.Planner.React(agent.Name, observation, activeDesc)
	if reaction == "" {
		return nil
	}
	desc := fmt.Sprintf("%s decides to react: %s", agent.Name, reaction)
	if err := s.appendMemory(id, desc, t, MemoryReflection, nil); err != nil {
		return err
	}
	plan := s.collab.Planner.BuildDayPlan(agent.Name, t, reaction)
	s.plans[id] = plan
	for _, item := range plan {
		if err := s.appendMemory(id, item.Description, t, MemoryPlan, nil); err != nil {
			return err
		}
	}
	return nil
}

// appendMemory rates, appends, feeds the reflection trigger, and mirrors the
// record to the durable log when one is configured.
func (s *Scheduler) appendMemory(id, description string, t int64, kind MemoryKind, links []string) error {
	rec := s.memories[id].Append(description, t, s.collab.Rater.Rate(description), kind, links)
	s.triggers[id].Record(rec.Importance)
	return s.logMemory(id, rec)
}

func (s *Scheduler) logMemory(id string, rec *MemoryRecord) error {
	if s.collab.MemLog == nil {
		return nil
	}
	if err := s.collab.MemLog.Append(id, rec); err != nil {
		return fmt.Errorf("memory log append for agent %s: %w", id, err)
	}
	return nil
}

// describeScene builds the deterministic observation sentence for a tick.
func (s *Scheduler) describeScene(agent *Agent, slice PerceptionSlice) string {
	locName := slice.LocationID
	if len(slice.Nodes) > 0 {
		locName = slice.Nodes[0].Name
	}
	desc := fmt.Sprintf("%s is at %s.", agent.Name, locName)
	var others, things []string
	for _, node := range slice.Nodes[min(1, len(slice.Nodes)):] {
		switch node.Kind {
		case NodeAgent:
			if node.ID != agent.ID {
				others = append(others, node.Name)
			}
		case NodeObject:
			things = append(things, node.Name)
		}
	}
	sort.Strings(others)
	sort.Strings(things)
	for _, name := range others {
		desc += fmt.Sprintf(" %s sees %s.", agent.Name, name)
	}
	for _, name := range things {
		desc += fmt.Sprintf(" %s notices the %s.", agent.Name, name)
	}
	return desc
}

func activePlanItem(plan []PlanItem, t int64) *PlanItem {
	for i := range plan {
		if plan[i].StartTick <= t && t < plan[i].EndTick {
			return &plan[i]
		}
	}
	return nil
}
