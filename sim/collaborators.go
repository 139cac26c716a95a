package sim

import "context"

// This file defines the kernel-facing contracts of the external
// collaborators: the decision policy and the language/embedding helpers it
// leans on. The kernel depends only on returned values, never on collaborator
// latency — blocking calls sit behind a context with an enforced timeout.

// DecisionRequest is everything a policy may consult when choosing an
// action: the frozen perception slice, the agent's own beliefs and a
// retrieved memory excerpt, the agent's configured patrol route, and the
// valid-target sets its arguments must be drawn from.
type DecisionRequest struct {
	AgentID     string
	Tick        int64
	Perception  PerceptionSlice
	Beliefs     *BeliefState
	Memories    []*MemoryRecord
	PatrolRoute []string
	Targets     ValidTargets
}

// DecisionPolicy produces exactly one action per agent per tick. An error or
// a blown context deadline is recovered as IDLE for that agent; the
// scheduler never blocks indefinitely on a single agent.
type DecisionPolicy interface {
	Decide(ctx context.Context, req DecisionRequest) (Action, error)
}

// ImportanceRater assigns a poignancy score in [1,10] to a memory
// description. Out-of-range returns are clamped by the caller.
type ImportanceRater interface {
	Rate(description string) int
}

// Embedder maps text to a fixed-length vector, used identically for queries
// and stored memory descriptions.
type Embedder interface {
	Embed(text string) []float64
}

// Insight is one synthesized reflection and the record ids that justify it.
type Insight struct {
	Text     string
	Supports []string
}

// InsightGenerator distills recent memories into higher-level reflections.
type InsightGenerator interface {
	Reflect(recent []*MemoryRecord) []Insight
}

// Narrator renders an event into text for the acting agent's memory. Purely
// a formatting function; no effect on state.
type Narrator interface {
	Narrate(ev Event) string
}

// PlanItem is one entry of an agent's day plan, spanning [StartTick,EndTick).
type PlanItem struct {
	StartTick   int64  `json:"start_tick"`
	EndTick     int64  `json:"end_tick"`
	LocationID  string `json:"location_id"`
	Description string `json:"description"`
}

// Planner builds and revises day plans. React inspects a fresh observation
// against the active plan item and returns a non-empty reaction when the
// agent should re-plan.
type Planner interface {
	BuildDayPlan(agentName string, startTick int64, contextText string) []PlanItem
	React(agentName, observation, activePlan string) string
}

// Sink consumes published tick payloads. OnTick must treat the payload as
// read-only and must not block the scheduler; slow consumers handle their
// own backlog.
type Sink interface {
	OnTick(p *TickPayload)
}

// MemoryLog mirrors appended memory records to durable storage.
type MemoryLog interface {
	Append(agentID string, rec *MemoryRecord) error
}

// Collaborators bundles the injected capabilities the scheduler runs with.
// Policy, Rater, Embedder, Insights and Narrator are required; Planner and
// MemoryLog are optional.
type Collaborators struct {
	Policy   DecisionPolicy
	Rater    ImportanceRater
	Embedder Embedder
	Insights InsightGenerator
	Narrator Narrator
	Planner  Planner
	MemLog   MemoryLog
}
