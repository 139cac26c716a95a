package sim

import (
	"context"
	"crypto/sha256"
	"fmt"
	"hash/fnv"
)

// Deterministic stand-ins for the external collaborators. The scheduler's
// determinism contract covers these fakes too: their output is a pure
// function of their inputs, never of goroutine scheduling. The decide phase
// runs agents concurrently, so FakePolicy must not share an RNG stream —
// it derives its choices from (agent id, tick) hashes instead.

// FakePolicy walks each agent along its patrol route, occasionally using a
// nearby object or greeting a co-located agent.
type FakePolicy struct{}

// Decide picks the next action for the agent.
func (FakePolicy) Decide(_ context.Context, req DecisionRequest) (Action, error) {
	roll := fnv1a64(fmt.Sprintf("%s/%d", req.AgentID, req.Tick)) & 0x7fffffffffffffff

	// Chat when someone is around, roughly every fourth opportunity.
	if len(req.Targets.Agents) > 0 && roll%4 == 0 {
		to := req.Targets.Agents[int(roll)%len(req.Targets.Agents)]
		return Action{Kind: ActionSay, Say: &SayArgs{
			ToAgentID: to,
			Utterance: fmt.Sprintf("Hello! Lovely tick %d, isn't it?", req.Tick),
		}}, nil
	}

	// Fiddle with an object now and then.
	if len(req.Targets.Objects) > 0 && roll%5 == 0 {
		obj := req.Targets.Objects[int(roll)%len(req.Targets.Objects)]
		return Action{Kind: ActionInteract, Interact: &InteractArgs{ObjectID: obj, Verb: VerbUse}}, nil
	}

	// Otherwise continue the configured patrol route, or roam the reachable
	// locations for agents without one.
	here := req.Perception.LocationID
	if next := nextPatrolStop(req.PatrolRoute, here); next != "" && req.Targets.HasLocation(next) {
		return Action{Kind: ActionMove, Move: &MoveArgs{ToLocationID: next}}, nil
	}
	if len(req.PatrolRoute) == 0 {
		for _, stop := range roamRoute(req) {
			if stop != here && req.Targets.HasLocation(stop) {
				return Action{Kind: ActionMove, Move: &MoveArgs{ToLocationID: stop}}, nil
			}
		}
	}
	return Idle(), nil
}

// nextPatrolStop returns the stop after the current location, wrapping at the
// route's end. Off-route agents head for the first stop. Returns "" when the
// route is empty or names no stop other than the current location.
func nextPatrolStop(route []string, here string) string {
	at := -1
	for i, stop := range route {
		if stop == here {
			at = i
			break
		}
	}
	if at < 0 {
		if len(route) > 0 && route[0] != here {
			return route[0]
		}
		return ""
	}
	for i := 1; i < len(route); i++ {
		if stop := route[(at+i)%len(route)]; stop != here {
			return stop
		}
	}
	return ""
}

// roamRoute cycles the valid MOVE destinations deterministically, giving
// routeless agents somewhere to wander.
func roamRoute(req DecisionRequest) []string {
	if len(req.Targets.Locations) == 0 {
		return nil
	}
	start := int(fnv1a64(req.AgentID)&0x7fffffffffffffff) % len(req.Targets.Locations)
	route := make([]string, 0, len(req.Targets.Locations))
	for i := 0; i < len(req.Targets.Locations); i++ {
		route = append(route, req.Targets.Locations[(start+i)%len(req.Targets.Locations)])
	}
	return route
}

// FakeEmbedder derives a fixed-length vector from a SHA-256 digest of the
// text, each component scaled to [-1,1]. Identical text always embeds
// identically, which is all retrieval needs in tests.
type FakeEmbedder struct {
	Dim int
}

// Embed returns the hash-derived vector.
func (e FakeEmbedder) Embed(text string) []float64 {
	dim := e.Dim
	if dim <= 0 {
		dim = 8
	}
	digest := sha256.Sum256([]byte(text))
	out := make([]float64, dim)
	for i := 0; i < dim; i++ {
		out[i] = float64(digest[i%len(digest)])/255.0*2.0 - 1.0
	}
	return out
}

// FakeRater hashes the description into [1,10], giving tests a spread of
// importances without any randomness.
type FakeRater struct{}

// Rate returns the deterministic importance for the description.
func (FakeRater) Rate(description string) int {
	h := fnv.New32a()
	h.Write([]byte(description))
	return 1 + int(h.Sum32()%10)
}

// FixedRater always returns the same importance. Tests that assert exact
// reflection trigger arithmetic use it.
type FixedRater struct {
	Importance int
}

// Rate returns the fixed importance.
func (r FixedRater) Rate(string) int { return r.Importance }

// FakeInsights emits templated insights over the supporting records, two
// supports per insight, capped at three insights.
type FakeInsights struct{}

// Reflect builds the insight list.
func (FakeInsights) Reflect(recent []*MemoryRecord) []Insight {
	if len(recent) == 0 {
		return nil
	}
	ids := make([]string, len(recent))
	for i, rec := range recent {
		ids[i] = rec.ID
	}
	templates := []string{
		"A pattern is emerging in recent events.",
		"A short-term routine is forming.",
		"Recent observations deserve a follow-up.",
	}
	var out []Insight
	for i, text := range templates {
		lo := i * 2
		if lo >= len(ids) {
			break
		}
		hi := lo + 2
		if hi > len(ids) {
			hi = len(ids)
		}
		out = append(out, Insight{Text: text, Supports: append([]string(nil), ids[lo:hi]...)})
	}
	return out
}

// FakePlanner produces a three-stop day plan cycling the agent's known
// locations and never reacts.
type FakePlanner struct {
	StopTicks int64 // duration per plan item; defaults to 4
}

// BuildDayPlan lays out a simple fixed-cadence plan.
func (p FakePlanner) BuildDayPlan(agentName string, startTick int64, contextText string) []PlanItem {
	span := p.StopTicks
	if span <= 0 {
		span = 4
	}
	descs := []string{
		fmt.Sprintf("%s starts the day with a walk.", agentName),
		fmt.Sprintf("%s runs errands.", agentName),
		fmt.Sprintf("%s winds down for the evening.", agentName),
	}
	if contextText != "" {
		descs[0] = fmt.Sprintf("%s adjusts plans: %s", agentName, contextText)
	}
	plan := make([]PlanItem, 0, len(descs))
	at := startTick
	for _, d := range descs {
		plan = append(plan, PlanItem{StartTick: at, EndTick: at + span, Description: d})
		at += span
	}
	return plan
}

// React never triggers a re-plan.
func (FakePlanner) React(string, string, string) string { return "" }

// DefaultCollaborators bundles the full fake set, suitable for demos and
// deterministic tests.
func DefaultCollaborators() Collaborators {
	return Collaborators{
		Policy:   FakePolicy{},
		Rater:    FakeRater{},
		Embedder: FakeEmbedder{Dim: 8},
		Insights: FakeInsights{},
		Narrator: NewTemplateNarrator(nil),
		Planner:  FakePlanner{},
	}
}
