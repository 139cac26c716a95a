package sim

import (
	"fmt"
	"sort"
)

// ActionKind tags the closed set of actions an agent can take in one tick.
type ActionKind string

const (
	ActionIdle     ActionKind = "IDLE"
	ActionMove     ActionKind = "MOVE"
	ActionInteract ActionKind = "INTERACT"
	ActionSay      ActionKind = "SAY"
)

// Verb is the closed set of object-interaction verbs.
type Verb string

const (
	VerbUse   Verb = "USE"
	VerbOpen  Verb = "OPEN"
	VerbClose Verb = "CLOSE"
	VerbTake  Verb = "TAKE"
	VerbDrop  Verb = "DROP"
)

// MoveArgs names the destination area for a MOVE.
type MoveArgs struct {
	ToLocationID string `json:"to_location_id"`
}

// InteractArgs names the object and verb for an INTERACT.
type InteractArgs struct {
	ObjectID string `json:"object_id"`
	Verb     Verb   `json:"verb"`
}

// SayArgs names the addressee and utterance for a SAY.
type SayArgs struct {
	ToAgentID string `json:"to_agent_id"`
	Utterance string `json:"utterance"`
}

// Action is a tagged union: Kind selects which args pointer must be set.
// The zero value is not valid; use Idle() for the no-op action.
type Action struct {
	Kind     ActionKind    `json:"kind"`
	Move     *MoveArgs     `json:"move,omitempty"`
	Interact *InteractArgs `json:"interact,omitempty"`
	Say      *SayArgs      `json:"say,omitempty"`
}

// Idle returns the always-valid no-op action.
func Idle() Action {
	return Action{Kind: ActionIdle}
}

// Check verifies the union shape: exactly the args matching Kind are set.
func (a Action) Check() error {
	switch a.Kind {
	case ActionIdle:
		if a.Move != nil || a.Interact != nil || a.Say != nil {
			return fmt.Errorf("IDLE carries args")
		}
	case ActionMove:
		if a.Move == nil || a.Interact != nil || a.Say != nil {
			return fmt.Errorf("MOVE requires move args only")
		}
	case ActionInteract:
		if a.Interact == nil || a.Move != nil || a.Say != nil {
			return fmt.Errorf("INTERACT requires interact args only")
		}
	case ActionSay:
		if a.Say == nil || a.Move != nil || a.Interact != nil {
			return fmt.Errorf("SAY requires say args only")
		}
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

// ValidTargets is the per-agent, per-tick enumeration of admissible action
// arguments. Slices are sorted so policies iterating them behave identically
// across runs.
type ValidTargets struct {
	Locations []string `json:"locations"` // MOVE destinations
	Objects   []string `json:"objects"`   // INTERACT targets in the current area
	Agents    []string `json:"agents"`    // SAY addressees in the current area
}

// HasLocation reports whether id is an admissible MOVE destination.
func (vt ValidTargets) HasLocation(id string) bool { return containsSorted(vt.Locations, id) }

// HasObject reports whether id is an admissible INTERACT target.
func (vt ValidTargets) HasObject(id string) bool { return containsSorted(vt.Objects, id) }

// HasAgent reports whether id is an admissible SAY addressee.
func (vt ValidTargets) HasAgent(id string) bool { return containsSorted(vt.Agents, id) }

func containsSorted(ids []string, id string) bool {
	i := sort.SearchStrings(ids, id)
	return i < len(ids) && ids[i] == id
}

// ValidateAction replaces any action whose arguments fall outside the
// valid-target sets with IDLE. IDLE itself is always valid. Validation is
// idempotent: a valid action passes through unchanged and validating the
// result again yields the same action.
func ValidateAction(a Action, vt ValidTargets) Action {
	if a.Check() != nil {
		return Idle()
	}
	switch a.Kind {
	case ActionIdle:
		return a
	case ActionMove:
		if !vt.HasLocation(a.Move.ToLocationID) {
			return Idle()
		}
	case ActionInteract:
		if !vt.HasObject(a.Interact.ObjectID) {
			return Idle()
		}
	case ActionSay:
		if !vt.HasAgent(a.Say.ToAgentID) {
			return Idle()
		}
	}
	return a
}
