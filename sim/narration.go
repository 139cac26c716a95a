package sim

import "fmt"

// TemplateNarrator renders events into plain sentences keyed by event kind.
// An optional resolver maps node ids to display names; ids are used verbatim
// when it is nil or returns empty.
type TemplateNarrator struct {
	resolve func(id string) string
}

// NewTemplateNarrator builds a narrator with the given name resolver.
func NewTemplateNarrator(resolve func(id string) string) *TemplateNarrator {
	return &TemplateNarrator{resolve: resolve}
}

func (n *TemplateNarrator) name(id string) string {
	if n.resolve != nil {
		if name := n.resolve(id); name != "" {
			return name
		}
	}
	return id
}

// Narrate formats one event. Unknown narration keys fall back to a generic
// sentence; narration never fails.
func (n *TemplateNarrator) Narrate(ev Event) string {
	switch e := ev.(type) {
	case *MoveEvent:
		return fmt.Sprintf("%s moved from %s to %s.", n.name(e.AgentID), n.name(e.From), n.name(e.To))
	case *SayEvent:
		return fmt.Sprintf("%s says to %s: %q", n.name(e.FromAgentID), n.name(e.ToAgentID), e.Utterance)
	case *ObjectStateChangedEvent:
		if e.Success {
			return fmt.Sprintf("%s used %s (%s): %s is now %s.",
				n.name(e.AgentID), n.name(e.ObjectID), e.Verb, n.name(e.ObjectID), e.ToState)
		}
		return fmt.Sprintf("%s tried to %s %s, but nothing happened.",
			n.name(e.AgentID), e.Verb, n.name(e.ObjectID))
	case *WeatherChangedEvent:
		return fmt.Sprintf("The weather shifts from %s to %s.", e.Old, e.New)
	case *TimeAdvancedEvent:
		return fmt.Sprintf("Tick %d passes.", e.Tick)
	default:
		return fmt.Sprintf("Something happened (%s).", ev.EventKind())
	}
}
