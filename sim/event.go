package sim

import (
	"encoding/json"
	"fmt"
)

// EventKind tags the closed set of things that can happen during a tick.
type EventKind string

const (
	EventMove               EventKind = "MOVE"
	EventObjectStateChanged EventKind = "OBJECT_STATE_CHANGED"
	EventSay                EventKind = "SAY"
	EventWeatherChanged     EventKind = "WEATHER_CHANGED"
	EventTimeAdvanced       EventKind = "TIME_ADVANCED"
)

// Event is the sealed interface over the tick event variants. Events are
// immutable once emitted; within a tick their order follows agent processing
// order with world-dynamics events last.
type Event interface {
	EventKind() EventKind
}

// MoveEvent records a completed journey. Emitted once, at arrival, never per
// edge.
type MoveEvent struct {
	AgentID string `json:"agent_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

func (MoveEvent) EventKind() EventKind { return EventMove }

// ObjectStateChangedEvent records an interaction attempt. Emitted for
// failures too (Success=false, state unchanged) so the acting agent can
// remember the attempt.
type ObjectStateChangedEvent struct {
	ObjectID     string `json:"object_id"`
	AgentID      string `json:"agent_id"`
	Verb         Verb   `json:"verb"`
	FromState    string `json:"from_state"`
	ToState      string `json:"to_state"`
	Success      bool   `json:"success"`
	NarrationKey string `json:"narration_key,omitempty"`
}

func (ObjectStateChangedEvent) EventKind() EventKind { return EventObjectStateChanged }

// SayEvent records one utterance addressed to a co-located agent.
type SayEvent struct {
	FromAgentID string `json:"from_agent_id"`
	ToAgentID   string `json:"to_agent_id"`
	Utterance   string `json:"utterance"`
	AreaID      string `json:"area_id"`
}

func (SayEvent) EventKind() EventKind { return EventSay }

// WeatherChangedEvent records a world-dynamics weather transition.
type WeatherChangedEvent struct {
	Old Weather `json:"old"`
	New Weather `json:"new"`
}

func (WeatherChangedEvent) EventKind() EventKind { return EventWeatherChanged }

// TimeAdvancedEvent closes every tick's event list.
type TimeAdvancedEvent struct {
	Tick int64 `json:"tick"`
}

func (TimeAdvancedEvent) EventKind() EventKind { return EventTimeAdvanced }

// EventEnvelope is the wire form of an event: the kind tag plus the
// variant's JSON body. Replay logs and live-tail frames carry envelopes.
type EventEnvelope struct {
	Kind EventKind       `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// EncodeEvent wraps an event into its envelope.
func EncodeEvent(ev Event) (EventEnvelope, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("encode %s event: %w", ev.EventKind(), err)
	}
	return EventEnvelope{Kind: ev.EventKind(), Body: body}, nil
}

// DecodeEvent unwraps an envelope back into its concrete variant. Unknown
// kinds are an error, never guessed at.
func DecodeEvent(env EventEnvelope) (Event, error) {
	var ev Event
	switch env.Kind {
	case EventMove:
		ev = &MoveEvent{}
	case EventObjectStateChanged:
		ev = &ObjectStateChangedEvent{}
	case EventSay:
		ev = &SayEvent{}
	case EventWeatherChanged:
		ev = &WeatherChangedEvent{}
	case EventTimeAdvanced:
		ev = &TimeAdvancedEvent{}
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Body, ev); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", env.Kind, err)
	}
	return ev, nil
}

// EncodeEvents envelopes a tick's event list in order.
func EncodeEvents(events []Event) ([]EventEnvelope, error) {
	out := make([]EventEnvelope, 0, len(events))
	for _, ev := range events {
		env, err := EncodeEvent(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}
