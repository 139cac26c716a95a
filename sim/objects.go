package sim

// StateVerb keys a transition table row.
type StateVerb struct {
	State string
	Verb  Verb
}

// Transition is one row of an object type's transition table.
type Transition struct {
	Next         string
	Success      bool
	NarrationKey string
}

// TransitionTable maps (current state, verb) to an outcome. The table owner
// is responsible for the state machine's physical plausibility; the executor
// only applies rows deterministically.
type TransitionTable map[StateVerb]Transition

// ObjectCatalog maps object type names to their transition tables.
type ObjectCatalog map[string]TransitionTable

// Apply consults the object's table against its current state at the moment
// of execution and mutates the object on success. Within a tick, callers
// invoke Apply in fixed agent order, so a later agent sees the state as left
// by an earlier one — two same-tick TAKEs on a single-item container resolve
// to one success and one failure, reproducibly. A missing row or an explicit
// failure row leaves the object untouched and reports Success=false.
func (c ObjectCatalog) Apply(obj *Object, agentID string, verb Verb) ObjectStateChangedEvent {
	ev := ObjectStateChangedEvent{
		ObjectID:  obj.ID,
		AgentID:   agentID,
		Verb:      verb,
		FromState: obj.State,
		ToState:   obj.State,
	}
	table := c[obj.Type]
	if table == nil {
		ev.NarrationKey = "nothing_happens"
		return ev
	}
	tr, ok := table[StateVerb{State: obj.State, Verb: verb}]
	if !ok {
		ev.NarrationKey = "nothing_happens"
		return ev
	}
	ev.NarrationKey = tr.NarrationKey
	if !tr.Success {
		return ev
	}
	obj.State = tr.Next
	ev.ToState = tr.Next
	ev.Success = true
	return ev
}

// DefaultCatalog ships transition tables for the stock object types used by
// the bundled worlds and the tests. World files may override or extend it.
func DefaultCatalog() ObjectCatalog {
	return ObjectCatalog{
		"door": {
			{State: "closed", Verb: VerbOpen}:  {Next: "open", Success: true, NarrationKey: "door_opened"},
			{State: "open", Verb: VerbClose}:   {Next: "closed", Success: true, NarrationKey: "door_closed"},
			{State: "open", Verb: VerbOpen}:    {Next: "open", NarrationKey: "already_open"},
			{State: "closed", Verb: VerbClose}: {Next: "closed", NarrationKey: "already_closed"},
		},
		"lamp": {
			{State: "off", Verb: VerbUse}: {Next: "on", Success: true, NarrationKey: "lamp_on"},
			{State: "on", Verb: VerbUse}:  {Next: "off", Success: true, NarrationKey: "lamp_off"},
		},
		"fridge": {
			{State: "stocked", Verb: VerbTake}: {Next: "empty", Success: true, NarrationKey: "took_food"},
			{State: "empty", Verb: VerbTake}:   {Next: "empty", NarrationKey: "fridge_empty"},
			{State: "empty", Verb: VerbDrop}:   {Next: "stocked", Success: true, NarrationKey: "restocked"},
			{State: "stocked", Verb: VerbOpen}: {Next: "stocked", Success: true, NarrationKey: "fridge_opened"},
			{State: "empty", Verb: VerbOpen}:   {Next: "empty", Success: true, NarrationKey: "fridge_opened"},
		},
		"bench": {
			{State: "free", Verb: VerbUse}:     {Next: "occupied", Success: true, NarrationKey: "sat_down"},
			{State: "occupied", Verb: VerbUse}: {Next: "occupied", NarrationKey: "bench_taken"},
			{State: "occupied", Verb: VerbDrop}: {Next: "free", Success: true, NarrationKey: "stood_up"},
		},
	}
}
