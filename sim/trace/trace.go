package trace

// SimulationTrace collects decision records during a run. Nil receivers are
// tolerated so the scheduler can record unconditionally.
type SimulationTrace struct {
	Validations []ValidationRecord
	Failures    []PolicyFailureRecord
	Reflections []ReflectionRecord
}

// New creates a SimulationTrace ready for recording.
func New() *SimulationTrace {
	return &SimulationTrace{}
}

// RecordValidation appends a validation outcome.
func (st *SimulationTrace) RecordValidation(rec ValidationRecord) {
	if st == nil {
		return
	}
	st.Validations = append(st.Validations, rec)
}

// RecordFailure appends a recovered policy failure.
func (st *SimulationTrace) RecordFailure(rec PolicyFailureRecord) {
	if st == nil {
		return
	}
	st.Failures = append(st.Failures, rec)
}

// RecordReflection appends a reflection trigger.
func (st *SimulationTrace) RecordReflection(rec ReflectionRecord) {
	if st == nil {
		return
	}
	st.Reflections = append(st.Reflections, rec)
}

// RejectedCount returns how many proposals validation replaced with IDLE.
func (st *SimulationTrace) RejectedCount() int {
	if st == nil {
		return 0
	}
	n := 0
	for _, v := range st.Validations {
		if v.Rejected {
			n++
		}
	}
	return n
}
