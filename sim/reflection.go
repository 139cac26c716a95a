package sim

// ReflectionTrigger accumulates the importance of records created since the
// last reflection, inclusive of the boundary record. The counter only grows
// between reflections; a trigger resets it and remembers the stream index
// the next window starts at.
type ReflectionTrigger struct {
	threshold  int
	sinceLast  int
	windowFrom int // stream index of the first record in the current window
}

// NewReflectionTrigger builds a trigger with the configured threshold.
func NewReflectionTrigger(threshold int) *ReflectionTrigger {
	return &ReflectionTrigger{threshold: threshold}
}

// Record feeds one appended record's importance into the window.
func (r *ReflectionTrigger) Record(importance int) {
	r.sinceLast += importance
}

// ShouldReflect reports whether the accumulated importance has reached the
// threshold.
func (r *ReflectionTrigger) ShouldReflect() bool {
	return r.sinceLast >= r.threshold
}

// WindowFrom returns the stream index the current window started at.
func (r *ReflectionTrigger) WindowFrom() int { return r.windowFrom }

// Reset closes the window after a reflection; nextFrom is the stream length
// at reset time, so newly appended reflections land in the next window.
func (r *ReflectionTrigger) Reset(nextFrom int) {
	r.sinceLast = 0
	r.windowFrom = nextFrom
}

// SinceLast exposes the accumulated importance, for tests and tracing.
func (r *ReflectionTrigger) SinceLast() int { return r.sinceLast }
