// Package trace provides decision-trace recording for policy analysis.
// It has no dependencies on sim/ — it stores pure data types.
package trace

// ValidationRecord captures one action validation outcome.
type ValidationRecord struct {
	AgentID  string
	Tick     int64
	Proposed string // action kind returned by the policy
	Final    string // action kind after validation
	Rejected bool   // true when the proposal was replaced by IDLE
	Reason   string
}

// PolicyFailureRecord captures a decide-phase error or timeout that was
// recovered as IDLE.
type PolicyFailureRecord struct {
	AgentID string
	Tick    int64
	Reason  string
}

// ReflectionRecord captures one reflection trigger firing.
type ReflectionRecord struct {
	AgentID  string
	Tick     int64
	Window   int // records in the reflection window
	Insights int
}
