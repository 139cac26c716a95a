// Package sim provides the deterministic tick-driven simulation kernel for
// hamlet-sim.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - world.go: the containment tree (areas, objects, agents) and its invariants
//   - action.go / event.go: the closed action and event unions
//   - scheduler.go: the eight-phase tick loop and its ordering guarantees
//
// # Architecture
//
// The sim package owns canonical state and the tick scheduler; supporting
// concerns live in sub-packages:
//   - sim/worldfile/: world-directory loading with JSON-Schema validation
//   - sim/replay/: zstd-compressed JSONL replay log with schema versioning
//   - sim/memdb/: SQLite append-only memory-record log
//   - sim/live/: WebSocket live-tail publish sink
//   - sim/trace/: decision trace recording
//
// # Determinism
//
// Given the same seed, world and policy answers, two runs produce identical
// canonical states, belief states and event sequences. Every per-agent loop
// iterates ascending agent ids; randomness is confined to PartitionedRNG
// subsystems; the decide phase is the only concurrent point and reads a
// frozen snapshot, with results consumed in fixed order.
//
// # External collaborators
//
// The decision policy, importance rater, embedder, insight generator and
// narrator are injected interfaces (collaborators.go) with deterministic
// fakes (fakes.go). The kernel depends only on their returned values.
package sim
