// Package sim provides the core discrete-event CPU scheduling engine for cpu-sim.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - process.go: Process records and the per-run state reset before every run
//   - policy.go: the five scheduling policies and how they are selected
//   - scheduler.go: the Engine, its per-run arena and the shared dispatch helpers
//
// Each policy lives in its own file (nonpreemptive.go, srtf.go, round_robin.go,
// priority.go) and drives the same runState: admit arrivals, pick a process,
// execute cycles, finalize.
//
// # Architecture
//
// The sim package defines the data model and the scheduling stage; the other
// stages live in sub-packages:
//   - sim/contention/: resources, action timelines and the synchronization overlay
//   - sim/session/: the engine-facing facade (load, run, query averages)
//   - sim/workload/: line-oriented input parsing, loading through afs and
//     seeded synthetic process generation (rng.go holds the partitioned RNG)
//   - sim/trace/: decision trace recording (dispatch, preemption, aging, contention)
//   - sim/telemetry/: Prometheus run metrics and OpenTelemetry spans
//
// # Determinism
//
// A run is a pure computation over the process arena. Processes are addressed by
// stable integer indices, every tie is broken by arrival time and then load order,
// and all per-run state is reset first, so the same input always yields the same
// interval log.
package sim
