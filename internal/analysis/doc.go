// Package analysis implements the cross-framework mapping and gap-analysis
// engine.
//
// Architecture overview:
//
//   - BuildControlTree assembles a framework's flat control list into an
//     ordered forest, tolerating parentage cycles with a visited guard.
//   - MappingResolver indexes curated control-mapping edges and answers
//     EdgesFrom / EdgesTo / EdgesBetween queries with confidence metadata.
//   - ComputeControlStatuses derives one compliance status per control for
//     an organization by combining its own chains, assessments, and
//     mapped-in credit behind an explicit precedence chain.
//   - Coverage and gap helpers roll statuses into per-framework statistics
//     and a filterable, sortable, pageable gap list.
//   - ComparePair and BuildMatrix compute bidirectional two-framework
//     coverage and the N-by-N overlap classification matrix.
//   - ProjectGraph flattens mappings and chains into a generic node/edge
//     structure for graph-rendering front ends.
//
// Every function here is pure over its inputs and safe to call from any
// number of goroutines; shared mutable state lives only in the cache package
// that wraps these computations. Data anomalies (cycles, dangling edges)
// come back as Warnings and never abort a computation.
package analysis
