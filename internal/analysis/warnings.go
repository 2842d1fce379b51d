package analysis

import "fmt"

// Warning kinds reported for data-integrity anomalies. Anomalies are
// tolerated, never fatal: the affected node is treated as a root or the
// dangling edge is skipped.
const (
	WarnControlCycle   = "control_cycle"
	WarnDanglingParent = "dangling_parent"
	WarnDanglingEdge   = "dangling_mapping"
)

// Warning records one data-integrity anomaly encountered during a
// computation. Callers are expected to log warnings; they carry no result
// semantics.
type Warning struct {
	Kind   string
	Detail string
}

func warnf(kind, format string, args ...any) Warning {
	return Warning{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
