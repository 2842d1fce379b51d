package catalog

// Confidence expresses how strongly a curated mapping relates two controls.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Weight converts a confidence label to the numeric weight used for edge
// scoring. Unrecognized labels fall open to the LOW weight: a weak edge is
// still visible downstream, a dropped one is not.
func (c Confidence) Weight() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}

// MappingType classifies the semantic relation a mapping asserts.
type MappingType string

const (
	MappingEquivalent MappingType = "EQUIVALENT"
	MappingPartial    MappingType = "PARTIAL"
	MappingRelated    MappingType = "RELATED"
	MappingSuperset   MappingType = "SUPERSET"
	MappingSubset     MappingType = "SUBSET"
)

// ControlMapping is a curated, directed edge from a source control to a
// target control, normally crossing framework boundaries. Mappings are
// administrative facts: the engine never creates, mutates or infers them.
// Multiple edges between the same pair are allowed and read as additional
// evidence of relation strength.
type ControlMapping struct {
	ID                string
	SourceControlID   string
	SourceFrameworkID string
	TargetControlID   string
	TargetFrameworkID string
	Confidence        Confidence
	Type              MappingType
	Rationale         string
}
