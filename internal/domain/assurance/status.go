package assurance

// ComplianceStatus is the per-control status the engine derives for an
// organization by combining direct chains, assessments and mapped-in credit.
type ComplianceStatus string

const (
	StatusNotAssessed  ComplianceStatus = "NOT_ASSESSED"
	StatusNonCompliant ComplianceStatus = "NON_COMPLIANT"
	StatusPartial      ComplianceStatus = "PARTIAL"
	StatusCompliant    ComplianceStatus = "COMPLIANT"
)

// Rank returns the fixed sort ordering for compliance statuses:
// NOT_ASSESSED < NON_COMPLIANT < PARTIAL < COMPLIANT.
// Unknown values sort first so bad data surfaces at the top of listings.
func (s ComplianceStatus) Rank() int {
	switch s {
	case StatusNotAssessed:
		return 1
	case StatusNonCompliant:
		return 2
	case StatusPartial:
		return 3
	case StatusCompliant:
		return 4
	}
	return 0
}
