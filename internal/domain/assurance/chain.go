package assurance

// ChainStatus is the state the chain's author assigned to a compliance
// chain. The engine reads it as ground truth for the organization's own
// framework and never recomputes it.
type ChainStatus string

const (
	ChainComplete ChainStatus = "COMPLETE"
	ChainPartial  ChainStatus = "PARTIAL"
	ChainMissing  ChainStatus = "MISSING"
)

// ComplianceChain is an organization-authored evidence trail linking a
// free-text requirement to an optional policy, an optional control and a set
// of evidence artifacts.
type ComplianceChain struct {
	ID             string
	OrganizationID string
	Requirement    string
	PolicyID       string   // optional
	ControlID      string   // optional
	EvidenceIDs    []string // may be empty
	Status         ChainStatus
}

// HasEvidence reports whether the chain carries any evidence artifacts.
func (c ComplianceChain) HasEvidence() bool {
	return len(c.EvidenceIDs) > 0
}

// EvidenceRef is an opaque organization-scoped artifact reference. The
// engine only resolves it to a filename when projecting visualization nodes.
type EvidenceRef struct {
	ID             string
	OrganizationID string
	Filename       string
}

// Assessment is an organization risk/assessment record touching one control.
// Negative assessments mark the control non-compliant unless the
// organization's own chain says otherwise.
type Assessment struct {
	ID             string
	OrganizationID string
	ControlID      string
	Negative       bool
}
