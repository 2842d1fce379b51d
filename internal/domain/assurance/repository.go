package assurance

import "context"

// ChainFilter narrows a compliance-chain listing. Zero-value fields match
// anything.
type ChainFilter struct {
	FrameworkID string // matches chains whose control belongs to the framework
	ControlID   string
	Status      ChainStatus
}

// ChainRepository provides read access to an organization's compliance
// chains.
type ChainRepository interface {
	// FindByOrganization retrieves an organization's chains matching the
	// filter. FrameworkID filtering is resolved by the implementation
	// against its control catalog.
	FindByOrganization(ctx context.Context, organizationID string, filter ChainFilter) ([]ComplianceChain, error)
}

// EvidenceRepository resolves evidence references for one organization.
type EvidenceRepository interface {
	// FindByIDs retrieves the evidence records with the given IDs. Unknown
	// IDs are skipped, not errors: a dangling reference should not sink a
	// projection.
	FindByIDs(ctx context.Context, ids []string, organizationID string) ([]EvidenceRef, error)
}

// AssessmentRepository provides read access to organization assessments.
type AssessmentRepository interface {
	// FindByControl retrieves the assessment touching a control, or nil if
	// the control was never assessed.
	FindByControl(ctx context.Context, organizationID, controlID string) (*Assessment, error)
}
