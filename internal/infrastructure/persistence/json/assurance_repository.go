package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/complymap/complymap-cli/internal/domain/assurance"
	"github.com/complymap/complymap-cli/internal/security"
	sharedErrors "github.com/complymap/complymap-cli/internal/shared/errors"
)

type chainDTO struct {
	ID          string   `json:"id"`
	Requirement string   `json:"requirement"`
	PolicyID    string   `json:"policy_id,omitempty"`
	ControlID   string   `json:"control_id,omitempty"`
	EvidenceIDs []string `json:"evidence_ids,omitempty"`
	Status      string   `json:"status"`
}

type evidenceDTO struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type assessmentDTO struct {
	ID        string `json:"id"`
	ControlID string `json:"control_id"`
	Negative  bool   `json:"negative"`
}

// AssuranceRepository serves an organization's chains, evidence and
// assessments from JSON files. It implements assurance.ChainRepository,
// assurance.EvidenceRepository and assurance.AssessmentRepository.
type AssuranceRepository struct {
	dataDir string
	catalog *CatalogRepository
	mu      sync.RWMutex
}

// NewAssuranceRepository builds an assurance repository rooted at dataDir.
// The catalog repository resolves control-to-framework membership for the
// FrameworkID chain filter.
func NewAssuranceRepository(dataDir string, catalogRepo *CatalogRepository) (*AssuranceRepository, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	return &AssuranceRepository{dataDir: dataDir, catalog: catalogRepo}, nil
}

// FindByOrganization retrieves an organization's chains matching the filter.
func (r *AssuranceRepository) FindByOrganization(ctx context.Context, organizationID string, filter assurance.ChainFilter) ([]assurance.ComplianceChain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, err := r.orgFile(organizationID, "chains.json")
	if err != nil {
		return nil, err
	}
	var dtos []chainDTO
	if err := r.loadOptionalFile(path, &dtos); err != nil {
		return nil, err
	}

	var inFramework map[string]bool
	if filter.FrameworkID != "" && r.catalog != nil {
		controls, err := r.catalog.FindByFramework(ctx, filter.FrameworkID)
		if err != nil {
			return nil, err
		}
		inFramework = make(map[string]bool, len(controls))
		for _, c := range controls {
			inFramework[c.ID] = true
		}
	}

	chains := make([]assurance.ComplianceChain, 0, len(dtos))
	for _, d := range dtos {
		if filter.ControlID != "" && d.ControlID != filter.ControlID {
			continue
		}
		if filter.Status != "" && assurance.ChainStatus(d.Status) != filter.Status {
			continue
		}
		if inFramework != nil && !inFramework[d.ControlID] {
			continue
		}
		chains = append(chains, assurance.ComplianceChain{
			ID:             d.ID,
			OrganizationID: organizationID,
			Requirement:    d.Requirement,
			PolicyID:       d.PolicyID,
			ControlID:      d.ControlID,
			EvidenceIDs:    d.EvidenceIDs,
			Status:         assurance.ChainStatus(d.Status),
		})
	}
	return chains, nil
}

// FindByIDs retrieves the evidence records with the given IDs. Unknown IDs
// are skipped.
func (r *AssuranceRepository) FindByIDs(ctx context.Context, ids []string, organizationID string) ([]assurance.EvidenceRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, err := r.orgFile(organizationID, "evidence.json")
	if err != nil {
		return nil, err
	}
	var dtos []evidenceDTO
	if err := r.loadOptionalFile(path, &dtos); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	refs := make([]assurance.EvidenceRef, 0, len(ids))
	for _, d := range dtos {
		if wanted[d.ID] {
			refs = append(refs, assurance.EvidenceRef{
				ID: d.ID, OrganizationID: organizationID, Filename: d.Filename,
			})
		}
	}
	return refs, nil
}

// FindByControl retrieves the assessment touching a control, or nil.
func (r *AssuranceRepository) FindByControl(ctx context.Context, organizationID, controlID string) (*assurance.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, err := r.orgFile(organizationID, "assessments.json")
	if err != nil {
		return nil, err
	}
	var dtos []assessmentDTO
	if err := r.loadOptionalFile(path, &dtos); err != nil {
		return nil, err
	}
	for _, d := range dtos {
		if d.ControlID == controlID {
			return &assurance.Assessment{
				ID:             d.ID,
				OrganizationID: organizationID,
				ControlID:      d.ControlID,
				Negative:       d.Negative,
			}, nil
		}
	}
	return nil, nil
}

// orgFile resolves one of the organization's files strictly inside the data
// directory; the organization ID arrives from the caller verbatim.
func (r *AssuranceRepository) orgFile(organizationID, name string) (string, error) {
	path, err := security.ResolveWithin(r.dataDir, "organizations", organizationID, name)
	if err != nil {
		return "", sharedErrors.Validationf("invalid organization id %q", organizationID)
	}
	return path, nil
}

func (r *AssuranceRepository) loadOptionalFile(path string, out any) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", sharedErrors.ErrRepositoryOperation, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", sharedErrors.ErrDeserializationFailed, path, err)
	}
	return nil
}
