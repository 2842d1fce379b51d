// Package json implements the engine's collaborator read interfaces over
// JSON files seeded administratively.
//
// Layout under the data directory:
//
//	frameworks.json                          reference catalog of frameworks
//	controls/<frameworkID>.json              controls of one framework
//	mappings.json                            curated control-mapping edges
//	organizations/<orgID>/chains.json        compliance chains
//	organizations/<orgID>/evidence.json      evidence references
//	organizations/<orgID>/assessments.json   risk/assessment records
//
// The engine never writes these files; they are authored by the seeding
// tooling that owns the reference data. Caller-supplied identifiers
// (framework and organization IDs) resolve strictly inside the data
// directory.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/complymap/complymap-cli/internal/domain/catalog"
	"github.com/complymap/complymap-cli/internal/security"
	sharedErrors "github.com/complymap/complymap-cli/internal/shared/errors"
)

type frameworkDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Version  string `json:"version"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

type controlDTO struct {
	ID          string `json:"id"`
	FrameworkID string `json:"framework_id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	ParentID    string `json:"parent_id,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

type mappingDTO struct {
	ID                string `json:"id"`
	SourceControlID   string `json:"source_control_id"`
	SourceFrameworkID string `json:"source_framework_id"`
	TargetControlID   string `json:"target_control_id"`
	TargetFrameworkID string `json:"target_framework_id"`
	Confidence        string `json:"confidence"`
	Type              string `json:"type"`
	Rationale         string `json:"rationale,omitempty"`
}

// CatalogRepository serves frameworks, controls and mappings from JSON
// files. It implements catalog.FrameworkRepository, catalog.ControlRepository
// and catalog.MappingRepository.
type CatalogRepository struct {
	dataDir string
	mu      sync.RWMutex
}

// NewCatalogRepository builds a catalog repository rooted at dataDir.
func NewCatalogRepository(dataDir string) (*CatalogRepository, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	return &CatalogRepository{dataDir: dataDir}, nil
}

// FindByID retrieves one framework by its ID.
func (r *CatalogRepository) FindByID(ctx context.Context, id string) (*catalog.Framework, error) {
	frameworks, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, fw := range frameworks {
		if fw.ID == id {
			return &fw, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", sharedErrors.ErrFrameworkNotFound, id)
}

// FindAll retrieves every known framework.
func (r *CatalogRepository) FindAll(ctx context.Context) ([]catalog.Framework, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dtos []frameworkDTO
	if err := r.loadFile(filepath.Join(r.dataDir, "frameworks.json"), &dtos); err != nil {
		return nil, err
	}
	frameworks := make([]catalog.Framework, 0, len(dtos))
	for _, d := range dtos {
		frameworks = append(frameworks, catalog.Framework{
			ID: d.ID, Name: d.Name, Code: d.Code,
			Version: d.Version, Category: d.Category, Active: d.Active,
		})
	}
	return frameworks, nil
}

// FindByFramework retrieves one framework's controls ordered by sort order.
// A missing controls file reads as an empty catalog, not an error.
func (r *CatalogRepository) FindByFramework(ctx context.Context, frameworkID string) ([]catalog.Control, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, err := security.ResolveWithin(r.dataDir, "controls", frameworkID+".json")
	if err != nil {
		return nil, sharedErrors.Validationf("invalid framework id %q", frameworkID)
	}
	var dtos []controlDTO
	if err := r.loadOptionalFile(path, &dtos); err != nil {
		return nil, err
	}
	controls := make([]catalog.Control, 0, len(dtos))
	for _, d := range dtos {
		controls = append(controls, catalog.Control{
			ID: d.ID, FrameworkID: d.FrameworkID, Code: d.Code,
			Title: d.Title, ParentID: d.ParentID, SortOrder: d.SortOrder,
		})
	}
	sort.SliceStable(controls, func(i, j int) bool {
		return controls[i].SortOrder < controls[j].SortOrder
	})
	return controls, nil
}

// Find retrieves mappings matching the filter.
func (r *CatalogRepository) Find(ctx context.Context, filter catalog.MappingFilter) ([]catalog.ControlMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dtos []mappingDTO
	if err := r.loadOptionalFile(filepath.Join(r.dataDir, "mappings.json"), &dtos); err != nil {
		return nil, err
	}
	mappings := make([]catalog.ControlMapping, 0, len(dtos))
	for _, d := range dtos {
		if filter.SourceFrameworkID != "" && d.SourceFrameworkID != filter.SourceFrameworkID {
			continue
		}
		if filter.TargetFrameworkID != "" && d.TargetFrameworkID != filter.TargetFrameworkID {
			continue
		}
		mappings = append(mappings, catalog.ControlMapping{
			ID:                d.ID,
			SourceControlID:   d.SourceControlID,
			SourceFrameworkID: d.SourceFrameworkID,
			TargetControlID:   d.TargetControlID,
			TargetFrameworkID: d.TargetFrameworkID,
			Confidence:        catalog.Confidence(d.Confidence),
			Type:              catalog.MappingType(d.Type),
			Rationale:         d.Rationale,
		})
	}
	return mappings, nil
}

func (r *CatalogRepository) loadFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", sharedErrors.ErrRepositoryOperation, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", sharedErrors.ErrDeserializationFailed, path, err)
	}
	return nil
}

func (r *CatalogRepository) loadOptionalFile(path string, out any) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return r.loadFile(path, out)
}
