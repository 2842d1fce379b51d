package catalog

import "context"

// MappingFilter narrows a mapping listing. Zero-value fields match anything.
type MappingFilter struct {
	SourceFrameworkID string
	TargetFrameworkID string
}

// FrameworkRepository provides read access to framework reference data.
type FrameworkRepository interface {
	// FindByID retrieves one framework by its ID.
	FindByID(ctx context.Context, id string) (*Framework, error)

	// FindAll retrieves every known framework.
	FindAll(ctx context.Context) ([]Framework, error)
}

// ControlRepository provides read access to a framework's controls.
type ControlRepository interface {
	// FindByFramework retrieves all controls of one framework, ordered by
	// sort order.
	FindByFramework(ctx context.Context, frameworkID string) ([]Control, error)
}

// MappingRepository provides read access to curated control mappings.
type MappingRepository interface {
	// Find retrieves mappings matching the filter.
	Find(ctx context.Context, filter MappingFilter) ([]ControlMapping, error)
}
