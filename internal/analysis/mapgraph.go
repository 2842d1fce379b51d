package analysis

import "github.com/complymap/complymap-cli/internal/domain/catalog"

// MappingResolver indexes curated mapping edges for constant-time lookups by
// source control, target control, and framework pair. It never mutates the
// edge set.
type MappingResolver struct {
	edges []catalog.ControlMapping
	from  map[string][]catalog.ControlMapping
	to    map[string][]catalog.ControlMapping
}

// NewMappingResolver builds a resolver over the given edges.
func NewMappingResolver(edges []catalog.ControlMapping) *MappingResolver {
	r := &MappingResolver{
		edges: edges,
		from:  make(map[string][]catalog.ControlMapping),
		to:    make(map[string][]catalog.ControlMapping),
	}
	for _, e := range edges {
		r.from[e.SourceControlID] = append(r.from[e.SourceControlID], e)
		r.to[e.TargetControlID] = append(r.to[e.TargetControlID], e)
	}
	return r
}

// EdgesFrom returns every mapping originating at the control.
func (r *MappingResolver) EdgesFrom(controlID string) []catalog.ControlMapping {
	return r.from[controlID]
}

// EdgesTo returns every mapping pointing at the control.
func (r *MappingResolver) EdgesTo(controlID string) []catalog.ControlMapping {
	return r.to[controlID]
}

// EdgesBetween returns every mapping between the two frameworks, both
// directions merged.
func (r *MappingResolver) EdgesBetween(frameworkA, frameworkB string) []catalog.ControlMapping {
	var out []catalog.ControlMapping
	for _, e := range r.edges {
		if (e.SourceFrameworkID == frameworkA && e.TargetFrameworkID == frameworkB) ||
			(e.SourceFrameworkID == frameworkB && e.TargetFrameworkID == frameworkA) {
			out = append(out, e)
		}
	}
	return out
}

// PruneDanglingMappings drops edges that reference a non-existent control,
// reporting one warning per dropped edge. Only endpoints belonging to a
// loaded framework are checked: an edge into a framework whose catalog was
// not loaded cannot be judged dangling. A dangling edge is a data-integrity
// anomaly, not a reason to fail the computation.
func PruneDanglingMappings(edges []catalog.ControlMapping, known map[string]bool, loadedFrameworks map[string]bool) ([]catalog.ControlMapping, []Warning) {
	kept := make([]catalog.ControlMapping, 0, len(edges))
	var warnings []Warning
	for _, e := range edges {
		if loadedFrameworks[e.SourceFrameworkID] && !known[e.SourceControlID] {
			warnings = append(warnings, warnf(WarnDanglingEdge,
				"mapping %s references missing source control %s, skipping", e.ID, e.SourceControlID))
			continue
		}
		if loadedFrameworks[e.TargetFrameworkID] && !known[e.TargetControlID] {
			warnings = append(warnings, warnf(WarnDanglingEdge,
				"mapping %s references missing target control %s, skipping", e.ID, e.TargetControlID))
			continue
		}
		kept = append(kept, e)
	}
	return kept, warnings
}
