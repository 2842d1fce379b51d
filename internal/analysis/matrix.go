package analysis

import (
	"sort"

	"github.com/complymap/complymap-cli/internal/domain/catalog"
)

// MappedTarget describes one edge endpoint in the other framework.
type MappedTarget struct {
	ControlID  string              `json:"control_id"`
	Code       string              `json:"code"`
	Title      string              `json:"title"`
	Confidence catalog.Confidence  `json:"confidence"`
	Type       catalog.MappingType `json:"type"`
}

// MappedControl is a source-framework control with at least one edge into
// the target framework.
type MappedControl struct {
	ControlID string         `json:"control_id"`
	Code      string         `json:"code"`
	Title     string         `json:"title"`
	Targets   []MappedTarget `json:"targets"`
}

// UnmappedControl is a source-framework control with no edge into the target
// framework.
type UnmappedControl struct {
	ControlID string `json:"control_id"`
	Code      string `json:"code"`
	Title     string `json:"title"`
}

// DirectionalCoverage is one direction of a pairwise comparison. Coverage is
// not symmetric: S→T and T→S are computed independently.
type DirectionalCoverage struct {
	SourceFrameworkID  string            `json:"source_framework_id"`
	TargetFrameworkID  string            `json:"target_framework_id"`
	TotalControls      int               `json:"total_controls"`
	MappedCount        int               `json:"mapped_count"`
	CoveragePercentage int               `json:"coverage_percentage"`
	Mapped             []MappedControl   `json:"mapped"`
	Unmapped           []UnmappedControl `json:"unmapped"`
}

// ComparePair computes one direction of a pairwise comparison: for every
// control of the source framework, whether any of its outgoing edges lands
// in the target framework.
func ComparePair(
	sourceFrameworkID, targetFrameworkID string,
	sourceControls, targetControls []catalog.Control,
	resolver *MappingResolver,
) DirectionalCoverage {
	targetByID := make(map[string]catalog.Control, len(targetControls))
	for _, c := range targetControls {
		targetByID[c.ID] = c
	}

	cov := DirectionalCoverage{
		SourceFrameworkID: sourceFrameworkID,
		TargetFrameworkID: targetFrameworkID,
		TotalControls:     len(sourceControls),
		Mapped:            []MappedControl{},
		Unmapped:          []UnmappedControl{},
	}
	for _, c := range sourceControls {
		var targets []MappedTarget
		for _, e := range resolver.EdgesFrom(c.ID) {
			t, ok := targetByID[e.TargetControlID]
			if !ok {
				continue
			}
			targets = append(targets, MappedTarget{
				ControlID:  t.ID,
				Code:       t.Code,
				Title:      t.Title,
				Confidence: e.Confidence,
				Type:       e.Type,
			})
		}
		if len(targets) > 0 {
			cov.Mapped = append(cov.Mapped, MappedControl{
				ControlID: c.ID, Code: c.Code, Title: c.Title, Targets: targets,
			})
		} else {
			cov.Unmapped = append(cov.Unmapped, UnmappedControl{
				ControlID: c.ID, Code: c.Code, Title: c.Title,
			})
		}
	}
	cov.MappedCount = len(cov.Mapped)
	cov.CoveragePercentage = RoundPercent(cov.MappedCount, cov.TotalControls)
	return cov
}

// PairClassification buckets how thoroughly two frameworks map onto each
// other.
type PairClassification string

const (
	PairMapped   PairClassification = "MAPPED"
	PairPartial  PairClassification = "PARTIAL"
	PairUnmapped PairClassification = "UNMAPPED"
)

// Thresholds are the classification cut-offs as shares of the smaller
// framework's controls. They are product policy, injected rather than
// hard-coded so deployments can tune them.
type Thresholds struct {
	Mapped  float64
	Partial float64
}

// MatrixCell is one unordered framework pair of the overlap matrix. The
// matrix has no diagonal entries; (A,B) and (B,A) are the same cell.
type MatrixCell struct {
	FrameworkA     string                      `json:"framework_a"`
	FrameworkB     string                      `json:"framework_b"`
	TotalMappings  int                         `json:"total_mappings"`
	ByConfidence   map[catalog.Confidence]int  `json:"by_confidence"`
	ByType         map[catalog.MappingType]int `json:"by_type"`
	Classification PairClassification          `json:"classification"`
}

// BuildMatrix computes the overlap matrix over every unordered pair of the
// given frameworks. A pair is MAPPED when at least the Mapped share of the
// smaller framework's controls has an edge to the other framework (either
// direction), PARTIAL at the Partial share, UNMAPPED below that. Cells come
// back sorted by total mapping count, descending.
//
// Framework-count validation belongs to the caller; BuildMatrix computes
// whatever pairs it is given.
func BuildMatrix(
	frameworkIDs []string,
	controlsByFramework map[string][]catalog.Control,
	resolver *MappingResolver,
	th Thresholds,
) []MatrixCell {
	var cells []MatrixCell
	for i := 0; i < len(frameworkIDs); i++ {
		for j := i + 1; j < len(frameworkIDs); j++ {
			cells = append(cells, buildCell(frameworkIDs[i], frameworkIDs[j], controlsByFramework, resolver, th))
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].TotalMappings != cells[j].TotalMappings {
			return cells[i].TotalMappings > cells[j].TotalMappings
		}
		if cells[i].FrameworkA != cells[j].FrameworkA {
			return cells[i].FrameworkA < cells[j].FrameworkA
		}
		return cells[i].FrameworkB < cells[j].FrameworkB
	})
	return cells
}

func buildCell(
	fwA, fwB string,
	controlsByFramework map[string][]catalog.Control,
	resolver *MappingResolver,
	th Thresholds,
) MatrixCell {
	cell := MatrixCell{
		FrameworkA:   fwA,
		FrameworkB:   fwB,
		ByConfidence: make(map[catalog.Confidence]int),
		ByType:       make(map[catalog.MappingType]int),
	}

	edges := resolver.EdgesBetween(fwA, fwB)
	touched := make(map[string]bool)
	for _, e := range edges {
		cell.TotalMappings++
		cell.ByConfidence[e.Confidence]++
		cell.ByType[e.Type]++
		touched[e.SourceControlID] = true
		touched[e.TargetControlID] = true
	}

	// Classification is measured against the smaller framework: the larger
	// one can never be fully covered by definition.
	smaller := controlsByFramework[fwA]
	if len(controlsByFramework[fwB]) < len(smaller) {
		smaller = controlsByFramework[fwB]
	}
	mapped := 0
	for _, c := range smaller {
		if touched[c.ID] {
			mapped++
		}
	}
	ratio := 0.0
	if len(smaller) > 0 {
		ratio = float64(mapped) / float64(len(smaller))
	}
	switch {
	case ratio >= th.Mapped:
		cell.Classification = PairMapped
	case ratio >= th.Partial:
		cell.Classification = PairPartial
	default:
		cell.Classification = PairUnmapped
	}
	return cell
}
