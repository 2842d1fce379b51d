package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/complymap/complymap-cli/internal/domain/assurance"
	"github.com/complymap/complymap-cli/internal/domain/catalog"
)

// CoverageStat aggregates per-control statuses for one framework (or, for
// the overall aggregate, across all analyzed frameworks).
type CoverageStat struct {
	FrameworkID   string `json:"framework_id,omitempty"`
	FrameworkName string `json:"framework_name,omitempty"`
	Total         int    `json:"total"`
	Complete      int    `json:"complete"`
	Partial       int    `json:"partial"`
	Missing       int    `json:"missing"`
	Percentage    int    `json:"percentage"`
}

// GapRecord is one analyzed control that lacks full compliance coverage,
// with the mapping edges originating from it.
type GapRecord struct {
	FrameworkID      string                     `json:"framework_id"`
	FrameworkName    string                     `json:"framework_name"`
	ControlID        string                     `json:"control_id"`
	ControlCode      string                     `json:"control_code"`
	ControlTitle     string                     `json:"control_title"`
	HasAssessment    bool                       `json:"has_assessment"`
	HasEvidence      bool                       `json:"has_evidence"`
	ComplianceStatus assurance.ComplianceStatus `json:"compliance_status"`
	Mappings         []catalog.ControlMapping   `json:"mappings,omitempty"`
}

// RoundPercent computes round(part/total*100), with 0/0 defined as 0 rather
// than a division error.
func RoundPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// ComputeCoverage rolls per-control statuses into one CoverageStat per
// framework plus an overall aggregate. The overall stat sums counts across
// frameworks (it does not average percentages) and derives one combined
// percentage.
func ComputeCoverage(
	frameworks []catalog.Framework,
	controlsByFramework map[string][]catalog.Control,
	statuses map[string]ControlStatus,
) ([]CoverageStat, CoverageStat) {
	stats := make([]CoverageStat, 0, len(frameworks))
	var overall CoverageStat
	for _, fw := range frameworks {
		st := CoverageStat{FrameworkID: fw.ID, FrameworkName: fw.Name}
		for _, c := range controlsByFramework[fw.ID] {
			st.Total++
			switch statuses[c.ID].Status {
			case assurance.StatusCompliant:
				st.Complete++
			case assurance.StatusPartial:
				st.Partial++
			default:
				st.Missing++
			}
		}
		st.Percentage = RoundPercent(st.Complete, st.Total)
		stats = append(stats, st)

		overall.Total += st.Total
		overall.Complete += st.Complete
		overall.Partial += st.Partial
		overall.Missing += st.Missing
	}
	overall.Percentage = RoundPercent(overall.Complete, overall.Total)
	return stats, overall
}

// BuildGapRecords returns one record per analyzed control whose status is
// anything but COMPLIANT, ordered by framework then control code.
func BuildGapRecords(
	frameworks []catalog.Framework,
	controlsByFramework map[string][]catalog.Control,
	statuses map[string]ControlStatus,
	resolver *MappingResolver,
) []GapRecord {
	var gaps []GapRecord
	for _, fw := range frameworks {
		for _, c := range controlsByFramework[fw.ID] {
			cs := statuses[c.ID]
			if cs.Status == assurance.StatusCompliant {
				continue
			}
			gaps = append(gaps, GapRecord{
				FrameworkID:      fw.ID,
				FrameworkName:    fw.Name,
				ControlID:        c.ID,
				ControlCode:      c.Code,
				ControlTitle:     c.Title,
				HasAssessment:    cs.HasAssessment,
				HasEvidence:      cs.HasEvidence,
				ComplianceStatus: cs.Status,
				Mappings:         resolver.EdgesFrom(c.ID),
			})
		}
	}
	return gaps
}

// GapFilter narrows a gap listing. Zero-value fields match anything. Search
// is a case-insensitive substring match over control code, control title and
// framework name.
type GapFilter struct {
	FrameworkID string
	ControlID   string
	Status      assurance.ComplianceStatus
	Search      string
}

// FilterGaps applies the filter to a gap list.
func FilterGaps(gaps []GapRecord, f GapFilter) []GapRecord {
	needle := strings.ToLower(f.Search)
	out := make([]GapRecord, 0, len(gaps))
	for _, g := range gaps {
		if f.FrameworkID != "" && g.FrameworkID != f.FrameworkID {
			continue
		}
		if f.ControlID != "" && g.ControlID != f.ControlID {
			continue
		}
		if f.Status != "" && g.ComplianceStatus != f.Status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(g.ControlCode), needle) &&
			!strings.Contains(strings.ToLower(g.ControlTitle), needle) &&
			!strings.Contains(strings.ToLower(g.FrameworkName), needle) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Gap sort fields.
const (
	SortByControlCode   = "control_code"
	SortByFrameworkName = "framework_name"
	SortByStatus        = "status"
)

// SortGaps orders gaps by the given field, ascending unless desc is set,
// with a stable tie-break on control code.
func SortGaps(gaps []GapRecord, field string, desc bool) {
	less := func(a, b GapRecord) bool {
		switch field {
		case SortByFrameworkName:
			if a.FrameworkName != b.FrameworkName {
				return a.FrameworkName < b.FrameworkName
			}
		case SortByStatus:
			if ra, rb := a.ComplianceStatus.Rank(), b.ComplianceStatus.Rank(); ra != rb {
				return ra < rb
			}
		}
		return a.ControlCode < b.ControlCode
	}
	sort.SliceStable(gaps, func(i, j int) bool {
		if desc {
			return less(gaps[j], gaps[i])
		}
		return less(gaps[i], gaps[j])
	})
}

// PaginateGaps slices a gap list into one page. Page numbering starts at 1;
// non-positive page or pageSize values fall back to page 1 and the full
// list. The returned total is the pre-pagination count.
func PaginateGaps(gaps []GapRecord, page, pageSize int) ([]GapRecord, int) {
	total := len(gaps)
	if pageSize <= 0 {
		return gaps, total
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []GapRecord{}, total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return gaps[start:end], total
}
