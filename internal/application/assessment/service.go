package assessment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/complymap/complymap-cli/internal/analysis"
	"github.com/complymap/complymap-cli/internal/cache"
	"github.com/complymap/complymap-cli/internal/domain/assurance"
	"github.com/complymap/complymap-cli/internal/domain/catalog"
	"github.com/complymap/complymap-cli/internal/shared/constants"
	sharedErrors "github.com/complymap/complymap-cli/internal/shared/errors"
)

// Config wires the service's collaborators. All repositories are read-only
// from the service's point of view.
type Config struct {
	Frameworks  catalog.FrameworkRepository
	Controls    catalog.ControlRepository
	Mappings    catalog.MappingRepository
	Chains      assurance.ChainRepository
	Evidence    assurance.EvidenceRepository
	Assessments assurance.AssessmentRepository

	// Cache wraps control-tree retrieval and coverage aggregation. Nil
	// disables caching.
	Cache *cache.Cache

	// Thresholds for the overlap matrix. Zero values fall back to the
	// defaults in constants.
	Thresholds analysis.Thresholds

	Logger *zap.SugaredLogger
}

// Service coordinates the mapping and gap-analysis engine: it fetches
// read-only snapshots from the repositories, runs the pure computations in
// the analysis package, and logs data-integrity warnings.
type Service struct {
	cfg Config
}

// NewService builds the engine facade.
func NewService(cfg Config) *Service {
	if cfg.Thresholds.Mapped == 0 {
		cfg.Thresholds.Mapped = constants.DefaultMappedThreshold
	}
	if cfg.Thresholds.Partial == 0 {
		cfg.Thresholds.Partial = constants.DefaultPartialThreshold
	}
	return &Service{cfg: cfg}
}

// CoverageResult is the outcome of a coverage computation: one stat per
// requested framework plus the summed overall aggregate.
type CoverageResult struct {
	Frameworks []analysis.CoverageStat `json:"frameworks"`
	Overall    analysis.CoverageStat   `json:"overall"`
}

// GapQuery carries the listGaps filter, search, sort and pagination inputs.
type GapQuery struct {
	FrameworkID string
	ControlID   string
	Status      assurance.ComplianceStatus
	Search      string
	Page        int
	PageSize    int
	SortField   string
	SortDesc    bool
}

// GapPage is one page of gap records plus the pre-pagination total.
type GapPage struct {
	Items []analysis.GapRecord `json:"items"`
	Total int                  `json:"total"`
}

// PairwiseResult holds both directions of a two-framework comparison.
// Coverage is not assumed symmetric.
type PairwiseResult struct {
	SourceToTarget analysis.DirectionalCoverage `json:"source_to_target"`
	TargetToSource analysis.DirectionalCoverage `json:"target_to_source"`
}

// MultiResult is the outcome of a multi-framework comparison.
type MultiResult struct {
	Frameworks []analysis.CoverageStat `json:"frameworks"`
	Gaps       []analysis.GapRecord    `json:"gaps"`
	Matrix     []analysis.MatrixCell   `json:"matrix"`
}

// ListFrameworks returns the full framework catalog.
func (s *Service) ListFrameworks(ctx context.Context) ([]catalog.Framework, error) {
	frameworks, err := s.cfg.Frameworks.FindAll(ctx)
	if err != nil {
		return nil, sharedErrors.Upstream("listFrameworks", err)
	}
	return frameworks, nil
}

// BuildControlTree assembles the control forest of one framework,
// read-through cached per framework ID.
func (s *Service) BuildControlTree(ctx context.Context, frameworkID string) ([]*analysis.ControlNode, error) {
	if err := s.requireFramework(ctx, frameworkID); err != nil {
		return nil, err
	}
	v, err := s.cached(ctx, "tree:"+frameworkID, func(ctx context.Context) (any, error) {
		controls, err := s.cfg.Controls.FindByFramework(ctx, frameworkID)
		if err != nil {
			return nil, sharedErrors.Upstream("listControls", err)
		}
		forest, warnings := analysis.BuildControlTree(controls)
		s.logWarnings(warnings)
		return forest, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*analysis.ControlNode), nil
}

// ComputeFrameworkCoverage derives per-framework coverage statistics and the
// summed overall aggregate for one organization, read-through cached per
// (organization, framework set).
func (s *Service) ComputeFrameworkCoverage(ctx context.Context, organizationID string, frameworkIDs []string) (*CoverageResult, error) {
	key := coverageKey(organizationID, frameworkIDs)
	v, err := s.cached(ctx, key, func(ctx context.Context) (any, error) {
		ac, err := s.loadContext(ctx, organizationID, frameworkIDs)
		if err != nil {
			return nil, err
		}
		stats, overall := analysis.ComputeCoverage(ac.frameworks, ac.controlsByFramework, ac.statuses)
		return &CoverageResult{Frameworks: stats, Overall: overall}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CoverageResult), nil
}

// ListGaps returns one page of the organization's gaps, filtered, searched
// and sorted per the query.
func (s *Service) ListGaps(ctx context.Context, organizationID string, q GapQuery) (*GapPage, error) {
	frameworkIDs, err := s.resolveFrameworkIDs(ctx, q.FrameworkID)
	if err != nil {
		return nil, err
	}
	ac, err := s.loadContext(ctx, organizationID, frameworkIDs)
	if err != nil {
		return nil, err
	}
	gaps := analysis.BuildGapRecords(ac.frameworks, ac.controlsByFramework, ac.statuses, ac.resolver)
	gaps = analysis.FilterGaps(gaps, analysis.GapFilter{
		FrameworkID: q.FrameworkID,
		ControlID:   q.ControlID,
		Status:      q.Status,
		Search:      q.Search,
	})
	sortField := q.SortField
	if sortField == "" {
		sortField = analysis.SortByControlCode
	}
	analysis.SortGaps(gaps, sortField, q.SortDesc)
	items, total := analysis.PaginateGaps(gaps, q.Page, q.PageSize)
	return &GapPage{Items: items, Total: total}, nil
}

// ComparePairwise computes bidirectional mapping coverage between exactly
// two frameworks.
func (s *Service) ComparePairwise(ctx context.Context, organizationID, sourceFrameworkID, targetFrameworkID string) (*PairwiseResult, error) {
	if sourceFrameworkID == targetFrameworkID {
		return nil, sharedErrors.Validationf("pairwise comparison requires two distinct frameworks")
	}
	ac, err := s.loadContext(ctx, organizationID, []string{sourceFrameworkID, targetFrameworkID})
	if err != nil {
		return nil, err
	}
	src := ac.controlsByFramework[sourceFrameworkID]
	tgt := ac.controlsByFramework[targetFrameworkID]
	return &PairwiseResult{
		SourceToTarget: analysis.ComparePair(sourceFrameworkID, targetFrameworkID, src, tgt, ac.resolver),
		TargetToSource: analysis.ComparePair(targetFrameworkID, sourceFrameworkID, tgt, src, ac.resolver),
	}, nil
}

// CompareMulti computes coverage, gaps and the overlap matrix across 2-5
// frameworks. Counts outside that range are rejected with a validation
// error and no partial result.
func (s *Service) CompareMulti(ctx context.Context, organizationID string, frameworkIDs []string) (*MultiResult, error) {
	if len(frameworkIDs) < constants.MinCompareFrameworks || len(frameworkIDs) > constants.MaxCompareFrameworks {
		return nil, sharedErrors.Validationf("multi-framework comparison takes %d to %d frameworks, got %d",
			constants.MinCompareFrameworks, constants.MaxCompareFrameworks, len(frameworkIDs))
	}
	ac, err := s.loadContext(ctx, organizationID, frameworkIDs)
	if err != nil {
		return nil, err
	}
	stats, _ := analysis.ComputeCoverage(ac.frameworks, ac.controlsByFramework, ac.statuses)
	gaps := analysis.BuildGapRecords(ac.frameworks, ac.controlsByFramework, ac.statuses, ac.resolver)
	matrix := analysis.BuildMatrix(frameworkIDs, ac.controlsByFramework, ac.resolver, s.cfg.Thresholds)
	return &MultiResult{Frameworks: stats, Gaps: gaps, Matrix: matrix}, nil
}

// ProjectGraph flattens one framework's mappings and the organization's
// chains into the generic node/edge structure, folding in up to maxChains
// evidence-carrying chains (DefaultMaxChains when maxChains is 0 or
// negative).
func (s *Service) ProjectGraph(ctx context.Context, organizationID, frameworkID string, maxChains int) (*analysis.Graph, error) {
	if err := s.requireFramework(ctx, frameworkID); err != nil {
		return nil, err
	}
	if maxChains <= 0 {
		maxChains = constants.DefaultMaxChains
	}

	mappings, err := s.cfg.Mappings.Find(ctx, catalog.MappingFilter{SourceFrameworkID: frameworkID})
	if err != nil {
		return nil, sharedErrors.Upstream("listMappings", err)
	}
	incoming, err := s.cfg.Mappings.Find(ctx, catalog.MappingFilter{TargetFrameworkID: frameworkID})
	if err != nil {
		return nil, sharedErrors.Upstream("listMappings", err)
	}
	for _, m := range incoming {
		if m.SourceFrameworkID != frameworkID {
			mappings = append(mappings, m)
		}
	}

	chains, err := s.cfg.Chains.FindByOrganization(ctx, organizationID, assurance.ChainFilter{FrameworkID: frameworkID})
	if err != nil {
		return nil, sharedErrors.Upstream("listComplianceChains", err)
	}

	frameworkSet := map[string]bool{frameworkID: true}
	for _, m := range mappings {
		frameworkSet[m.SourceFrameworkID] = true
		frameworkSet[m.TargetFrameworkID] = true
	}
	frameworks := make(map[string]catalog.Framework)
	controls := make(map[string]catalog.Control)
	for id := range frameworkSet {
		fw, err := s.cfg.Frameworks.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrFrameworkNotFound) {
				// A mapping endpoint in an unknown framework is a data
				// anomaly, not a caller mistake.
				s.logWarnings([]analysis.Warning{{
					Kind:   analysis.WarnDanglingEdge,
					Detail: fmt.Sprintf("mapping references unknown framework %s", id),
				}})
				continue
			}
			return nil, sharedErrors.Upstream("getFramework", err)
		}
		frameworks[fw.ID] = *fw
		cs, err := s.cfg.Controls.FindByFramework(ctx, id)
		if err != nil {
			return nil, sharedErrors.Upstream("listControls", err)
		}
		for _, c := range cs {
			controls[c.ID] = c
		}
	}

	evidenceIDs := make([]string, 0)
	seen := make(map[string]bool)
	for _, ch := range chains {
		for _, id := range ch.EvidenceIDs {
			if !seen[id] {
				seen[id] = true
				evidenceIDs = append(evidenceIDs, id)
			}
		}
	}
	evidence := make(map[string]assurance.EvidenceRef)
	if len(evidenceIDs) > 0 {
		refs, err := s.cfg.Evidence.FindByIDs(ctx, evidenceIDs, organizationID)
		if err != nil {
			return nil, sharedErrors.Upstream("listEvidence", err)
		}
		for _, ref := range refs {
			evidence[ref.ID] = ref
		}
	}

	g := analysis.ProjectGraph(frameworks, controls, mappings, chains, evidence, maxChains)
	return &g, nil
}

// InvalidateFramework drops the cached control tree and every cached
// coverage aggregate touching one framework, used by administrative callers
// after reseeding reference data.
func (s *Service) InvalidateFramework(frameworkID string) {
	if s.cfg.Cache == nil {
		return
	}
	s.cfg.Cache.Invalidate("tree:" + frameworkID)
	s.cfg.Cache.InvalidateFunc(func(key string) bool {
		rest, ok := strings.CutPrefix(key, "coverage:")
		if !ok {
			return false
		}
		_, list, ok := strings.Cut(rest, ":")
		if !ok {
			return false
		}
		for _, id := range strings.Split(list, ",") {
			if id == frameworkID {
				return true
			}
		}
		return false
	})
}

// analysisContext is one fully-loaded, read-only snapshot for a status
// computation.
type analysisContext struct {
	frameworks          []catalog.Framework
	controlsByFramework map[string][]catalog.Control
	resolver            *analysis.MappingResolver
	statuses            map[string]analysis.ControlStatus
}

// loadContext fetches every snapshot a status computation needs: the
// frameworks, their controls, the full mapping edge set (pruned of dangling
// edges), the organization's chains across all frameworks, and the
// organization's assessments for the analyzed controls.
func (s *Service) loadContext(ctx context.Context, organizationID string, frameworkIDs []string) (*analysisContext, error) {
	ac := &analysisContext{controlsByFramework: make(map[string][]catalog.Control)}

	known := make(map[string]bool)
	loaded := make(map[string]bool)
	var allControls []catalog.Control
	for _, id := range frameworkIDs {
		fw, err := s.findFramework(ctx, id)
		if err != nil {
			return nil, err
		}
		ac.frameworks = append(ac.frameworks, *fw)

		controls, err := s.cfg.Controls.FindByFramework(ctx, id)
		if err != nil {
			return nil, sharedErrors.Upstream("listControls", err)
		}
		ac.controlsByFramework[id] = controls
		allControls = append(allControls, controls...)
		loaded[id] = true
		for _, c := range controls {
			known[c.ID] = true
		}
	}

	edges, err := s.cfg.Mappings.Find(ctx, catalog.MappingFilter{})
	if err != nil {
		return nil, sharedErrors.Upstream("listMappings", err)
	}
	edges, warnings := analysis.PruneDanglingMappings(edges, known, loaded)
	s.logWarnings(warnings)
	ac.resolver = analysis.NewMappingResolver(edges)

	// All of the organization's chains, not just those on the analyzed
	// frameworks: mapped-in credit needs the chain status of source
	// controls in other frameworks.
	chains, err := s.cfg.Chains.FindByOrganization(ctx, organizationID, assurance.ChainFilter{})
	if err != nil {
		return nil, sharedErrors.Upstream("listComplianceChains", err)
	}

	assessments := make(map[string]assurance.Assessment)
	for _, c := range allControls {
		a, err := s.cfg.Assessments.FindByControl(ctx, organizationID, c.ID)
		if err != nil {
			return nil, sharedErrors.Upstream("hasOrgAssessment", err)
		}
		if a != nil {
			assessments[c.ID] = *a
		}
	}

	ac.statuses = analysis.ComputeControlStatuses(analysis.StatusInput{
		Controls:    allControls,
		Resolver:    ac.resolver,
		Chains:      chains,
		Assessments: assessments,
	})
	return ac, nil
}

// resolveFrameworkIDs expands an optional framework filter into the set of
// frameworks to analyze: the one named, or all active frameworks.
func (s *Service) resolveFrameworkIDs(ctx context.Context, frameworkID string) ([]string, error) {
	if frameworkID != "" {
		return []string{frameworkID}, nil
	}
	all, err := s.cfg.Frameworks.FindAll(ctx)
	if err != nil {
		return nil, sharedErrors.Upstream("listFrameworks", err)
	}
	ids := make([]string, 0, len(all))
	for _, fw := range all {
		if fw.Active {
			ids = append(ids, fw.ID)
		}
	}
	return ids, nil
}

func (s *Service) findFramework(ctx context.Context, id string) (*catalog.Framework, error) {
	fw, err := s.cfg.Frameworks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sharedErrors.ErrFrameworkNotFound) {
			return nil, sharedErrors.Validationf("unknown framework %q", id)
		}
		return nil, sharedErrors.Upstream("getFramework", err)
	}
	return fw, nil
}

func (s *Service) requireFramework(ctx context.Context, id string) error {
	_, err := s.findFramework(ctx, id)
	return err
}

func (s *Service) cached(ctx context.Context, key string, compute cache.ComputeFunc) (any, error) {
	if s.cfg.Cache == nil {
		return compute(ctx)
	}
	return s.cfg.Cache.Get(ctx, key, compute)
}

func (s *Service) logWarnings(warnings []analysis.Warning) {
	if s.cfg.Logger == nil {
		return
	}
	for _, w := range warnings {
		s.cfg.Logger.Warnw("data integrity warning", "kind", w.Kind, "detail", w.Detail)
	}
}

func coverageKey(organizationID string, frameworkIDs []string) string {
	ids := make([]string, len(frameworkIDs))
	copy(ids, frameworkIDs)
	sort.Strings(ids)
	return "coverage:" + organizationID + ":" + strings.Join(ids, ",")
}
