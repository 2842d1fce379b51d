package analysis

import (
	"github.com/complymap/complymap-cli/internal/domain/assurance"
	"github.com/complymap/complymap-cli/internal/domain/catalog"
)

// ControlStatus is the derived compliance picture for one control of one
// organization.
type ControlStatus struct {
	Control       catalog.Control
	HasAssessment bool
	HasEvidence   bool
	Status        assurance.ComplianceStatus
}

// StatusInput carries everything the calculator needs, pre-fetched by the
// caller. All collections are read-only snapshots.
type StatusInput struct {
	// Controls of the frameworks being analyzed.
	Controls []catalog.Control
	// Resolver over the relevant mapping edges.
	Resolver *MappingResolver
	// The organization's compliance chains, including chains on controls of
	// other frameworks that map into the analyzed ones.
	Chains []assurance.ComplianceChain
	// The organization's assessments keyed by control ID.
	Assessments map[string]assurance.Assessment
}

// ComputeControlStatuses derives a compliance status for every control in
// the input, keyed by control ID.
//
// The derivation is an explicit precedence chain, not a score sum, so
// indirect credit can never hide missing direct evidence:
//
//  1. the organization's own chain on the control (COMPLETE, PARTIAL or
//     MISSING) always wins;
//  2. a negative assessment marks the control NON_COMPLIANT;
//  3. a HIGH or MEDIUM confidence incoming mapping from a control the
//     organization completed directly marks it COMPLIANT;
//  4. evidence without a completing chain marks it PARTIAL;
//  5. weaker mapped-in signals (a LOW-confidence completed source, or a
//     source that is itself only PARTIAL) mark it PARTIAL;
//  6. otherwise NOT_ASSESSED.
//
// Mapped-in credit is one hop and derives only from the source control's
// direct chain status, never from another inferred status, which keeps the
// calculation non-recursive and immune to mapping cycles.
func ComputeControlStatuses(in StatusInput) map[string]ControlStatus {
	chainsByControl := make(map[string][]assurance.ComplianceChain)
	for _, ch := range in.Chains {
		if ch.ControlID == "" {
			continue
		}
		chainsByControl[ch.ControlID] = append(chainsByControl[ch.ControlID], ch)
	}

	out := make(map[string]ControlStatus, len(in.Controls))
	for _, c := range in.Controls {
		cs := ControlStatus{Control: c}
		if _, ok := in.Assessments[c.ID]; ok {
			cs.HasAssessment = true
		}
		for _, ch := range chainsByControl[c.ID] {
			if ch.HasEvidence() {
				cs.HasEvidence = true
				break
			}
		}
		cs.Status = deriveStatus(c.ID, cs.HasEvidence, chainsByControl, in.Assessments, in.Resolver)
		out[c.ID] = cs
	}
	return out
}

func deriveStatus(
	controlID string,
	hasEvidence bool,
	chainsByControl map[string][]assurance.ComplianceChain,
	assessments map[string]assurance.Assessment,
	resolver *MappingResolver,
) assurance.ComplianceStatus {
	// 1. Own chain wins.
	if direct, ok := bestChainStatus(chainsByControl[controlID]); ok {
		switch direct {
		case assurance.ChainComplete:
			return assurance.StatusCompliant
		case assurance.ChainPartial:
			return assurance.StatusPartial
		case assurance.ChainMissing:
			return assurance.StatusNonCompliant
		default:
			// A chain with no authored status is a bare evidence link:
			// evidence without a completing chain.
			if hasEvidence {
				return assurance.StatusPartial
			}
		}
	}

	// 2. A negative assessment is still the organization's own word.
	if a, ok := assessments[controlID]; ok && a.Negative {
		return assurance.StatusNonCompliant
	}

	// 3-5. Mapped-in credit, strongest signal first.
	var weakCredit bool
	if resolver != nil {
		for _, e := range resolver.EdgesTo(controlID) {
			src, ok := bestChainStatus(chainsByControl[e.SourceControlID])
			if !ok {
				continue
			}
			switch {
			case src == assurance.ChainComplete &&
				(e.Confidence == catalog.ConfidenceHigh || e.Confidence == catalog.ConfidenceMedium):
				return assurance.StatusCompliant
			case src == assurance.ChainComplete || src == assurance.ChainPartial:
				weakCredit = true
			}
		}
	}
	if weakCredit {
		return assurance.StatusPartial
	}

	return assurance.StatusNotAssessed
}

// bestChainStatus picks the most favorable status among an organization's
// chains on one control: a later COMPLETE chain must not be hidden by an
// older MISSING one.
func bestChainStatus(chains []assurance.ComplianceChain) (assurance.ChainStatus, bool) {
	if len(chains) == 0 {
		return "", false
	}
	best := chains[0].Status
	for _, ch := range chains[1:] {
		if chainRank(ch.Status) > chainRank(best) {
			best = ch.Status
		}
	}
	return best, true
}

func chainRank(s assurance.ChainStatus) int {
	switch s {
	case assurance.ChainComplete:
		return 3
	case assurance.ChainPartial:
		return 2
	case assurance.ChainMissing:
		return 1
	}
	return 0
}
