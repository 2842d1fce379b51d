package analysis

import (
	"testing"

	"github.com/complymap/complymap-cli/internal/domain/assurance"
	"github.com/complymap/complymap-cli/internal/domain/catalog"
)

func edge(id, srcControl, srcFw, tgtControl, tgtFw string, conf catalog.Confidence) catalog.ControlMapping {
	return catalog.ControlMapping{
		ID:                id,
		SourceControlID:   srcControl,
		SourceFrameworkID: srcFw,
		TargetControlID:   tgtControl,
		TargetFrameworkID: tgtFw,
		Confidence:        conf,
		Type:              catalog.MappingEquivalent,
	}
}

func chain(controlID string, status assurance.ChainStatus, evidence ...string) assurance.ComplianceChain {
	return assurance.ComplianceChain{
		ID:             "ch-" + controlID,
		OrganizationID: "org-1",
		Requirement:    "requirement for " + controlID,
		ControlID:      controlID,
		EvidenceIDs:    evidence,
		Status:         status,
	}
}

func statusOf(t *testing.T, in StatusInput, controlID string) assurance.ComplianceStatus {
	t.Helper()
	statuses := ComputeControlStatuses(in)
	cs, ok := statuses[controlID]
	if !ok {
		t.Fatalf("no status computed for %s", controlID)
	}
	return cs.Status
}

func TestComputeControlStatuses_OwnChainWins(t *testing.T) {
	target := ctrl("c-iso", "", "ISO.1", 1)
	in := StatusInput{
		Controls: []catalog.Control{target},
		Resolver: NewMappingResolver([]catalog.ControlMapping{
			edge("m-1", "c-nis", "fw-nis2", "c-iso", "fw-1", catalog.ConfidenceHigh),
		}),
		Chains: []assurance.ComplianceChain{
			chain("c-iso", assurance.ChainMissing),
			chain("c-nis", assurance.ChainComplete, "ev-1"),
		},
	}

	// A HIGH-confidence completed mapping would grant COMPLIANT, but the
	// organization's own MISSING chain takes precedence.
	if got := statusOf(t, in, "c-iso"); got != assurance.StatusNonCompliant {
		t.Fatalf("expected NON_COMPLIANT, got %s", got)
	}
}

func TestComputeControlStatuses_MostFavorableOwnChain(t *testing.T) {
	target := ctrl("c-1", "", "A.1", 1)
	in := StatusInput{
		Controls: []catalog.Control{target},
		Chains: []assurance.ComplianceChain{
			chain("c-1", assurance.ChainMissing),
			chain("c-1", assurance.ChainComplete, "ev-1"),
		},
	}

	if got := statusOf(t, in, "c-1"); got != assurance.StatusCompliant {
		t.Fatalf("expected COMPLIANT from the most favorable chain, got %s", got)
	}
}

func TestComputeControlStatuses_NegativeAssessment(t *testing.T) {
	target := ctrl("c-1", "", "A.1", 1)
	in := StatusInput{
		Controls: []catalog.Control{target},
		Assessments: map[string]assurance.Assessment{
			"c-1": {ID: "a-1", OrganizationID: "org-1", ControlID: "c-1", Negative: true},
		},
	}

	if got := statusOf(t, in, "c-1"); got != assurance.StatusNonCompliant {
		t.Fatalf("expected NON_COMPLIANT, got %s", got)
	}
}

func TestComputeControlStatuses_MappedInCredit(t *testing.T) {
	cases := []struct {
		name       string
		confidence catalog.Confidence
		srcStatus  assurance.ChainStatus
		want       assurance.ComplianceStatus
	}{
		{"high confidence complete source", catalog.ConfidenceHigh, assurance.ChainComplete, assurance.StatusCompliant},
		{"medium confidence complete source", catalog.ConfidenceMedium, assurance.ChainComplete, assurance.StatusCompliant},
		{"low confidence complete source", catalog.ConfidenceLow, assurance.ChainComplete, assurance.StatusPartial},
		{"high confidence partial source", catalog.ConfidenceHigh, assurance.ChainPartial, assurance.StatusPartial},
		{"high confidence missing source", catalog.ConfidenceHigh, assurance.ChainMissing, assurance.StatusNotAssessed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := ctrl("c-iso", "", "ISO.1", 1)
			in := StatusInput{
				Controls: []catalog.Control{target},
				Resolver: NewMappingResolver([]catalog.ControlMapping{
					edge("m-1", "c-nis", "fw-nis2", "c-iso", "fw-1", tc.confidence),
				}),
				Chains: []assurance.ComplianceChain{
					chain("c-nis", tc.srcStatus, "ev-1"),
				},
			}
			if got := statusOf(t, in, "c-iso"); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestComputeControlStatuses_EvidenceWithoutCompletingChain(t *testing.T) {
	target := ctrl("c-1", "", "A.1", 1)
	in := StatusInput{
		Controls: []catalog.Control{target},
		Chains: []assurance.ComplianceChain{
			chain("c-1", "", "ev-1"),
		},
	}

	if got := statusOf(t, in, "c-1"); got != assurance.StatusPartial {
		t.Fatalf("expected PARTIAL for bare evidence link, got %s", got)
	}
	statuses := ComputeControlStatuses(in)
	if !statuses["c-1"].HasEvidence {
		t.Error("expected HasEvidence to be set")
	}
}

func TestComputeControlStatuses_NoSignals(t *testing.T) {
	target := ctrl("c-1", "", "A.1", 1)
	in := StatusInput{Controls: []catalog.Control{target}}

	if got := statusOf(t, in, "c-1"); got != assurance.StatusNotAssessed {
		t.Fatalf("expected NOT_ASSESSED, got %s", got)
	}
}

func TestComputeControlStatuses_CreditIsOneHop(t *testing.T) {
	// c-a maps to c-b maps to c-c. Only c-a has a completed chain: c-b gets
	// mapped-in credit, c-c must not inherit it transitively.
	controls := []catalog.Control{
		ctrl("c-a", "", "A.1", 1),
		ctrl("c-b", "", "B.1", 1),
		ctrl("c-c", "", "C.1", 1),
	}
	in := StatusInput{
		Controls: controls,
		Resolver: NewMappingResolver([]catalog.ControlMapping{
			edge("m-1", "c-a", "fw-a", "c-b", "fw-b", catalog.ConfidenceHigh),
			edge("m-2", "c-b", "fw-b", "c-c", "fw-c", catalog.ConfidenceHigh),
		}),
		Chains: []assurance.ComplianceChain{
			chain("c-a", assurance.ChainComplete, "ev-1"),
		},
	}

	statuses := ComputeControlStatuses(in)
	if got := statuses["c-b"].Status; got != assurance.StatusCompliant {
		t.Errorf("expected c-b COMPLIANT, got %s", got)
	}
	if got := statuses["c-c"].Status; got != assurance.StatusNotAssessed {
		t.Errorf("expected c-c NOT_ASSESSED, got %s", got)
	}
}

func TestComputeControlStatuses_MappingCycleTerminates(t *testing.T) {
	controls := []catalog.Control{
		ctrl("c-a", "", "A.1", 1),
		ctrl("c-b", "", "B.1", 1),
	}
	in := StatusInput{
		Controls: controls,
		Resolver: NewMappingResolver([]catalog.ControlMapping{
			edge("m-1", "c-a", "fw-a", "c-b", "fw-b", catalog.ConfidenceHigh),
			edge("m-2", "c-b", "fw-b", "c-a", "fw-a", catalog.ConfidenceHigh),
		}),
	}

	statuses := ComputeControlStatuses(in)
	for id, cs := range statuses {
		if cs.Status != assurance.StatusNotAssessed {
			t.Errorf("expected %s NOT_ASSESSED, got %s", id, cs.Status)
		}
	}
}
