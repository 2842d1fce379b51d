package analysis

import (
	"github.com/complymap/complymap-cli/internal/domain/assurance"
	"github.com/complymap/complymap-cli/internal/domain/catalog"
)

// Node types of the projected graph.
const (
	NodeTypeFramework = "framework"
	NodeTypeControl   = "control"
)

// GraphNode is one node of the projected visualization graph.
type GraphNode struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	FrameworkID string   `json:"framework_id,omitempty"`
	Evidence    []string `json:"evidence,omitempty"`
}

// GraphEdge is one weighted edge of the projected graph. Value is the
// confidence weight, Label the confidence name.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  int    `json:"value"`
	Label  string `json:"label"`
}

// GraphMetadata summarizes a projection for the consumer.
type GraphMetadata struct {
	FrameworkCount int `json:"framework_count"`
	ControlCount   int `json:"control_count"`
	MappingCount   int `json:"mapping_count"`
	ChainCount     int `json:"chain_count"`
}

// Graph is the generic node/edge structure consumable by any graph-rendering
// front end.
type Graph struct {
	Nodes    []GraphNode   `json:"nodes"`
	Edges    []GraphEdge   `json:"edges"`
	Metadata GraphMetadata `json:"metadata"`
}

// ProjectGraph flattens mappings and compliance chains into a node/edge
// graph: one node per framework participating in any edge, one node per
// distinct control participating in any mapping or chain (de-duplicated by
// ID), and one edge per mapping weighted by confidence.
//
// Chains with evidence enrich their control node with resolved evidence
// filenames, capped at maxChains chains to bound response size. Pass nil
// evidence (or maxChains 0) for the plain projection.
func ProjectGraph(
	frameworks map[string]catalog.Framework,
	controls map[string]catalog.Control,
	mappings []catalog.ControlMapping,
	chains []assurance.ComplianceChain,
	evidence map[string]assurance.EvidenceRef,
	maxChains int,
) Graph {
	g := Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	seenFramework := make(map[string]bool)
	seenControl := make(map[string]int) // control ID -> node index

	addFramework := func(id string) {
		if id == "" || seenFramework[id] {
			return
		}
		seenFramework[id] = true
		label := id
		if fw, ok := frameworks[id]; ok {
			label = fw.Name
		}
		g.Nodes = append(g.Nodes, GraphNode{ID: id, Type: NodeTypeFramework, Label: label})
	}
	addControl := func(id, frameworkID string) {
		if id == "" {
			return
		}
		if _, ok := seenControl[id]; ok {
			return
		}
		label := id
		if c, ok := controls[id]; ok {
			label = c.Code
			if frameworkID == "" {
				frameworkID = c.FrameworkID
			}
		}
		seenControl[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, GraphNode{
			ID: id, Type: NodeTypeControl, Label: label, FrameworkID: frameworkID,
		})
		addFramework(frameworkID)
	}

	for _, m := range mappings {
		addFramework(m.SourceFrameworkID)
		addFramework(m.TargetFrameworkID)
		addControl(m.SourceControlID, m.SourceFrameworkID)
		addControl(m.TargetControlID, m.TargetFrameworkID)
		g.Edges = append(g.Edges, GraphEdge{
			Source: m.SourceControlID,
			Target: m.TargetControlID,
			Value:  m.Confidence.Weight(),
			Label:  string(m.Confidence),
		})
	}

	folded := 0
	for _, ch := range chains {
		if ch.ControlID == "" {
			continue
		}
		addControl(ch.ControlID, "")
		if evidence == nil || !ch.HasEvidence() || folded >= maxChains {
			continue
		}
		folded++
		idx := seenControl[ch.ControlID]
		for _, evID := range ch.EvidenceIDs {
			if ref, ok := evidence[evID]; ok {
				g.Nodes[idx].Evidence = append(g.Nodes[idx].Evidence, ref.Filename)
			}
		}
	}

	g.Metadata = GraphMetadata{
		FrameworkCount: len(seenFramework),
		ControlCount:   len(seenControl),
		MappingCount:   len(mappings),
		ChainCount:     len(chains),
	}
	return g
}
