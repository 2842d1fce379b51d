package catalog

// Framework represents one regulatory or standards catalog (e.g. ISO 27001,
// NIS2). Frameworks are immutable reference data seeded administratively;
// the engine only reads them.
type Framework struct {
	ID       string // Unique identifier (e.g., "iso27001", "nis2")
	Name     string // Display name (e.g., "ISO/IEC 27001:2022")
	Code     string // Short code used in listings (e.g., "ISO-27001")
	Version  string // Catalog version or year
	Category string // e.g., "Information Security", "AI Governance"
	Active   bool   // Inactive frameworks are kept for historical analyses
}

// Control is one requirement or clause within a framework. Controls form a
// forest per framework: zero or more roots, arbitrary depth. A parent, when
// present, must belong to the same framework.
type Control struct {
	ID          string
	FrameworkID string
	Code        string // e.g., "A.5.1", "Art. 21(2)(a)"
	Title       string
	ParentID    string // empty for root controls
	SortOrder   int    // sibling ordering within the parent
}

// IsRoot reports whether the control has no parent reference.
func (c Control) IsRoot() bool {
	return c.ParentID == ""
}
