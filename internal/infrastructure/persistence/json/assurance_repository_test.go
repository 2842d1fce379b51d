package json

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/complymap/complymap-cli/internal/domain/assurance"
	sharedErrors "github.com/complymap/complymap-cli/internal/shared/errors"
)

func seedOrganization(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "organizations", "org-1", "chains.json"), `[
		{"id": "ch-1", "requirement": "Access reviews", "control_id": "c-1",
		 "evidence_ids": ["ev-1"], "status": "COMPLETE"},
		{"id": "ch-2", "requirement": "Asset register", "control_id": "c-2",
		 "status": "MISSING"},
		{"id": "ch-3", "requirement": "Policy only", "policy_id": "p-1",
		 "status": "PARTIAL"}
	]`)
	writeFile(t, filepath.Join(dir, "organizations", "org-1", "evidence.json"), `[
		{"id": "ev-1", "filename": "access-review.pdf"},
		{"id": "ev-2", "filename": "register.xlsx"}
	]`)
	writeFile(t, filepath.Join(dir, "organizations", "org-1", "assessments.json"), `[
		{"id": "a-1", "control_id": "c-2", "negative": true}
	]`)
}

func newAssuranceFixture(t *testing.T) *AssuranceRepository {
	t.Helper()
	dir := seedCatalog(t)
	seedOrganization(t, dir)
	catalogRepo, err := NewCatalogRepository(dir)
	if err != nil {
		t.Fatal(err)
	}
	repo, err := NewAssuranceRepository(dir, catalogRepo)
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestAssuranceRepository_FindByOrganization(t *testing.T) {
	repo := newAssuranceFixture(t)

	chains, err := repo.FindByOrganization(context.Background(), "org-1", assurance.ChainFilter{})
	if err != nil {
		t.Fatalf("FindByOrganization failed: %v", err)
	}
	if len(chains) != 3 {
		t.Fatalf("expected 3 chains, got %d", len(chains))
	}
	if chains[0].OrganizationID != "org-1" || chains[0].Status != assurance.ChainComplete {
		t.Errorf("unexpected first chain: %+v", chains[0])
	}
	if !chains[0].HasEvidence() || chains[1].HasEvidence() {
		t.Error("evidence IDs lost in mapping")
	}
}

func TestAssuranceRepository_FilterByControl(t *testing.T) {
	repo := newAssuranceFixture(t)

	chains, err := repo.FindByOrganization(context.Background(), "org-1", assurance.ChainFilter{ControlID: "c-2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(chains) != 1 || chains[0].ID != "ch-2" {
		t.Fatalf("control filter failed: %+v", chains)
	}
}

func TestAssuranceRepository_FilterByStatus(t *testing.T) {
	repo := newAssuranceFixture(t)

	chains, err := repo.FindByOrganization(context.Background(), "org-1", assurance.ChainFilter{Status: assurance.ChainPartial})
	if err != nil {
		t.Fatal(err)
	}
	if len(chains) != 1 || chains[0].ID != "ch-3" {
		t.Fatalf("status filter failed: %+v", chains)
	}
}

func TestAssuranceRepository_FilterByFramework(t *testing.T) {
	repo := newAssuranceFixture(t)

	// fw-iso owns c-1 and c-2; ch-3 has no control and must drop out too.
	chains, err := repo.FindByOrganization(context.Background(), "org-1", assurance.ChainFilter{FrameworkID: "fw-iso"})
	if err != nil {
		t.Fatal(err)
	}
	if len(chains) != 2 {
		t.Fatalf("expected 2 chains in fw-iso, got %d", len(chains))
	}

	chains, err = repo.FindByOrganization(context.Background(), "org-1", assurance.ChainFilter{FrameworkID: "fw-nis"})
	if err != nil {
		t.Fatal(err)
	}
	if len(chains) != 0 {
		t.Fatalf("expected no chains in fw-nis, got %d", len(chains))
	}
}

func TestAssuranceRepository_UnknownOrganizationIsEmpty(t *testing.T) {
	repo := newAssuranceFixture(t)

	chains, err := repo.FindByOrganization(context.Background(), "org-ghost", assurance.ChainFilter{})
	if err != nil {
		t.Fatalf("unknown organization should read as empty: %v", err)
	}
	if len(chains) != 0 {
		t.Fatalf("expected no chains, got %d", len(chains))
	}
}

func TestAssuranceRepository_FindByIDsSkipsUnknown(t *testing.T) {
	repo := newAssuranceFixture(t)

	refs, err := repo.FindByIDs(context.Background(), []string{"ev-1", "ghost"}, "org-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Filename != "access-review.pdf" {
		t.Fatalf("unexpected evidence refs: %+v", refs)
	}
}

func TestAssuranceRepository_FindByControl(t *testing.T) {
	repo := newAssuranceFixture(t)

	a, err := repo.FindByControl(context.Background(), "org-1", "c-2")
	if err != nil {
		t.Fatal(err)
	}
	if a == nil || !a.Negative {
		t.Fatalf("expected negative assessment for c-2, got %+v", a)
	}

	none, err := repo.FindByControl(context.Background(), "org-1", "c-1")
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Fatalf("expected nil assessment for c-1, got %+v", none)
	}
}

func TestAssuranceRepository_RejectsOrganizationTraversal(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	writeFile(t, filepath.Join(dataDir, "frameworks.json"), `[]`)
	writeFile(t, filepath.Join(root, "secret", "chains.json"), `[
		{"id": "leak-1", "requirement": "Leaked", "control_id": "c-x", "status": "COMPLETE"}
	]`)
	repo, err := NewAssuranceRepository(dataDir, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	chains, err := repo.FindByOrganization(ctx, "../../secret", assurance.ChainFilter{})
	if !errors.Is(err, sharedErrors.ErrValidation) {
		t.Fatalf("expected validation error for traversal, got %v", err)
	}
	if len(chains) != 0 {
		t.Fatalf("traversal must not read outside the data dir, got %d chains", len(chains))
	}

	if _, err := repo.FindByIDs(ctx, []string{"leak-1"}, "../../secret"); !errors.Is(err, sharedErrors.ErrValidation) {
		t.Fatalf("expected validation error from FindByIDs, got %v", err)
	}
	if _, err := repo.FindByControl(ctx, "../../secret", "c-x"); !errors.Is(err, sharedErrors.ErrValidation) {
		t.Fatalf("expected validation error from FindByControl, got %v", err)
	}
}
