package json

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/complymap/complymap-cli/internal/domain/catalog"
	sharedErrors "github.com/complymap/complymap-cli/internal/shared/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func seedCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "frameworks.json"), `[
		{"id": "fw-iso", "name": "ISO 27001", "code": "ISO27001", "version": "2022", "category": "security", "active": true},
		{"id": "fw-nis", "name": "NIS2", "code": "NIS2", "version": "2023", "category": "regulation", "active": false}
	]`)
	writeFile(t, filepath.Join(dir, "controls", "fw-iso.json"), `[
		{"id": "c-2", "framework_id": "fw-iso", "code": "A.2", "title": "Asset inventory", "sort_order": 2},
		{"id": "c-1", "framework_id": "fw-iso", "code": "A.1", "title": "Access control", "sort_order": 1},
		{"id": "c-3", "framework_id": "fw-iso", "code": "A.1.1", "title": "Password policy", "parent_id": "c-1", "sort_order": 3}
	]`)
	writeFile(t, filepath.Join(dir, "mappings.json"), `[
		{"id": "m-1", "source_control_id": "c-1", "source_framework_id": "fw-iso",
		 "target_control_id": "n-1", "target_framework_id": "fw-nis",
		 "confidence": "HIGH", "type": "EQUIVALENT"},
		{"id": "m-2", "source_control_id": "n-2", "source_framework_id": "fw-nis",
		 "target_control_id": "c-2", "target_framework_id": "fw-iso",
		 "confidence": "LOW", "type": "RELATED", "rationale": "overlapping scope"}
	]`)
	return dir
}

func TestCatalogRepository_FindAll(t *testing.T) {
	repo, err := NewCatalogRepository(seedCatalog(t))
	if err != nil {
		t.Fatal(err)
	}

	frameworks, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(frameworks) != 2 {
		t.Fatalf("expected 2 frameworks, got %d", len(frameworks))
	}
	if frameworks[0].Code != "ISO27001" || !frameworks[0].Active {
		t.Errorf("unexpected first framework: %+v", frameworks[0])
	}
}

func TestCatalogRepository_FindByID(t *testing.T) {
	repo, err := NewCatalogRepository(seedCatalog(t))
	if err != nil {
		t.Fatal(err)
	}

	fw, err := repo.FindByID(context.Background(), "fw-nis")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if fw.Name != "NIS2" {
		t.Errorf("unexpected framework: %+v", fw)
	}

	if _, err := repo.FindByID(context.Background(), "ghost"); !errors.Is(err, sharedErrors.ErrFrameworkNotFound) {
		t.Fatalf("expected ErrFrameworkNotFound, got %v", err)
	}
}

func TestCatalogRepository_FindByFrameworkSorted(t *testing.T) {
	repo, err := NewCatalogRepository(seedCatalog(t))
	if err != nil {
		t.Fatal(err)
	}

	controls, err := repo.FindByFramework(context.Background(), "fw-iso")
	if err != nil {
		t.Fatalf("FindByFramework failed: %v", err)
	}
	if len(controls) != 3 {
		t.Fatalf("expected 3 controls, got %d", len(controls))
	}
	if controls[0].Code != "A.1" || controls[1].Code != "A.2" {
		t.Errorf("controls not sorted by sort order: %+v", controls)
	}
	if controls[2].ParentID != "c-1" {
		t.Errorf("parent ID lost in mapping: %+v", controls[2])
	}
}

func TestCatalogRepository_MissingControlsFileIsEmpty(t *testing.T) {
	repo, err := NewCatalogRepository(seedCatalog(t))
	if err != nil {
		t.Fatal(err)
	}

	controls, err := repo.FindByFramework(context.Background(), "fw-unknown")
	if err != nil {
		t.Fatalf("missing controls file should not error: %v", err)
	}
	if len(controls) != 0 {
		t.Fatalf("expected empty catalog, got %d controls", len(controls))
	}
}

func TestCatalogRepository_FindMappingsFiltered(t *testing.T) {
	repo, err := NewCatalogRepository(seedCatalog(t))
	if err != nil {
		t.Fatal(err)
	}

	all, err := repo.Find(context.Background(), catalog.MappingFilter{})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 mappings, got %d", len(all))
	}
	if all[0].Confidence != catalog.ConfidenceHigh || all[0].Type != catalog.MappingEquivalent {
		t.Errorf("unexpected mapping: %+v", all[0])
	}

	fromNis, err := repo.Find(context.Background(), catalog.MappingFilter{SourceFrameworkID: "fw-nis"})
	if err != nil {
		t.Fatal(err)
	}
	if len(fromNis) != 1 || fromNis[0].ID != "m-2" {
		t.Errorf("source filter failed: %+v", fromNis)
	}
}

func TestCatalogRepository_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "frameworks.json"), `{not json`)
	repo, err := NewCatalogRepository(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.FindAll(context.Background()); !errors.Is(err, sharedErrors.ErrDeserializationFailed) {
		t.Fatalf("expected ErrDeserializationFailed, got %v", err)
	}
}

func TestCatalogRepository_MissingFrameworksFile(t *testing.T) {
	repo, err := NewCatalogRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.FindAll(context.Background()); !errors.Is(err, sharedErrors.ErrRepositoryOperation) {
		t.Fatalf("expected ErrRepositoryOperation, got %v", err)
	}
}

func TestNewCatalogRepository_EmptyDir(t *testing.T) {
	if _, err := NewCatalogRepository(""); err == nil {
		t.Fatal("expected error for empty data directory")
	}
}

func TestCatalogRepository_FindByFramework_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	writeFile(t, filepath.Join(dataDir, "frameworks.json"), `[]`)
	writeFile(t, filepath.Join(root, "outside.json"), `[
		{"id": "leak-1", "framework_id": "fw-x", "code": "X.1", "title": "Leaked"}
	]`)
	repo, err := NewCatalogRepository(dataDir)
	if err != nil {
		t.Fatal(err)
	}

	_, err = repo.FindByFramework(context.Background(), "../../outside")
	if !errors.Is(err, sharedErrors.ErrValidation) {
		t.Fatalf("expected validation error for traversal, got %v", err)
	}
}
