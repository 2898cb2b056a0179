package locator

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/qalab/qametrics/internal/testutil"
	"github.com/qalab/qametrics/pkg/models"
)

func staticIndex(classes ...Class) ClassIndex {
	return func() ([]Class, error) { return classes, nil }
}

func TestLocate_ExactFilePath(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "Service.java")
	testutil.WriteFile(t, testFile, "class Service {}")

	result, err := Locate(testFile, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Type != TargetFile {
		t.Errorf("expected type %q, got %q", TargetFile, result.Type)
	}
	if result.Path != testFile {
		t.Errorf("expected path %q, got %q", testFile, result.Path)
	}
}

func TestLocate_ExactFilePath_NotFound(t *testing.T) {
	result, err := Locate("/nonexistent/path/File.java", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
}

func TestLocate_DirectoryIsNotAFile(t *testing.T) {
	tmpDir := t.TempDir()
	_, err := Locate(tmpDir, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocate_GlobPattern_SingleMatch(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "services", "User.java")
	testutil.WriteFile(t, testFile, "class User {}")

	result, err := Locate("**/User.java", nil, WithBaseDir(tmpDir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Type != TargetFile {
		t.Errorf("expected type %q, got %q", TargetFile, result.Type)
	}
	if result.Path != testFile {
		t.Errorf("expected path %q, got %q", testFile, result.Path)
	}
}

func TestLocate_GlobPattern_MultipleMatches(t *testing.T) {
	tmpDir := t.TempDir()
	file1 := filepath.Join(tmpDir, "pkg", "a", "Service.java")
	file2 := filepath.Join(tmpDir, "pkg", "b", "Service.java")
	testutil.WriteFile(t, file1, "class Service {}")
	testutil.WriteFile(t, file2, "class Service {}")

	result, err := Locate("**/Service.java", nil, WithBaseDir(tmpDir))
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(result.Candidates))
	}
	if result.Candidates[0].Path != file1 {
		t.Errorf("candidates not sorted: %+v", result.Candidates)
	}
}

func TestLocate_GlobPattern_NoMatch(t *testing.T) {
	_, err := Locate("**/Missing.java", nil, WithBaseDir(t.TempDir()))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocate_Basename_SingleMatch(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "services", "UniqueFile.java")
	testutil.WriteFile(t, testFile, "class UniqueFile {}")

	result, err := Locate("UniqueFile.java", nil, WithBaseDir(tmpDir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Path != testFile {
		t.Errorf("expected path %q, got %q", testFile, result.Path)
	}
}

func TestLocate_Basename_MultipleMatches(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(tmpDir, "a", "Handler.java"), "class Handler {}")
	testutil.WriteFile(t, filepath.Join(tmpDir, "b", "Handler.java"), "class Handler {}")

	result, err := Locate("Handler.java", nil, WithBaseDir(tmpDir))
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(result.Candidates))
	}
}

func TestLocate_Class_QualifiedName(t *testing.T) {
	index := staticIndex(
		Class{Name: "shop.Cart", Path: "src/shop/Cart.java"},
		Class{Name: "shop.legacy.Cart", Path: "src/shop/legacy/Cart.java"},
	)

	// "shop.Cart" looks like a file name with a .Cart extension; the
	// basename miss must fall through to the class search.
	result, err := Locate("shop.Cart", index, WithBaseDir(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Type != TargetClass {
		t.Errorf("expected type %q, got %q", TargetClass, result.Type)
	}
	if result.Path != "src/shop/Cart.java" || result.Class != "shop.Cart" {
		t.Errorf("got %+v", result)
	}
}

func TestLocate_Class_SimpleName(t *testing.T) {
	index := staticIndex(
		Class{Name: "shop.Cart", Path: "src/shop/Cart.java"},
		Class{Name: "shop.Item", Path: "src/shop/Item.java"},
	)

	result, err := Locate("Item", index)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Path != "src/shop/Item.java" {
		t.Errorf("expected Item.java, got %q", result.Path)
	}
}

func TestLocate_Class_Ambiguous(t *testing.T) {
	index := staticIndex(
		Class{Name: "shop.Cart", Path: "src/shop/Cart.java"},
		Class{Name: "shop.legacy.Cart", Path: "src/shop/legacy/Cart.java"},
	)

	result, err := Locate("Cart", index)
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
	if len(result.Candidates) != 2 || result.Candidates[1].Class != "shop.legacy.Cart" {
		t.Errorf("unexpected candidates %+v", result.Candidates)
	}
}

func TestLocate_Class_NotFound(t *testing.T) {
	_, err := Locate("Missing", staticIndex(Class{Name: "shop.Cart", Path: "Cart.java"}))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocate_IndexError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Locate("Cart", func() ([]Class, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestLocate_IndexNotCalledForFiles(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "Main.java")
	testutil.WriteFile(t, testFile, "class Main {}")

	called := false
	index := func() ([]Class, error) {
		called = true
		return nil, nil
	}
	if _, err := Locate(testFile, index); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("class index should not be built when the focus is a file")
	}
}

func TestClassesOf(t *testing.T) {
	files := []*models.SourceFile{
		{Path: "a/Outer.java", Classes: []models.ParsedClass{
			{Name: "Outer", Package: "a"},
			{Name: "Inner", Package: "a.Outer"},
		}},
		{Path: "Top.java", Classes: []models.ParsedClass{{Name: "Top"}}},
	}

	classes := ClassesOf(files)
	want := []Class{
		{Name: "a.Outer", Path: "a/Outer.java"},
		{Name: "a.Outer.Inner", Path: "a/Outer.java"},
		{Name: "Top", Path: "Top.java"},
	}
	if len(classes) != len(want) {
		t.Fatalf("got %d classes, want %d", len(classes), len(want))
	}
	for i := range want {
		if classes[i] != want[i] {
			t.Errorf("classes[%d] = %+v, want %+v", i, classes[i], want[i])
		}
	}
}
