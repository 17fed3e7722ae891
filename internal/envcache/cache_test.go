package envcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

func TestLoadEmptyDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.Project.Deps) != 0 {
		t.Errorf("expected empty deps, got %v", c.Project.Deps)
	}
	if c.Changed() {
		t.Error("a freshly loaded cache must not report Changed()")
	}
}

func TestWriteThenLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	c.Project.Deps = map[string]string{"Foo": "11111111-1111-1111-1111-111111111111"}
	c.Manifest["11111111-1111-1111-1111-111111111111"] = manifest.Entry{
		Name:    "Foo",
		Version: "1.2.3",
	}

	if err := c.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if c.Changed() {
		t.Error("after Write(), original snapshot should match live state")
	}

	c2, err := Load(dir)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if !c2.Project.Equal(c.Project) {
		t.Errorf("project round-trip mismatch: got %+v, want %+v", c2.Project, c.Project)
	}
	if !c2.Manifest.Equal(c.Manifest) {
		t.Errorf("manifest round-trip mismatch: got %+v, want %+v", c2.Manifest, c.Manifest)
	}
}

func TestLoadRejectsNonClosedManifest(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	manPath := filepath.Join(dir, "manifest.toml")
	// A manifest entry whose deps reference a uuid absent from the manifest.
	data := []byte(`
["11111111-1111-1111-1111-111111111111"]
name = "Foo"

["11111111-1111-1111-1111-111111111111".deps]
Bar = "22222222-2222-2222-2222-222222222222"
`)
	if err := os.WriteFile(manPath, data, 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected Load() to reject a non-transitively-closed manifest")
	}
}

func TestResolveProjectDeps(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	c.Project.Deps = map[string]string{"Foo": "11111111-1111-1111-1111-111111111111"}

	resolved, err := c.ResolveProjectDeps([]specvalidate.Spec{{Name: "Foo"}})
	if err != nil {
		t.Fatalf("ResolveProjectDeps() error = %v", err)
	}
	if resolved[0].UUID != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("expected uuid to be filled in, got %q", resolved[0].UUID)
	}

	if _, err := c.ResolveProjectDeps([]specvalidate.Spec{{Name: "NotThere"}}); err == nil {
		t.Fatal("expected UnresolvedSpec error for unknown name")
	}
}

func TestEnsureResolved(t *testing.T) {
	t.Parallel()
	if err := EnsureResolved([]specvalidate.Spec{{Name: "Foo", UUID: "x"}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := EnsureResolved([]specvalidate.Spec{{Name: "Foo"}}); err == nil {
		t.Error("expected error for a spec missing its uuid")
	}
}
