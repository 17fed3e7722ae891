package gc

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jra3/pkgctl/internal/depot"
	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/orphanage"
	"github.com/jra3/pkgctl/internal/usage"
)

const testTreeHash = "abc123def456abc123def456abc123def456abc"

func setupDepotWithPackage(t *testing.T) depot.Root {
	t.Helper()
	root := depot.Root(filepath.Join(t.TempDir(), "depot"))
	pkgDir := root.PackagePath("Foo", testTreeHash)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkgDir, "src.jl"), []byte("module Foo end"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestGCGracePeriod(t *testing.T) {
	t.Parallel()
	root := setupDepotWithPackage(t)
	pkgDir := root.PackagePath("Foo", testTreeHash)

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := &Driver{
		Depots:       []depot.Root{root},
		CollectDelay: 7 * 24 * time.Hour,
		Now:          func() time.Time { return t0 },
	}

	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if _, err := os.Stat(pkgDir); err != nil {
		t.Fatalf("expected package to survive first GC, stat error = %v", err)
	}
	orphaned, err := orphanage.LoadOrphaned(root.OrphanedLog())
	if err != nil {
		t.Fatalf("LoadOrphaned() error = %v", err)
	}
	rel, _ := filepath.Rel(string(root), pkgDir)
	if freeTime, ok := orphaned[rel]; !ok || !freeTime.Equal(t0) {
		t.Fatalf("expected orphaned.toml to record %q at %v, got %v", rel, t0, orphaned)
	}

	d.Now = func() time.Time { return t0.Add(8 * 24 * time.Hour) }
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if _, err := os.Stat(pkgDir); !os.IsNotExist(err) {
		t.Fatalf("expected package to be deleted after grace period, stat error = %v", err)
	}
	orphaned, err = orphanage.LoadOrphaned(root.OrphanedLog())
	if err != nil {
		t.Fatalf("LoadOrphaned() error = %v", err)
	}
	if _, ok := orphaned[rel]; ok {
		t.Fatalf("expected %q to be removed from orphaned.toml after deletion, got %v", rel, orphaned)
	}
}

func TestGCReinstatement(t *testing.T) {
	t.Parallel()
	root := setupDepotWithPackage(t)
	pkgDir := root.PackagePath("Foo", testTreeHash)

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := &Driver{
		Depots:       []depot.Root{root},
		CollectDelay: 7 * 24 * time.Hour,
		Now:          func() time.Time { return t0 },
	}
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	// Before the second run, a manifest now references Foo's tree-hash,
	// and the depot's manifest usage ledger is updated to track it.
	envDir := t.TempDir()
	manPath := filepath.Join(envDir, "manifest.toml")
	man := manifest.Manifest{
		"11111111-1111-1111-1111-111111111111": manifest.Entry{Name: "Foo", TreeHash: testTreeHash},
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(man); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(manPath, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := usage.WriteFile(root.ManifestUsageLog(), map[string]usage.Record{
		manPath: {Time: t0},
	}); err != nil {
		t.Fatal(err)
	}

	d.Now = func() time.Time { return t0.Add(8 * 24 * time.Hour) }
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if _, err := os.Stat(pkgDir); err != nil {
		t.Fatalf("expected reinstated package to survive second GC, stat error = %v", err)
	}
	rel, _ := filepath.Rel(string(root), pkgDir)
	orphaned, err := orphanage.LoadOrphaned(root.OrphanedLog())
	if err != nil {
		t.Fatalf("LoadOrphaned() error = %v", err)
	}
	if _, ok := orphaned[rel]; ok {
		t.Fatalf("expected %q to be absent from orphaned.toml once reachable again, got %v", rel, orphaned)
	}
}

func TestGCZeroCollectDelayDeletesImmediately(t *testing.T) {
	t.Parallel()
	root := setupDepotWithPackage(t)
	d := &Driver{
		Depots:       []depot.Root{root},
		CollectDelay: 0,
		Now:          func() time.Time { return time.Now() },
	}
	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.DeletedPackages != 1 {
		t.Errorf("expected 1 deleted package with zero collect delay, got %d", result.DeletedPackages)
	}
}
