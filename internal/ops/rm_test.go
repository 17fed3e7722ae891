package ops

import (
	"context"
	"testing"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/runtime"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

func seededEnv(t *testing.T) *envcache.Cache {
	t.Helper()
	dir := t.TempDir()
	seed, err := envcache.Load(dir)
	if err != nil {
		t.Fatalf("envcache.Load() error = %v", err)
	}
	seed.Project.Deps = map[string]string{"Foo": fooUUID}
	seed.Manifest = manifest.Manifest{fooUUID: {Name: "Foo", Version: "1.0.0"}}
	if err := seed.Write(); err != nil {
		t.Fatalf("seeding environment: Write() error = %v", err)
	}

	env, err := envcache.Load(dir)
	if err != nil {
		t.Fatalf("reloading envcache.Load() error = %v", err)
	}
	return env
}

func TestRmProjectModeRemovesDependency(t *testing.T) {
	t.Parallel()
	env := seededEnv(t)
	d := &Dispatcher{RT: runtime.New(nil)}

	err := d.Rm(context.Background(), env, []specvalidate.Spec{{Name: "Foo"}}, RmOptions{Mode: specvalidate.ModeProject})
	if err != nil {
		t.Fatalf("Rm() error = %v", err)
	}
	if _, ok := env.Project.Deps["Foo"]; ok {
		t.Error("expected Foo removed from project deps")
	}
	if d.RT.Undo.Len(env.ProjectFilePath) != 1 {
		t.Errorf("expected one undo snapshot, got %d", d.RT.Undo.Len(env.ProjectFilePath))
	}
}

func TestRmUnknownPackageFails(t *testing.T) {
	t.Parallel()
	env := seededEnv(t)
	d := &Dispatcher{RT: runtime.New(nil)}

	err := d.Rm(context.Background(), env, []specvalidate.Spec{{Name: "Bar"}}, RmOptions{Mode: specvalidate.ModeProject})
	if err == nil {
		t.Fatal("expected Rm of an unknown package to fail")
	}
}

func TestPinMarksManifestEntry(t *testing.T) {
	t.Parallel()
	env := seededEnv(t)
	d := &Dispatcher{RT: runtime.New(nil)}

	err := d.Pin(context.Background(), env, []specvalidate.Spec{{Name: "Foo"}})
	if err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	if !env.Manifest[fooUUID].Pinned {
		t.Error("expected Foo's manifest entry to be pinned")
	}
}

func TestFreeClearsPin(t *testing.T) {
	t.Parallel()
	env := seededEnv(t)
	d := &Dispatcher{RT: runtime.New(nil)}

	if err := d.Pin(context.Background(), env, []specvalidate.Spec{{Name: "Foo"}}); err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	if err := d.Free(context.Background(), env, []specvalidate.Spec{{Name: "Foo"}}, FreeOptions{}); err != nil {
		t.Fatalf("Free() error = %v", err)
	}
	if env.Manifest[fooUUID].Pinned {
		t.Error("expected Foo's manifest entry to be unpinned after Free")
	}
}
