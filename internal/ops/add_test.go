package ops

import (
	"context"
	"testing"

	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/runtime"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

const fooUUID = "11111111-1111-1111-1111-111111111111"

type fakeResolver struct {
	resolve    manifest.Manifest
	resolveErr error
}

func (f *fakeResolver) Resolve(ctx context.Context, specs []specvalidate.Spec, preserve string) (manifest.Manifest, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.resolve, nil
}

func (f *fakeResolver) Upgrade(ctx context.Context, current manifest.Manifest, specs []specvalidate.Spec, level string) (manifest.Manifest, error) {
	return manifest.Manifest{}, nil
}

type fakeDownloader struct {
	sourceCalls   []string
	artifactCalls []string
}

func (f *fakeDownloader) DownloadSource(ctx context.Context, uuid string, entry manifest.Entry) (string, error) {
	f.sourceCalls = append(f.sourceCalls, uuid)
	return "/depot/packages/" + entry.Name, nil
}

func (f *fakeDownloader) DownloadArtifact(ctx context.Context, uuid string, entry manifest.Entry, platform string) (string, error) {
	f.artifactCalls = append(f.artifactCalls, uuid)
	return "/depot/artifacts/" + entry.TreeHash, nil
}

func loadEmptyEnv(t *testing.T) *envcache.Cache {
	t.Helper()
	dir := t.TempDir()
	env, err := envcache.Load(dir)
	if err != nil {
		t.Fatalf("envcache.Load() error = %v", err)
	}
	return env
}

func TestAddResolvesAndDownloadsNewPackage(t *testing.T) {
	t.Parallel()
	env := loadEmptyEnv(t)

	resolver := &fakeResolver{resolve: manifest.Manifest{
		fooUUID: {Name: "Foo", Version: "1.0.0", TreeHash: "abc123"},
	}}
	downloader := &fakeDownloader{}

	d := &Dispatcher{RT: runtime.New(nil), Resolver: resolver, Downloader: downloader}

	err := d.Add(context.Background(), env, []specvalidate.Spec{{Name: "Foo"}}, AddOptions{})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if env.Project.Deps["Foo"] != fooUUID {
		t.Errorf("expected project.deps[Foo] = %s, got %s", fooUUID, env.Project.Deps["Foo"])
	}
	if _, ok := env.Manifest[fooUUID]; !ok {
		t.Error("expected manifest entry for Foo")
	}
	if len(downloader.sourceCalls) != 1 {
		t.Errorf("expected exactly one DownloadSource call, got %d", len(downloader.sourceCalls))
	}
	if d.RT.Undo.Len(env.ProjectFilePath) != 1 {
		t.Errorf("expected exactly one undo snapshot after a mutating add, got %d", d.RT.Undo.Len(env.ProjectFilePath))
	}
}

// TestAddUndoSkipWhenUnchanged implements spec §8 scenario 6: adding a
// package already present at the same version leaves the environment
// unchanged, so no new undo snapshot is recorded.
func TestAddUndoSkipWhenUnchanged(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	existing := manifest.Manifest{fooUUID: {Name: "Foo", Version: "1.0.0"}}
	env0, err := envcache.Load(dir)
	if err != nil {
		t.Fatalf("envcache.Load() error = %v", err)
	}
	env0.Project.Deps = map[string]string{"Foo": fooUUID}
	env0.Manifest = existing
	if err := env0.Write(); err != nil {
		t.Fatalf("seeding environment: Write() error = %v", err)
	}

	env, err := envcache.Load(dir)
	if err != nil {
		t.Fatalf("reloading envcache.Load() error = %v", err)
	}

	resolver := &fakeResolver{resolve: manifest.Manifest{
		fooUUID: {Name: "Foo", Version: "1.0.0"},
	}}
	d := &Dispatcher{RT: runtime.New(nil), Resolver: resolver}

	if err := d.Add(context.Background(), env, []specvalidate.Spec{{Name: "Foo"}}, AddOptions{}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if d.RT.Undo.Len(env.ProjectFilePath) != 0 {
		t.Errorf("expected no undo snapshot for a no-op add, got %d entries", d.RT.Undo.Len(env.ProjectFilePath))
	}
}

func TestAddRejectsReservedName(t *testing.T) {
	t.Parallel()
	env := loadEmptyEnv(t)
	d := &Dispatcher{RT: runtime.New(nil), Resolver: &fakeResolver{}}

	err := d.Add(context.Background(), env, []specvalidate.Spec{{Name: "julia"}}, AddOptions{})
	if err == nil {
		t.Fatal("expected Add to reject the reserved name julia")
	}
}

func TestAddRequiresResolver(t *testing.T) {
	t.Parallel()
	env := loadEmptyEnv(t)
	d := &Dispatcher{RT: runtime.New(nil)}

	err := d.Add(context.Background(), env, []specvalidate.Spec{{Name: "Foo"}}, AddOptions{})
	if err == nil {
		t.Fatal("expected Add without a configured resolver to fail")
	}
}
