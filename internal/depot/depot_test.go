package depot

import "testing"

func TestPackagePathLayout(t *testing.T) {
	t.Parallel()
	r := Root("/srv/depot")
	got := r.PackagePath("Foo", "abc123")
	want := "/srv/depot/packages/Foo/abc123"
	if got != want {
		t.Errorf("PackagePath() = %q, want %q", got, want)
	}
}

func TestCacheKeyStableAndFilesystemSafe(t *testing.T) {
	t.Parallel()
	a := CacheKey("https://github.com/example/repo.git")
	b := CacheKey("https://github.com/example/repo.git")
	c := CacheKey("https://github.com/example/other.git")

	if a != b {
		t.Error("CacheKey must be deterministic for the same source")
	}
	if a == c {
		t.Error("CacheKey must differ for different sources")
	}
	if len(a) != 40 {
		t.Errorf("expected a 40-char hex sha1 digest, got %d chars", len(a))
	}
}

func TestLogPaths(t *testing.T) {
	t.Parallel()
	r := Root("/srv/depot")
	if got := r.OrphanedLog(); got != "/srv/depot/logs/orphaned.toml" {
		t.Errorf("OrphanedLog() = %q", got)
	}
}
