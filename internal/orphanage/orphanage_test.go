package orphanage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestMergeFirstSeenUsesNow(t *testing.T) {
	t.Parallel()
	now := time.Now()
	next, deletable := Merge([]string{"packages/Foo/abc"}, nil, now, time.Hour)

	if !next["packages/Foo/abc"].Equal(now) {
		t.Errorf("expected free_time = now for newly-seen candidate, got %v", next["packages/Foo/abc"])
	}
	if len(deletable) != 0 {
		t.Errorf("expected nothing deletable immediately, got %v", deletable)
	}
}

func TestMergeCarriesOverFreeTime(t *testing.T) {
	t.Parallel()
	past := time.Now().Add(-2 * time.Hour)
	old := map[string]time.Time{"packages/Foo/abc": past}
	now := time.Now()

	next, deletable := Merge([]string{"packages/Foo/abc"}, old, now, time.Hour)

	if !next["packages/Foo/abc"].Equal(past) {
		t.Errorf("expected free_time carried over, got %v, want %v", next["packages/Foo/abc"], past)
	}
	if len(deletable) != 1 || deletable[0] != "packages/Foo/abc" {
		t.Errorf("expected packages/Foo/abc to be deletable, got %v", deletable)
	}
}

func TestMergeDropsPathNoLongerCandidate(t *testing.T) {
	t.Parallel()
	old := map[string]time.Time{
		"packages/Foo/abc": time.Now().Add(-2 * time.Hour),
		"packages/Bar/def": time.Now().Add(-2 * time.Hour),
	}
	// Bar/def became reachable again and is no longer a candidate.
	next, _ := Merge([]string{"packages/Foo/abc"}, old, time.Now(), time.Hour)

	if _, ok := next["packages/Bar/def"]; ok {
		t.Error("expected packages/Bar/def to be dropped once it became reachable again")
	}
	if _, ok := next["packages/Foo/abc"]; !ok {
		t.Error("expected packages/Foo/abc to remain in the new state")
	}
}

func TestMergeBelowDelayNotDeletable(t *testing.T) {
	t.Parallel()
	old := map[string]time.Time{"packages/Foo/abc": time.Now().Add(-30 * time.Minute)}
	_, deletable := Merge([]string{"packages/Foo/abc"}, old, time.Now(), time.Hour)
	if len(deletable) != 0 {
		t.Errorf("expected nothing deletable before collect delay elapses, got %v", deletable)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "orphaned.toml")
	state := map[string]time.Time{
		"packages/Foo/abc": time.Now().UTC().Round(time.Second),
		"artifacts/def456": time.Now().Add(-time.Hour).UTC().Round(time.Second),
	}

	if err := SaveOrphaned(path, state); err != nil {
		t.Fatalf("SaveOrphaned() error = %v", err)
	}
	got, err := LoadOrphaned(path)
	if err != nil {
		t.Fatalf("LoadOrphaned() error = %v", err)
	}
	if len(got) != len(state) {
		t.Fatalf("got %d entries, want %d", len(got), len(state))
	}
	for p, want := range state {
		if g, ok := got[p]; !ok || !g.Equal(want) {
			t.Errorf("%q: got %v, want %v", p, g, want)
		}
	}
}

func TestLoadMissingReturnsEmpty(t *testing.T) {
	t.Parallel()
	got, err := LoadOrphaned(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadOrphaned() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty map for missing file, got %v", got)
	}
}

func TestSaveEmptyTruncatesStaleFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "orphaned.toml")
	if err := SaveOrphaned(path, map[string]time.Time{"packages/Foo/abc": time.Now()}); err != nil {
		t.Fatalf("SaveOrphaned() error = %v", err)
	}
	if err := SaveOrphaned(path, map[string]time.Time{}); err != nil {
		t.Fatalf("SaveOrphaned() error = %v", err)
	}
	got, err := LoadOrphaned(path)
	if err != nil {
		t.Fatalf("LoadOrphaned() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected truncated empty state, got %v", got)
	}
}
