package usage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC().Round(time.Second)
	records := map[string]Record{
		"packages/Foo/abc": {Time: now},
		"scratchspaces/u/n": {
			Time:           now.Add(-time.Hour),
			ParentProjects: map[string]struct{}{"/home/user/proj1": {}, "/home/user/proj2": {}},
		},
	}

	data, err := Encode(records)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for k, want := range records {
		g, ok := got[k]
		if !ok {
			t.Fatalf("missing key %q after round trip", k)
		}
		if !g.Time.Equal(want.Time) {
			t.Errorf("%q: time = %v, want %v", k, g.Time, want.Time)
		}
		if len(g.ParentProjects) != len(want.ParentProjects) {
			t.Errorf("%q: parent_projects = %v, want %v", k, g.ParentProjects, want.ParentProjects)
		}
	}
}

func TestDecodeMergesMaxTimestamp(t *testing.T) {
	t.Parallel()
	// A hand-edited or concatenated ledger can have more than one row per
	// key; Decode must keep the maximum timestamp across all of them.
	table := tomlTable{
		"packages/Foo/abc": {
			{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	buf, err := encodeRaw(table)
	if err != nil {
		t.Fatalf("encodeRaw() error = %v", err)
	}

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got["packages/Foo/abc"].Time.Equal(want) {
		t.Errorf("expected max timestamp %v, got %v", want, got["packages/Foo/abc"].Time)
	}
}

func TestFilterExistingDropsMissingFiles(t *testing.T) {
	t.Parallel()
	records := map[string]Record{
		"a": {Time: time.Now()},
		"b": {Time: time.Now()},
	}
	exists := map[string]bool{"a": true}

	got := FilterExisting(records, Manifest, func(f string) bool { return exists[f] })
	if len(got) != 1 {
		t.Fatalf("expected 1 surviving record, got %d", len(got))
	}
	if _, ok := got["a"]; !ok {
		t.Error("expected 'a' to survive the filter")
	}
}

func TestFilterExistingDropsScratchWithNoLiveParents(t *testing.T) {
	t.Parallel()
	records := map[string]Record{
		"scratchspaces/u/n": {
			Time:           time.Now(),
			ParentProjects: map[string]struct{}{"/gone": {}},
		},
	}
	got := FilterExisting(records, Scratch, func(p string) bool { return p == "scratchspaces/u/n" })
	if len(got) != 0 {
		t.Fatalf("expected scratch entry with no live parents to be dropped, got %v", got)
	}
}

func TestMergeAcrossDepotsUnionsMaxAndParents(t *testing.T) {
	t.Parallel()
	d1 := map[string]Record{"scratchspaces/u/n": {Time: time.Unix(100, 0), ParentProjects: map[string]struct{}{"/p1": {}}}}
	d2 := map[string]Record{"scratchspaces/u/n": {Time: time.Unix(200, 0), ParentProjects: map[string]struct{}{"/p2": {}}}}

	merged := MergeAcrossDepots([]map[string]Record{d1, d2})
	rec := merged["scratchspaces/u/n"]
	if !rec.Time.Equal(time.Unix(200, 0)) {
		t.Errorf("expected max timestamp, got %v", rec.Time)
	}
	if len(rec.ParentProjects) != 2 {
		t.Errorf("expected union of parent projects, got %v", rec.ParentProjects)
	}
}

func TestReadFileMissingReturnsEmpty(t *testing.T) {
	t.Parallel()
	got, err := ReadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty map for missing file, got %v", got)
	}
}

func TestWriteThenReadFileRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "manifest_usage.toml")
	records := map[string]Record{"packages/Foo/abc": {Time: time.Now().UTC().Round(time.Second)}}

	if err := WriteFile(path, records); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !got["packages/Foo/abc"].Time.Equal(records["packages/Foo/abc"].Time) {
		t.Errorf("round trip mismatch: %v", got)
	}
}
