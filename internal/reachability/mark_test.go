package reachability

import "testing"

func TestMarkUnionsAndTracksActive(t *testing.T) {
	t.Parallel()
	fn := func(f string) ([]string, bool) {
		switch f {
		case "a":
			return []string{"p1", "p2"}, true
		case "b":
			return []string{"p2", "p3"}, true
		case "c":
			return nil, false
		default:
			return nil, true
		}
	}

	marked, active := Mark([]string{"a", "b", "c"}, fn)

	wantMarked := []string{"p1", "p2", "p3"}
	for _, p := range wantMarked {
		if _, ok := marked[p]; !ok {
			t.Errorf("expected %q to be marked, got %v", p, marked)
		}
	}
	if len(marked) != len(wantMarked) {
		t.Errorf("marked = %v, want exactly %v", marked, wantMarked)
	}

	if _, ok := active["a"]; !ok {
		t.Error("expected 'a' to be active")
	}
	if _, ok := active["b"]; !ok {
		t.Error("expected 'b' to be active")
	}
	if _, ok := active["c"]; ok {
		t.Error("expected 'c' (skipped) to not be active")
	}
}

func TestMarkEmptyInput(t *testing.T) {
	t.Parallel()
	marked, active := Mark(nil, func(string) ([]string, bool) { return nil, true })
	if len(marked) != 0 || len(active) != 0 {
		t.Errorf("expected empty results for empty input, got marked=%v active=%v", marked, active)
	}
}
