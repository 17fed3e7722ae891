// Package reachability implements the Reachability Marker (spec §4.5): it
// walks index files (manifests, artifact indexes, scratch parent links)
// and returns the union of content paths they reference, so the GC Driver
// can diff that set against what is actually on disk.
package reachability

// ProcessFunc inspects a single index file and returns the content paths
// it references, or (nil, false) if the file could not be read or was
// skipped. A readable file that references nothing returns an empty or
// nil slice with true; Mark records every file that returned true as
// active.
type ProcessFunc func(indexFile string) (paths []string, active bool)

// Mark applies fn to every file in files and returns the union of marked
// paths plus the set of files fn reported as active (non-skipped). The
// caller controls ordering across calls to Mark: packages must be marked
// before artifacts and scratch, since artifact and scratch marking
// consult the pending package-deletion set (spec §4.5).
func Mark(files []string, fn ProcessFunc) (marked map[string]struct{}, active map[string]struct{}) {
	marked = map[string]struct{}{}
	active = map[string]struct{}{}
	for _, f := range files {
		paths, ok := fn(f)
		if !ok {
			continue
		}
		active[f] = struct{}{}
		for _, p := range paths {
			marked[p] = struct{}{}
		}
	}
	return marked, active
}
