// Package orphanage implements the per-depot grace-period bookkeeping for
// unreachable content (spec §4.6): a path only becomes deletable after
// remaining continuously unreachable for a configured collect delay.
package orphanage

import (
	"bytes"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jra3/pkgctl/internal/atomicfile"
	"github.com/jra3/pkgctl/internal/pkgerr"
)

// Merge computes the next orphanage state from this run's unreachable
// candidates and the previous run's state. For each candidate, its
// free_time is carried over from old if present, otherwise set to now.
// Candidates continuously unreachable for at least collectDelay are
// appended to deletable. A path that is no longer a candidate (it became
// reachable again, or disappeared) is simply absent from new.
func Merge(candidates []string, old map[string]time.Time, now time.Time, collectDelay time.Duration) (next map[string]time.Time, deletable []string) {
	next = make(map[string]time.Time, len(candidates))
	for _, path := range candidates {
		freeTime, ok := old[path]
		if !ok {
			freeTime = now
		}
		next[path] = freeTime
		if now.Sub(freeTime) >= collectDelay {
			deletable = append(deletable, path)
		}
	}
	return next, deletable
}

// tomlTable is the on-disk shape of the orphanage state: a flat mapping
// of path to free_time, the only form TOML allows at a document's root
// (spec §4.6 — unlike the usage ledger, there's no per-key list wrapper
// since an orphan only ever has a single free_time).
type tomlTable map[string]time.Time

// LoadOrphaned reads a depot's orphaned.toml, returning an empty map (not
// an error) if the file is absent. A parse failure is returned to the
// caller, who treats it as if the file were absent (spec §7).
func LoadOrphaned(path string) (map[string]time.Time, error) {
	data, present, err := atomicfile.ReadOrEmpty(path)
	if err != nil {
		return nil, pkgerr.Wrap(pkgerr.IOFailure, err, "reading %s", path)
	}
	if !present {
		return map[string]time.Time{}, nil
	}
	var table tomlTable
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, pkgerr.Wrap(pkgerr.ParseFailure, err, "parsing %s", path)
	}
	return map[string]time.Time(table), nil
}

// SaveOrphaned atomically writes the orphanage state, even when empty, so
// a stale orphaned.toml from a prior run is truncated rather than left in
// place (spec §4.6, §6).
func SaveOrphaned(path string, state map[string]time.Time) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tomlTable(state)); err != nil {
		return pkgerr.Wrap(pkgerr.IOFailure, err, "encoding %s", path)
	}
	if err := atomicfile.Write(path, buf.Bytes()); err != nil {
		return pkgerr.Wrap(pkgerr.IOFailure, err, "writing %s", path)
	}
	return nil
}
