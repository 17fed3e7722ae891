// Package usage implements the Usage Ledger (spec §4.4, §6): per-depot,
// per-category (manifest/artifact/scratch) records of filename -> last
// use, stored as TOML tables of single-element lists of tables.
package usage

import (
	"bytes"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jra3/pkgctl/internal/atomicfile"
	"github.com/jra3/pkgctl/internal/pkgerr"
)

// Category distinguishes the three usage logs a depot tracks.
type Category int

const (
	Manifest Category = iota
	Artifact
	Scratch
)

func (c Category) filename() string {
	switch c {
	case Manifest:
		return "manifest_usage.toml"
	case Artifact:
		return "artifact_usage.toml"
	case Scratch:
		return "scratch_usage.toml"
	default:
		return "unknown_usage.toml"
	}
}

// LedgerPath returns the full path of this category's log file under the
// given depot logs/ directory.
func (c Category) LedgerPath(logsDir string) string {
	return filepath.Join(logsDir, c.filename())
}

// Record is one filename's last-use entry. ParentProjects is only
// populated for Scratch category entries.
type Record struct {
	Time           time.Time
	ParentProjects map[string]struct{}
}

// tomlRow is the on-disk shape of a single list element.
type tomlRow struct {
	Time           time.Time `toml:"time"`
	ParentProjects []string  `toml:"parent_projects,omitempty"`
}

type tomlTable map[string][]tomlRow

// Decode parses raw TOML bytes into a condensed filename -> Record map.
// Per spec §4.4, reading merges by taking the maximum timestamp per
// filename; any parent_projects across rows for a key are unioned.
func Decode(data []byte) (map[string]Record, error) {
	var table tomlTable
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, pkgerr.Wrap(pkgerr.ParseFailure, err, "decoding usage ledger")
	}
	out := make(map[string]Record, len(table))
	for filename, rows := range table {
		rec := Record{}
		for _, row := range rows {
			if row.Time.After(rec.Time) {
				rec.Time = row.Time
			}
			for _, p := range row.ParentProjects {
				if rec.ParentProjects == nil {
					rec.ParentProjects = map[string]struct{}{}
				}
				rec.ParentProjects[p] = struct{}{}
			}
		}
		out[filename] = rec
	}
	return out, nil
}

// Encode serialises a condensed filename -> Record map to TOML, one
// single-element list per filename. The BurntSushi/toml encoder writes
// map keys in sorted order, satisfying spec §6's "sorted by key on write".
func Encode(records map[string]Record) ([]byte, error) {
	table := make(tomlTable, len(records))
	for filename, rec := range records {
		row := tomlRow{Time: rec.Time}
		if len(rec.ParentProjects) > 0 {
			parents := make([]string, 0, len(rec.ParentProjects))
			for p := range rec.ParentProjects {
				parents = append(parents, p)
			}
			sort.Strings(parents)
			row.ParentProjects = parents
		}
		table[filename] = []tomlRow{row}
	}
	return encodeRaw(table)
}

// encodeRaw serialises a tomlTable directly, without the one-row-per-key
// condensing Encode performs. Factored out so Decode's merge-by-max-
// timestamp behavior can be exercised against a table with multiple rows
// per key, which a hand-edited or concatenated ledger file could contain.
func encodeRaw(table tomlTable) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(table); err != nil {
		return nil, pkgerr.Wrap(pkgerr.IOFailure, err, "encoding usage ledger")
	}
	return buf.Bytes(), nil
}

// MergeAcrossDepots computes the cross-depot union used to seed
// reachability marking (spec §4.4): for each filename, the maximum
// timestamp and the union of parent_projects across every depot's
// ledger.
func MergeAcrossDepots(perDepot []map[string]Record) map[string]Record {
	out := map[string]Record{}
	for _, ledger := range perDepot {
		for filename, rec := range ledger {
			existing, ok := out[filename]
			if !ok {
				merged := Record{Time: rec.Time}
				if len(rec.ParentProjects) > 0 {
					merged.ParentProjects = cloneSet(rec.ParentProjects)
				}
				out[filename] = merged
				continue
			}
			if rec.Time.After(existing.Time) {
				existing.Time = rec.Time
			}
			for p := range rec.ParentProjects {
				if existing.ParentProjects == nil {
					existing.ParentProjects = map[string]struct{}{}
				}
				existing.ParentProjects[p] = struct{}{}
			}
			out[filename] = existing
		}
	}
	return out
}

// FilterExisting drops entries whose filename does not satisfy exists,
// and for Scratch records additionally filters ParentProjects down to
// paths that still exist, dropping the record entirely if none remain
// (spec §4.7 step 3).
func FilterExisting(records map[string]Record, cat Category, exists func(string) bool) map[string]Record {
	out := map[string]Record{}
	for filename, rec := range records {
		if !exists(filename) {
			continue
		}
		if cat == Scratch {
			filtered := map[string]struct{}{}
			for p := range rec.ParentProjects {
				if exists(p) {
					filtered[p] = struct{}{}
				}
			}
			if len(filtered) == 0 {
				continue
			}
			rec.ParentProjects = filtered
		}
		out[filename] = rec
	}
	return out
}

// ReadFile reads the condensed ledger at path, returning an empty map
// (not an error) if the file does not exist. A ParseFailure on a present
// file is returned to the caller, who (in the GC driver) treats it as if
// the file were absent rather than aborting (spec §7).
func ReadFile(path string) (map[string]Record, error) {
	data, present, err := atomicfile.ReadOrEmpty(path)
	if err != nil {
		return nil, pkgerr.Wrap(pkgerr.IOFailure, err, "reading %s", path)
	}
	if !present {
		return map[string]Record{}, nil
	}
	return Decode(data)
}

// WriteFile atomically persists the condensed ledger to path.
func WriteFile(path string, records map[string]Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(path, data); err != nil {
		return pkgerr.Wrap(pkgerr.IOFailure, err, "writing %s", path)
	}
	return nil
}

func cloneSet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
