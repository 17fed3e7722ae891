// Package gc implements the GC Driver (spec §4.7): a single-pass sweep
// over one or more depots that condenses usage ledgers, marks reachable
// content via internal/reachability, ages unreachable content through
// internal/orphanage, and deletes what has aged past the collect delay.
package gc

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/jra3/pkgctl/internal/depot"
	"github.com/jra3/pkgctl/internal/orphanage"
	"github.com/jra3/pkgctl/internal/reachability"
	"github.com/jra3/pkgctl/internal/usage"
)

// Driver runs a GC sweep across a fixed set of depots.
type Driver struct {
	Depots       []depot.Root
	CollectDelay time.Duration
	Verbose      bool

	// Pace throttles deletions; nil means unlimited.
	Pace *rate.Limiter

	// Now, if set, replaces time.Now for the sweep's clock reading. Tests
	// use this to advance past the collect delay without sleeping.
	Now func() time.Time
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Result summarises one sweep.
type Result struct {
	DeletedPackages  int
	DeletedArtifacts int
	DeletedClones    int
	DeletedScratch   int
	FreedBytes       int64
	DeleteErrors     int
}

// Run executes the ten-step sweep (spec §4.7). It never aborts on a
// per-file parse or delete failure; those are logged and counted.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	now := d.now()
	result := &Result{}

	// Step 1-3: condense usage ledgers across depots, filtering to paths
	// that still exist, and rewrite each depot's condensed ledger.
	manifestLedgers, artifactLedgers, scratchLedgers := d.loadAndCondenseLedgers()

	// Step 4: mark packages-to-keep by reading every environment manifest
	// recorded in the manifest usage ledger (its keys are manifest.toml
	// paths of every environment that has used this depot).
	manifestFiles := ledgerKeys(manifestLedgers)
	packagesToKeep, _ := reachability.Mark(manifestFiles, reachability.PackageMarkFunc())
	clonesToKeep, _ := reachability.Mark(manifestFiles, reachability.RepoMarkFunc())

	// Step 5: enumerate packages/*/* across depots; anything not kept is
	// a candidate. Run through Orphanage with an empty "old" to compute a
	// preliminary packages_to_delete, used only to feed artifact/scratch
	// marking (spec §9 resolution: keep prelim and final lists distinct).
	packageCandidates := d.enumerate(func(r depot.Root) string { return r.Packages() }, packagesToKeep, 2)
	prelimSet := map[string]struct{}{}
	for _, perDepot := range packageCandidates {
		_, delPrelim := orphanage.Merge(perDepot, nil, now, d.CollectDelay)
		for _, p := range delPrelim {
			prelimSet[p] = struct{}{}
		}
	}

	// Step 6: mark artifacts-to-keep, clones-to-keep (already done above),
	// scratch-to-keep, now that the preliminary deletion set exists. The
	// artifact usage ledger's keys are the Artifacts.toml index paths.
	artifactIndexFiles := ledgerKeys(artifactLedgers)
	artifactsToKeep, _ := reachability.Mark(artifactIndexFiles, reachability.ArtifactMarkFunc(prelimSet))

	scratchDirs := d.enumerateScratch()
	parentsOf := scratchParentLookup(scratchLedgers, d.Depots)
	scratchToKeep, _ := reachability.Mark(flatten(scratchDirs), reachability.ScratchMarkFunc(parentsOf, prelimSet))

	// Step 7: enumerate orphan candidates for artifacts, clones, scratch.
	artifactCandidates := d.enumerate(func(r depot.Root) string { return r.Artifacts() }, artifactsToKeep, 1)
	cloneCandidates := d.enumerate(func(r depot.Root) string { return r.Clones() }, clonesToKeep, 1)
	scratchCandidates := filterOutKeptPerDepot(scratchDirs, scratchToKeep)

	// Step 8: per depot, load old orphanage state, merge, write back.
	finalDeletions := d.ageAndPersist(now, packageCandidates, artifactCandidates, cloneCandidates, scratchCandidates)

	// Step 9: delete every path in the final deletion lists.
	d.deletePaths(ctx, finalDeletions.packages, &result.DeletedPackages, &result.FreedBytes, &result.DeleteErrors)
	d.deletePaths(ctx, finalDeletions.artifacts, &result.DeletedArtifacts, &result.FreedBytes, &result.DeleteErrors)
	d.deletePaths(ctx, finalDeletions.clones, &result.DeletedClones, &result.FreedBytes, &result.DeleteErrors)
	d.deletePaths(ctx, finalDeletions.scratch, &result.DeletedScratch, &result.FreedBytes, &result.DeleteErrors)

	// Step 10: prune empty package/scratch containers.
	d.pruneEmptyContainers()

	// Persist condensed ledgers (step 3 completion, deferred until after
	// deletion uses the original sets for marking).
	d.writeLedgers(manifestLedgers, artifactLedgers, scratchLedgers)

	if d.Verbose {
		log.Printf("[gc] freed %s across %d packages, %d artifacts, %d clones, %d scratchspaces (%d delete errors)",
			humanize.Bytes(uint64(result.FreedBytes)), result.DeletedPackages, result.DeletedArtifacts, result.DeletedClones, result.DeletedScratch, result.DeleteErrors)
	}

	return result, nil
}

type finalDeletionSets struct {
	packages  []string
	artifacts []string
	clones    []string
	scratch   []string
}

func (d *Driver) loadAndCondenseLedgers() (manifestL, artifactL, scratchL map[string]usage.Record) {
	var perDepotManifest, perDepotArtifact, perDepotScratch []map[string]usage.Record
	for _, r := range d.Depots {
		if m, err := usage.ReadFile(r.ManifestUsageLog()); err == nil {
			perDepotManifest = append(perDepotManifest, m)
		} else if d.Verbose {
			log.Printf("[gc] treating %s as absent: %v", r.ManifestUsageLog(), err)
		}
		if m, err := usage.ReadFile(r.ArtifactUsageLog()); err == nil {
			perDepotArtifact = append(perDepotArtifact, m)
		} else if d.Verbose {
			log.Printf("[gc] treating %s as absent: %v", r.ArtifactUsageLog(), err)
		}
		if m, err := usage.ReadFile(r.ScratchUsageLog()); err == nil {
			perDepotScratch = append(perDepotScratch, m)
		} else if d.Verbose {
			log.Printf("[gc] treating %s as absent: %v", r.ScratchUsageLog(), err)
		}
	}

	manifestL = usage.FilterExisting(usage.MergeAcrossDepots(perDepotManifest), usage.Manifest, d.pathExists)
	artifactL = usage.FilterExisting(usage.MergeAcrossDepots(perDepotArtifact), usage.Artifact, d.pathExists)
	scratchL = usage.FilterExisting(usage.MergeAcrossDepots(perDepotScratch), usage.Scratch, d.pathExists)
	return manifestL, artifactL, scratchL
}

func (d *Driver) writeLedgers(manifestL, artifactL, scratchL map[string]usage.Record) {
	for _, r := range d.Depots {
		if err := usage.WriteFile(r.ManifestUsageLog(), manifestL); err != nil && d.Verbose {
			log.Printf("[gc] failed to rewrite %s: %v", r.ManifestUsageLog(), err)
		}
		if err := usage.WriteFile(r.ArtifactUsageLog(), artifactL); err != nil && d.Verbose {
			log.Printf("[gc] failed to rewrite %s: %v", r.ArtifactUsageLog(), err)
		}
		if err := usage.WriteFile(r.ScratchUsageLog(), scratchL); err != nil && d.Verbose {
			log.Printf("[gc] failed to rewrite %s: %v", r.ScratchUsageLog(), err)
		}
	}
}

// pathExists checks a usage ledger filename for existence. Manifest usage
// entries are absolute environment paths (manifest.toml lives outside any
// depot), checked directly; artifact and scratch entries are depot-
// relative, checked against every depot root.
func (d *Driver) pathExists(p string) bool {
	if filepath.IsAbs(p) {
		_, err := os.Stat(p)
		return err == nil
	}
	for _, r := range d.Depots {
		if _, err := os.Stat(filepath.Join(string(r), p)); err == nil {
			return true
		}
	}
	return false
}

// ledgerKeys returns the filenames tracked by a condensed usage ledger,
// which for the manifest and artifact categories double as the index file
// paths the Reachability Marker reads (spec §4.4, §4.5: the ledger is
// keyed by the index file's own path).
func ledgerKeys(ledger map[string]usage.Record) []string {
	out := make([]string, 0, len(ledger))
	for k := range ledger {
		out = append(out, k)
	}
	return out
}

// enumerate lists immediate entries under root(depot) at the given depth
// (1 for artifacts/clones, 2 for packages/<name>/<slug>) for every depot,
// returning the depot-relative suffixes not present in keep, keyed by
// depot so later aging stays scoped to the depot that owns each path.
func (d *Driver) enumerate(root func(depot.Root) string, keep map[string]struct{}, depth int) map[depot.Root][]string {
	out := map[depot.Root][]string{}
	for _, r := range d.Depots {
		var perDepot []string
		walkDepth(root(r), depth, func(fullPath string) {
			rel, err := filepath.Rel(string(r), fullPath)
			if err != nil {
				return
			}
			if _, ok := keep[rel]; !ok {
				perDepot = append(perDepot, rel)
			}
		})
		out[r] = perDepot
	}
	return out
}

func (d *Driver) enumerateScratch() map[depot.Root][]string {
	out := map[depot.Root][]string{}
	for _, r := range d.Depots {
		var perDepot []string
		walkDepth(r.Scratchspaces(), 2, func(fullPath string) {
			rel, err := filepath.Rel(string(r), fullPath)
			if err != nil {
				return
			}
			perDepot = append(perDepot, rel)
		})
		out[r] = perDepot
	}
	return out
}

func flatten(perDepot map[depot.Root][]string) []string {
	var out []string
	for _, paths := range perDepot {
		out = append(out, paths...)
	}
	return out
}

func walkDepth(root string, depth int, visit func(path string)) {
	if depth == 1 {
		entries, err := os.ReadDir(root)
		if err != nil {
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				visit(filepath.Join(root, e.Name()))
			}
		}
		return
	}
	topEntries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, top := range topEntries {
		if !top.IsDir() {
			continue
		}
		walkDepth(filepath.Join(root, top.Name()), depth-1, visit)
	}
}

func filterOutKeptPerDepot(perDepot map[depot.Root][]string, keep map[string]struct{}) map[depot.Root][]string {
	out := make(map[depot.Root][]string, len(perDepot))
	for r, paths := range perDepot {
		var filtered []string
		for _, p := range paths {
			if _, ok := keep[p]; !ok {
				filtered = append(filtered, p)
			}
		}
		out[r] = filtered
	}
	return out
}

// scratchParentLookup builds a parentsOf func from the condensed scratch
// usage ledger's parent_projects. scratchDir arrives as a depot-relative
// path, the same form the ledger is keyed by. A parent project file that
// lies inside a depot's packages/<name>/<slug> directory is translated to
// that depot-relative package path; any other parent is returned as is.
func scratchParentLookup(scratchLedger map[string]usage.Record, depots []depot.Root) func(string) []string {
	return func(scratchDir string) []string {
		rec, ok := scratchLedger[scratchDir]
		if !ok {
			return nil
		}
		parents := make([]string, 0, len(rec.ParentProjects))
		for p := range rec.ParentProjects {
			parent := p
			for _, r := range depots {
				rel, err := filepath.Rel(string(r), p)
				if err != nil {
					continue
				}
				parts := strings.Split(filepath.ToSlash(rel), "/")
				if len(parts) >= 3 && parts[0] == "packages" {
					parent = filepath.Join(parts[:3]...)
					break
				}
			}
			parents = append(parents, parent)
		}
		return parents
	}
}

func (d *Driver) ageAndPersist(now time.Time, packageCandidates, artifactCandidates, cloneCandidates, scratchCandidates map[depot.Root][]string) finalDeletionSets {
	var final finalDeletionSets
	for _, r := range d.Depots {
		old, err := orphanage.LoadOrphaned(r.OrphanedLog())
		if err != nil {
			if d.Verbose {
				log.Printf("[gc] treating %s as absent: %v", r.OrphanedLog(), err)
			}
			old = map[string]time.Time{}
		}

		newPkg, delPkg := orphanage.Merge(packageCandidates[r], old, now, d.CollectDelay)
		newArt, delArt := orphanage.Merge(artifactCandidates[r], old, now, d.CollectDelay)
		newClone, delClone := orphanage.Merge(cloneCandidates[r], old, now, d.CollectDelay)
		newScratch, delScratch := orphanage.Merge(scratchCandidates[r], old, now, d.CollectDelay)

		merged := map[string]time.Time{}
		for k, v := range newPkg {
			merged[k] = v
		}
		for k, v := range newArt {
			merged[k] = v
		}
		for k, v := range newClone {
			merged[k] = v
		}
		for k, v := range newScratch {
			merged[k] = v
		}
		// Paths handed to deletion are not carried into the saved
		// orphanage; one whose deletion fails is recorded afresh next run.
		for _, del := range [][]string{delPkg, delArt, delClone, delScratch} {
			for _, p := range del {
				delete(merged, p)
			}
		}
		if err := orphanage.SaveOrphaned(r.OrphanedLog(), merged); err != nil && d.Verbose {
			log.Printf("[gc] failed to save %s: %v", r.OrphanedLog(), err)
		}

		final.packages = append(final.packages, joinAll(r, delPkg)...)
		final.artifacts = append(final.artifacts, joinAll(r, delArt)...)
		final.clones = append(final.clones, joinAll(r, delClone)...)
		final.scratch = append(final.scratch, joinAll(r, delScratch)...)
	}
	return final
}

func joinAll(r depot.Root, relPaths []string) []string {
	out := make([]string, len(relPaths))
	for i, p := range relPaths {
		out[i] = filepath.Join(string(r), p)
	}
	return out
}

func (d *Driver) deletePaths(ctx context.Context, paths []string, count *int, freedBytes *int64, errCount *int) {
	for _, p := range paths {
		if ctx.Err() != nil {
			return
		}
		if d.Pace != nil {
			if err := d.Pace.Wait(ctx); err != nil {
				return
			}
		}
		size := dirSize(p)
		if err := os.RemoveAll(p); err != nil {
			*errCount++
			if d.Verbose {
				log.Printf("[gc] failed to delete %s: %v", p, err)
			}
			continue
		}
		*count++
		*freedBytes += size
	}
}

func dirSize(path string) int64 {
	var total int64
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort size accounting, never aborts the walk
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

func (d *Driver) pruneEmptyContainers() {
	for _, r := range d.Depots {
		pruneEmptyDirs(r.Packages())
		pruneEmptyDirs(r.Scratchspaces())
	}
}

func pruneEmptyDirs(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		children, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		if len(children) == 0 {
			os.Remove(dir)
		}
	}
}
