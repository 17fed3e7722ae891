// Package collab declares the narrow interfaces the core depends on for
// everything explicitly out of scope: version-range solving, registry
// access, git plumbing, artifact download, and build execution (spec
// §1, §6). The Operation Dispatcher is injected with concrete
// implementations of these by its caller; fakes for them live only in
// test files.
package collab

import (
	"context"

	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

// Resolver solves a set of specs against the registry's version graph,
// returning a manifest entry per resolved spec. The solving algorithm
// itself (version-range constraint propagation) is out of scope (spec
// §1); this interface only names the boundary the dispatcher calls
// across.
type Resolver interface {
	Resolve(ctx context.Context, specs []specvalidate.Spec, preserve string) (manifest.Manifest, error)

	// Upgrade re-resolves the packages named by specs (or the whole
	// current manifest when specs is empty) within the given maximum
	// version bump level (fixed, patch, minor, major — spec §6 `level`
	// option), returning only the entries that changed.
	Upgrade(ctx context.Context, current manifest.Manifest, specs []specvalidate.Spec, level string) (manifest.Manifest, error)
}

// Downloader materialises a resolved manifest entry's source tree or
// artifact content into the depot, returning the path it extracted to.
type Downloader interface {
	DownloadSource(ctx context.Context, uuid string, entry manifest.Entry) (path string, err error)
	DownloadArtifact(ctx context.Context, uuid string, entry manifest.Entry, platform string) (path string, err error)
}

// Registry refreshes locally cached registry metadata, used by `up` and
// `instantiate` when `update_registry` is requested (spec §6).
type Registry interface {
	Update(ctx context.Context) error
}

// BuildRunner executes a package's build script after instantiate
// extracts its source (spec §4.9).
type BuildRunner interface {
	RunBuild(ctx context.Context, uuid string, entry manifest.Entry) error
}

// GitClient clones or fetches a repo-tracked package's source into the
// depot's clones/ tree and checks out a tree-hash into packages/ (spec
// §4.9 instantiate).
type GitClient interface {
	CloneOrFetch(ctx context.Context, source string) (clonePath string, err error)
	CheckoutTreeHash(ctx context.Context, clonePath, treeHash, dest string) error
}

// TestOptions carries the `test` operation's forwarded options (spec §6:
// coverage, julia_args, test_args).
type TestOptions struct {
	Coverage bool
	Args     []string
	TestArgs []string
}

// TestRunner executes a package's test entrypoint. Out of scope per spec
// §1/§6 ("CLI/REPL framing" and the test harness itself); the dispatcher
// only names the boundary.
type TestRunner interface {
	RunTests(ctx context.Context, uuid string, entry manifest.Entry, opts TestOptions) error
}
