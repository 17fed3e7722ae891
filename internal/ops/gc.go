package ops

import (
	"context"
	"time"

	"github.com/jra3/pkgctl/internal/gc"
)

// GCOptions carries `gc`'s recognised options (spec §6).
type GCOptions struct {
	CollectDelay time.Duration // default 7 days, per spec §6
	Verbose      bool
}

// GC runs a sweep across every depot the dispatcher's driver was
// configured with. Unlike the mutating operations, GC neither snapshots
// undo nor auto-precompiles — it operates across depots, not within a
// single environment (spec §4.7, §4.9 table excludes gc from the
// mutation skeleton).
func (d *Dispatcher) GC(ctx context.Context, driver *gc.Driver, opts GCOptions) (*gc.Result, error) {
	if opts.CollectDelay > 0 {
		driver.CollectDelay = opts.CollectDelay
	} else if driver.CollectDelay == 0 {
		driver.CollectDelay = 7 * 24 * time.Hour
	}
	driver.Verbose = opts.Verbose
	return driver.Run(ctx)
}
