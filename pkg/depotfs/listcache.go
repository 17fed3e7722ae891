package depotfs

import (
	"sync"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// listCache caches a directory's os.ReadDir result, keyed by real
// on-disk path, adapted from the teacher's internal/cache generic TTL
// cache down to exactly what a read-only, point-in-time-snapshotted
// browser needs: since a depotfs.Root never revisits a path after
// its tree has changed underneath it (spec §5: "not live-refreshing"),
// there is no per-key invalidation (no Delete, no DeleteByPrefix for
// team/project-scoped keys as the teacher's cache had) and no entry
// count limit — a depot's package count bounds the cache naturally, so
// the eviction pressure the teacher's maxEntries guarded against
// doesn't apply here. What remains is the TTL expiry and its background
// sweep, so a long-lived mount doesn't serve an arbitrarily stale
// listing if the same directory is read again much later in the
// session.
type listCache struct {
	mu      sync.RWMutex
	entries map[string]listCacheEntry
	ttl     time.Duration
	stopCh  chan struct{}
}

type listCacheEntry struct {
	dirents   []fuse.DirEntry
	expiresAt time.Time
}

func newListCache(ttl time.Duration) *listCache {
	c := &listCache{
		entries: make(map[string]listCacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *listCache) get(path string) ([]fuse.DirEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[path]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.dirents, true
}

func (c *listCache) set(path string, dirents []fuse.DirEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = listCacheEntry{dirents: dirents, expiresAt: time.Now().Add(c.ttl)}
}

// stop terminates the background expiry sweep. Unexported: a Root's
// cache lives for the lifetime of the mount and is never stopped
// independently of it today, but the sweep goroutine still needs a way
// to exit in tests that construct a listCache directly.
func (c *listCache) stop() {
	close(c.stopCh)
}

func (c *listCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for path, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, path)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}
