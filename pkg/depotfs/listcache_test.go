package depotfs

import (
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
)

func TestListCacheGetSetRoundTrip(t *testing.T) {
	t.Parallel()
	c := newListCache(time.Minute)
	defer c.stop()

	if _, ok := c.get("/pkg/Foo"); ok {
		t.Fatal("get() on empty cache returned ok = true")
	}

	want := []fuse.DirEntry{{Name: "src.jl", Mode: fuse.S_IFREG}}
	c.set("/pkg/Foo", want)

	got, ok := c.get("/pkg/Foo")
	if !ok {
		t.Fatal("get() after set() returned ok = false")
	}
	if len(got) != 1 || got[0].Name != "src.jl" {
		t.Errorf("get() = %v, want %v", got, want)
	}
}

func TestListCacheEntryExpires(t *testing.T) {
	t.Parallel()
	c := newListCache(time.Millisecond)
	defer c.stop()

	c.set("/pkg/Foo", []fuse.DirEntry{{Name: "src.jl"}})
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.get("/pkg/Foo"); ok {
		t.Error("get() returned ok = true for an expired entry")
	}
}

func TestListCacheCleanupSweepsExpiredEntries(t *testing.T) {
	t.Parallel()
	c := newListCache(5 * time.Millisecond)
	defer c.stop()

	c.set("/pkg/Foo", []fuse.DirEntry{{Name: "src.jl"}})
	time.Sleep(40 * time.Millisecond)

	c.mu.RLock()
	_, stillPresent := c.entries["/pkg/Foo"]
	c.mu.RUnlock()
	if stillPresent {
		t.Error("cleanup() did not evict an expired entry from the backing map")
	}
}
