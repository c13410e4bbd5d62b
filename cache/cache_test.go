package cache

import (
	"sync/atomic"
	"testing"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/yehan2002/is/v2"
)

func TestCache(t *testing.T) { is.SuiteP(t, &cacheTest{}) }

type cacheTest struct{}

func job(x, y int, zoom uint8) tile.Job { return tile.NewJob(tile.New(x, y, zoom, 256), false) }

func newCache(is is.Is, capacity int) *InMemory {
	c, err := NewInMemory(Settings{Capacity: capacity})
	is(err == nil, "unexpected error: %s", err)
	return c
}

func (*cacheTest) TestEviction(is is.Is) {
	c := newCache(is, 2)
	a, b, d := NewPayload([]byte("a")), NewPayload([]byte("b")), NewPayload([]byte("c"))

	is(c.Put(job(0, 0, 1), a) == nil, "unexpected error")
	is(c.Put(job(1, 0, 1), b) == nil, "unexpected error")
	is(c.Put(job(0, 1, 1), d) == nil, "unexpected error")

	is(c.Len() == 2, "cache should contain 2 artifacts, got %d", c.Len())
	is(!c.Contains(job(0, 0, 1)), "least recently used artifact was not evicted")
	is(a.Freed(), "evicted artifact should be freed")
	is(b.RefCount() == 1 && d.RefCount() == 1, "cached artifacts should be referenced once")
}

func (*cacheTest) TestGetRecency(is is.Is) {
	c := newCache(is, 2)
	is(c.Put(job(0, 0, 1), NewPayload([]byte("a"))) == nil, "unexpected error")
	is(c.Put(job(1, 0, 1), NewPayload([]byte("b"))) == nil, "unexpected error")

	a, ok := c.Get(job(0, 0, 1))
	is(ok, "artifact not found")
	is(a.(*Payload).RefCount() == 2, "Get should increment the reference count")
	a.DecrementRefCount()

	is(c.Put(job(0, 1, 1), NewPayload([]byte("c"))) == nil, "unexpected error")
	is(c.Contains(job(0, 0, 1)), "recently used artifact was evicted")
	is(!c.Contains(job(1, 0, 1)), "least recently used artifact was not evicted")
	is.Equal(c.Jobs(), []tile.Job{job(0, 0, 1), job(0, 1, 1)})
}

func (*cacheTest) TestContainsRecency(is is.Is) {
	c := newCache(is, 2)
	is(c.Put(job(0, 0, 1), NewPayload(nil)) == nil, "unexpected error")
	is(c.Put(job(1, 0, 1), NewPayload(nil)) == nil, "unexpected error")

	is(c.Contains(job(0, 0, 1)), "artifact not found")
	is(c.Put(job(0, 1, 1), NewPayload(nil)) == nil, "unexpected error")
	is(!c.Contains(job(0, 0, 1)), "Contains should not change the recency of an artifact")

	_, ok := c.Get(job(5, 5, 5))
	is(!ok, "missing job should not be found")
}

func (*cacheTest) TestWorkingSet(is is.Is) {
	c := newCache(is, 2)
	c.SetWorkingSet([]tile.Job{job(0, 0, 1)})

	is(c.Put(job(0, 0, 1), NewPayload(nil)) == nil, "unexpected error")
	is(c.Put(job(1, 0, 1), NewPayload(nil)) == nil, "unexpected error")
	is(c.Put(job(0, 1, 1), NewPayload(nil)) == nil, "unexpected error")

	is(c.Contains(job(0, 0, 1)), "working set member was evicted")
	is(!c.Contains(job(1, 0, 1)), "oldest artifact outside the working set was not evicted")

	// replacing the working set makes the old members evictable
	c.SetWorkingSet(nil)
	is(c.Put(job(1, 1, 1), NewPayload(nil)) == nil, "unexpected error")
	is(!c.Contains(job(0, 0, 1)), "old working set member was not evicted")
}

func (*cacheTest) TestExceedCapacity(is is.Is) {
	c := newCache(is, 1)
	c.SetWorkingSet([]tile.Job{job(0, 0, 1)})

	is(c.Put(job(0, 0, 1), NewPayload(nil)) == nil, "unexpected error")
	is(c.Put(job(1, 0, 1), NewPayload(nil)) == nil, "unexpected error")
	is(c.Len() == 2, "cache should exceed its capacity instead of evicting protected artifacts")
	is(c.Contains(job(1, 0, 1)), "the artifact that was just added was evicted")

	is(c.Put(job(0, 1, 1), NewPayload(nil)) == nil, "unexpected error")
	is(c.Len() == 2, "cache should contain 2 artifacts, got %d", c.Len())
	is(!c.Contains(job(1, 0, 1)), "unprotected artifact was not evicted")
}

func (*cacheTest) TestReplace(is is.Is) {
	c := newCache(is, 2)
	old, replacement := NewPayload([]byte("old")), NewPayload([]byte("new"))

	is(c.Put(job(0, 0, 1), old) == nil, "unexpected error")
	is(c.Put(job(0, 0, 1), replacement) == nil, "unexpected error")
	is(old.Freed(), "replaced artifact should be released")
	is(replacement.RefCount() == 1, "replacement should be referenced once")

	// putting the same artifact again must not free it
	is(c.Put(job(0, 0, 1), replacement) == nil, "unexpected error")
	is(!replacement.Freed() && replacement.RefCount() == 1, "re-adding an artifact should keep it alive")
	is(c.Len() == 1, "cache should contain a single artifact")
}

func (*cacheTest) TestInvalidPut(is is.Is) {
	c := newCache(is, 2)
	is.Err(c.Put(job(0, 0, 1), nil), ErrNilArtifact, "nil artifact should be rejected")
	is.Err(c.Put(job(0, 0, 1), (*Payload)(nil)), ErrNilArtifact, "nil payload should be rejected")
	is.Err(c.Put(job(5, 0, 1), NewPayload(nil)), ErrInvalidJob, "invalid tile should be rejected")
	is(c.Len() == 0, "rejected artifacts should not be stored")
}

func (*cacheTest) TestSetCapacity(is is.Is) {
	c := newCache(is, 3)
	for x := 0; x < 3; x++ {
		is(c.Put(job(x, 0, 2), NewPayload(nil)) == nil, "unexpected error")
	}

	c.SetCapacity(1)
	is(c.Capacity() == 1, "capacity was not changed")
	is(c.Len() == 1, "excess artifacts were not evicted")
	is(c.Contains(job(2, 0, 2)), "most recently used artifact was evicted")

	c.SetCapacity(0)
	is(c.Capacity() == 1, "capacity should be at least 1")
}

func (*cacheTest) TestObservers(is is.Is) {
	c := newCache(is, 2)

	var calls int32
	remove := c.AddObserver(ObserverFunc(func() {
		// observers run without the cache lock held
		c.Contains(job(0, 0, 1))
		atomic.AddInt32(&calls, 1)
	}))

	is(c.Put(job(0, 0, 1), NewPayload(nil)) == nil, "unexpected error")
	is(atomic.LoadInt32(&calls) == 1, "observer was not notified")

	remove()
	is(c.Put(job(1, 0, 1), NewPayload(nil)) == nil, "unexpected error")
	is(atomic.LoadInt32(&calls) == 1, "removed observer was notified")
}

func (*cacheTest) TestPurge(is is.Is) {
	c := newCache(is, 2)
	a := NewPayload([]byte("a"))
	is(c.Put(job(0, 0, 1), a) == nil, "unexpected error")

	c.Purge()
	is(c.Len() == 0, "cache was not purged")
	is(a.Freed(), "purged artifact was not released")
}

func (*cacheTest) TestPayload(is is.Is) {
	p := NewPayload([]byte("payload"))
	is(string(p.Bytes()) == "payload", "incorrect content")
	is(p.Len() == 7, "incorrect length")

	p.IncrementRefCount()
	p.IncrementRefCount()
	p.DecrementRefCount()
	is(!p.Freed(), "payload freed while referenced")
	p.DecrementRefCount()
	is(p.Freed() && p.Bytes() == nil, "payload was not freed")

	defer func() { is(recover() != nil, "negative reference count should panic") }()
	p.DecrementRefCount()
}
