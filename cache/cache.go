// Package cache stores the artifacts produced for tile jobs.
package cache

import (
	"math"
	"reflect"
	"sync"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/sirupsen/logrus"
)

// TileCache a store mapping jobs to artifacts.
type TileCache interface {
	// Get returns the artifact for the job.
	// The reference count of the returned artifact is incremented.
	Get(job tile.Job) (Artifact, bool)
	// Put stores the artifact for the job and notifies the observers.
	Put(job tile.Job, a Artifact) error
	// Contains checks if the cache contains an artifact for the job without changing its recency.
	Contains(job tile.Job) bool
	// SetWorkingSet sets the jobs that must not be evicted.
	// This replaces the previous working set.
	SetWorkingSet(jobs []tile.Job)
	// SetCapacity changes the maximum number of artifacts in the cache.
	SetCapacity(n int)
	// AddObserver registers an observer. The returned function removes it.
	AddObserver(o Observer) (remove func())
	// Purge removes every artifact.
	Purge()
}

func checkPut(job tile.Job, a Artifact) error {
	if isNil(a) {
		return ErrNilArtifact
	}
	if !job.Tile.Valid() {
		return ErrInvalidJob
	}
	return nil
}

// isNil checks if a is nil or an interface holding a nil pointer.
func isNil(a Artifact) bool {
	if a == nil {
		return true
	}
	v := reflect.ValueOf(a)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// InMemory a least recently used cache that never evicts artifacts in the working set.
type InMemory struct {
	lru      *simplelru.LRU
	capacity int

	workingSet map[tile.Job]struct{}
	observers  observers

	log logrus.FieldLogger
	mux sync.Mutex
}

var _ TileCache = &InMemory{}

// NewInMemory creates a new in memory cache.
func NewInMemory(opt ...Settings) (*InMemory, error) {
	settings := getSettings(opt)

	// capacity is enforced by evict so that working set members can be skipped
	lru, err := simplelru.NewLRU(math.MaxInt32, nil)
	if err != nil {
		return nil, err
	}

	return &InMemory{
		lru:        lru,
		capacity:   settings.Capacity,
		workingSet: map[tile.Job]struct{}{},
		log:        settings.Logger,
	}, nil
}

// Get returns the artifact for the job and marks it as recently used.
func (c *InMemory) Get(job tile.Job) (Artifact, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()

	if v, ok := c.lru.Get(job); ok {
		a := v.(Artifact)
		a.IncrementRefCount()
		return a, true
	}
	return nil, false
}

// Put stores the artifact for the job.
// If the cache is full the least recently used artifact that is not in the working set is evicted.
func (c *InMemory) Put(job tile.Job, a Artifact) error {
	if err := checkPut(job, a); err != nil {
		return err
	}

	c.mux.Lock()
	a.IncrementRefCount()
	if old, ok := c.lru.Peek(job); ok {
		old.(Artifact).DecrementRefCount()
	}
	c.lru.Add(job, a)
	c.evict(job)
	c.mux.Unlock()

	c.observers.notify()
	return nil
}

// Contains checks if the cache contains an artifact for the job.
func (c *InMemory) Contains(job tile.Job) bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.lru.Contains(job)
}

// SetWorkingSet sets the jobs that must not be evicted.
func (c *InMemory) SetWorkingSet(jobs []tile.Job) {
	ws := make(map[tile.Job]struct{}, len(jobs))
	for _, j := range jobs {
		ws[j] = struct{}{}
	}

	c.mux.Lock()
	c.workingSet = ws
	c.mux.Unlock()
}

// SetCapacity changes the capacity of the cache.
// If the cache contains more artifacts than the new capacity, the excess is evicted immediately.
func (c *InMemory) SetCapacity(n int) {
	if n < 1 {
		n = 1
	}

	c.mux.Lock()
	defer c.mux.Unlock()

	c.capacity = n
	c.evict(tile.Job{})
}

// Capacity returns the capacity of the cache.
func (c *InMemory) Capacity() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.capacity
}

// Len returns the number of artifacts in the cache.
func (c *InMemory) Len() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.lru.Len()
}

// Jobs returns the jobs in the cache from the least to the most recently used.
func (c *InMemory) Jobs() []tile.Job {
	c.mux.Lock()
	defer c.mux.Unlock()

	keys := c.lru.Keys()
	jobs := make([]tile.Job, len(keys))
	for i, k := range keys {
		jobs[i] = k.(tile.Job)
	}
	return jobs
}

// AddObserver registers an observer.
func (c *InMemory) AddObserver(o Observer) (remove func()) { return c.observers.add(o) }

// Purge removes every artifact from the cache.
func (c *InMemory) Purge() {
	c.mux.Lock()
	for _, k := range c.lru.Keys() {
		if v, ok := c.lru.Peek(k); ok {
			v.(Artifact).DecrementRefCount()
		}
	}
	c.lru.Purge()
	c.mux.Unlock()

	c.observers.notify()
}

// evict removes the least recently used artifacts until the cache is within its capacity.
// Artifacts in the working set and the job that was just added are never evicted, so the
// cache may temporarily contain more artifacts than its capacity.
// This must be called while holding mux.
func (c *InMemory) evict(keep tile.Job) {
	for c.lru.Len() > c.capacity {
		var victim interface{}
		for _, k := range c.lru.Keys() {
			job := k.(tile.Job)
			if _, ok := c.workingSet[job]; ok || job == keep {
				continue
			}
			victim = k
			break
		}

		if victim == nil {
			c.log.WithFields(logrus.Fields{"size": c.lru.Len(), "capacity": c.capacity}).
				Debug("cache: working set exceeds capacity")
			return
		}

		v, _ := c.lru.Peek(victim)
		c.lru.Remove(victim)
		v.(Artifact).DecrementRefCount()
	}
}
