package cache

import (
	"github.com/FireworkMC/mapsforge/tile"
)

// TwoLevel a cache that looks up artifacts in a fast first level before falling back to a second level.
// Artifacts found in the second level are promoted to the first level.
type TwoLevel struct {
	first  TileCache
	second TileCache
}

var _ TileCache = &TwoLevel{}

// NewTwoLevel creates a cache backed by first and second.
func NewTwoLevel(first, second TileCache) *TwoLevel {
	return &TwoLevel{first: first, second: second}
}

// Get returns the artifact from the first level or promotes it from the second level.
func (t *TwoLevel) Get(job tile.Job) (Artifact, bool) {
	if a, ok := t.first.Get(job); ok {
		return a, true
	}

	a, ok := t.second.Get(job)
	if !ok {
		return nil, false
	}

	// the reference taken by the second level is handed to the caller,
	// the first level takes its own.
	_ = t.first.Put(job, a)
	return a, true
}

// Put stores the artifact in both levels.
func (t *TwoLevel) Put(job tile.Job, a Artifact) error {
	if err := t.first.Put(job, a); err != nil {
		return err
	}
	return t.second.Put(job, a)
}

// Contains checks if either level contains the job.
func (t *TwoLevel) Contains(job tile.Job) bool {
	return t.first.Contains(job) || t.second.Contains(job)
}

// SetWorkingSet sets the working set of both levels.
func (t *TwoLevel) SetWorkingSet(jobs []tile.Job) {
	t.first.SetWorkingSet(jobs)
	t.second.SetWorkingSet(jobs)
}

// SetCapacity sets the capacity of the first level.
func (t *TwoLevel) SetCapacity(n int) { t.first.SetCapacity(n) }

// AddObserver registers the observer with both levels.
func (t *TwoLevel) AddObserver(o Observer) (remove func()) {
	r1, r2 := t.first.AddObserver(o), t.second.AddObserver(o)
	return func() { r1(); r2() }
}

// Purge purges both levels.
func (t *TwoLevel) Purge() {
	t.first.Purge()
	t.second.Purge()
}
