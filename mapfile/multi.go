package mapfile

import (
	"sync"

	"github.com/FireworkMC/mapsforge/tile"
)

// DataPolicy controls how the results of multiple map files are combined.
type DataPolicy uint8

const (
	// ReturnAll returns the data of every file covering the tile.
	ReturnAll DataPolicy = iota
	// ReturnFirst returns the data of the first file covering the tile.
	ReturnFirst
	// Deduplicate returns the data of every file covering the tile without duplicate elements.
	Deduplicate
)

// MultiMapFile combines multiple map files.
// Files are queried in the order they were added.
type MultiMapFile struct {
	policy DataPolicy
	files  []*MapFile

	bbox    tile.BoundingBox
	hasBBox bool

	mux sync.RWMutex
}

// NewMultiMapFile creates an empty MultiMapFile.
func NewMultiMapFile(policy DataPolicy) *MultiMapFile {
	return &MultiMapFile{policy: policy}
}

// Add adds a map file.
// Adding the same file twice returns ErrDuplicateFile.
func (mm *MultiMapFile) Add(m *MapFile) error {
	mm.mux.Lock()
	defer mm.mux.Unlock()

	for _, f := range mm.files {
		if f == m {
			return ErrDuplicateFile
		}
	}
	mm.files = append(mm.files, m)

	b := m.BoundingBox()
	if !mm.hasBBox {
		mm.bbox, mm.hasBBox = b, true
		return nil
	}

	if b.MinLatitude < mm.bbox.MinLatitude {
		mm.bbox.MinLatitude = b.MinLatitude
	}
	if b.MinLongitude < mm.bbox.MinLongitude {
		mm.bbox.MinLongitude = b.MinLongitude
	}
	if b.MaxLatitude > mm.bbox.MaxLatitude {
		mm.bbox.MaxLatitude = b.MaxLatitude
	}
	if b.MaxLongitude > mm.bbox.MaxLongitude {
		mm.bbox.MaxLongitude = b.MaxLongitude
	}
	return nil
}

// BoundingBox returns the smallest area containing every file.
func (mm *MultiMapFile) BoundingBox() tile.BoundingBox {
	mm.mux.RLock()
	defer mm.mux.RUnlock()
	return mm.bbox
}

// Supports checks if any file contains data for the tile.
func (mm *MultiMapFile) Supports(t tile.Tile) bool {
	mm.mux.RLock()
	defer mm.mux.RUnlock()
	for _, f := range mm.files {
		if f.Supports(t) {
			return true
		}
	}
	return false
}

// Read reads the tile from every file that covers it.
// The result is water only if the tile is water in every file.
// ok is false if every file covering the tile failed to read it.
func (mm *MultiMapFile) Read(t tile.Tile) (*ReadResult, bool) {
	return mm.read(t, (*MapFile).Read)
}

// ReadPOIs reads the POIs of the tile from every file that covers it.
func (mm *MultiMapFile) ReadPOIs(t tile.Tile) (*ReadResult, bool) {
	return mm.read(t, (*MapFile).ReadPOIs)
}

func (mm *MultiMapFile) read(t tile.Tile, read func(*MapFile, tile.Tile) (*ReadResult, bool)) (*ReadResult, bool) {
	mm.mux.RLock()
	defer mm.mux.RUnlock()

	res := &ReadResult{IsWater: true}
	var covered, succeeded bool

	for _, f := range mm.files {
		if !f.Supports(t) {
			continue
		}
		covered = true

		r, ok := read(f, t)
		if !ok {
			continue
		}

		if mm.policy == ReturnFirst {
			return r, true
		}

		succeeded = true
		res.IsWater = res.IsWater && r.IsWater
		res.Add(r, mm.policy == Deduplicate)
	}

	if !covered {
		return &ReadResult{}, true
	}
	if !succeeded {
		return nil, false
	}
	return res, true
}

// Close closes every file.
func (mm *MultiMapFile) Close() (err error) {
	mm.mux.Lock()
	defer mm.mux.Unlock()

	for _, f := range mm.files {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}
	mm.files = nil
	return
}
