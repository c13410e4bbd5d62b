package cache

import "github.com/FireworkMC/mapsforge/tile"

// DefaultAncestorDepth the number of zoom levels Ancestor walks up by default.
const DefaultAncestorDepth = 4

// Ancestor returns the artifact of the closest ancestor of job that is in the cache.
// At most maxDepth zoom levels are checked. The returned job identifies the ancestor that was found.
// The reference count of the returned artifact is incremented.
func Ancestor(c TileCache, job tile.Job, maxDepth int) (tile.Job, Artifact, bool) {
	if maxDepth <= 0 {
		maxDepth = DefaultAncestorDepth
	}

	t := job.Tile
	for i := 0; i < maxDepth; i++ {
		parent, ok := t.Parent()
		if !ok {
			break
		}
		t = parent

		ancestor := job.WithTile(t)
		if a, ok := c.Get(ancestor); ok {
			return ancestor, a, true
		}
	}
	return tile.Job{}, nil, false
}
