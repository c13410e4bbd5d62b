// Package tile provides the tile, job and map position types shared by the
// map file reader, the tile cache and the request queue.
package tile

import (
	"fmt"

	"github.com/paulmach/orb/maptile"
)

// MaxZoomLevel the highest zoom level a tile can have.
const MaxZoomLevel = 127

// Tile a square area of the map at a single zoom level.
// Tiles are compared by value.
type Tile struct {
	X         int
	Y         int
	ZoomLevel uint8
	// TileSize the width and height of the tile in pixels.
	TileSize int
}

// New creates a new tile.
func New(x, y int, zoom uint8, tileSize int) Tile {
	return Tile{X: x, Y: y, ZoomLevel: zoom, TileSize: tileSize}
}

// Valid returns if the tile coordinates are valid for its zoom level.
func (t Tile) Valid() bool {
	if t.ZoomLevel > MaxZoomLevel || t.TileSize <= 0 {
		return false
	}
	max := MaxTileNumber(t.ZoomLevel)
	return t.X >= 0 && t.Y >= 0 && t.X <= max && t.Y <= max
}

// MaxTileNumber returns the highest tile number on either axis at the given zoom level.
func MaxTileNumber(zoom uint8) int {
	if zoom == 0 {
		return 0
	}
	if zoom > 62 {
		zoom = 62
	}
	return (1 << zoom) - 1
}

// Parent returns the tile one zoom level above that contains this tile.
// ok is false for tiles at zoom level 0.
func (t Tile) Parent() (parent Tile, ok bool) {
	if t.ZoomLevel == 0 {
		return t, false
	}
	return Tile{X: t.X >> 1, Y: t.Y >> 1, ZoomLevel: t.ZoomLevel - 1, TileSize: t.TileSize}, true
}

// Left returns the tile to the left of this tile, wrapping around the antimeridian.
func (t Tile) Left() Tile {
	x := t.X - 1
	if x < 0 {
		x = MaxTileNumber(t.ZoomLevel)
	}
	return Tile{X: x, Y: t.Y, ZoomLevel: t.ZoomLevel, TileSize: t.TileSize}
}

// Right returns the tile to the right of this tile, wrapping around the antimeridian.
func (t Tile) Right() Tile {
	x := t.X + 1
	if x > MaxTileNumber(t.ZoomLevel) {
		x = 0
	}
	return Tile{X: x, Y: t.Y, ZoomLevel: t.ZoomLevel, TileSize: t.TileSize}
}

// Above returns the tile above this tile, wrapping around the pole.
func (t Tile) Above() Tile {
	y := t.Y - 1
	if y < 0 {
		y = MaxTileNumber(t.ZoomLevel)
	}
	return Tile{X: t.X, Y: y, ZoomLevel: t.ZoomLevel, TileSize: t.TileSize}
}

// Below returns the tile below this tile, wrapping around the pole.
func (t Tile) Below() Tile {
	y := t.Y + 1
	if y > MaxTileNumber(t.ZoomLevel) {
		y = 0
	}
	return Tile{X: t.X, Y: y, ZoomLevel: t.ZoomLevel, TileSize: t.TileSize}
}

// Neighbours returns the distinct tiles surrounding this tile.
// At zoom levels 0 and 1 the wrap around makes some neighbours coincide,
// the tile itself is never included.
func (t Tile) Neighbours() []Tile {
	above, below := t.Above(), t.Below()
	candidates := [8]Tile{
		t.Left(), t.Right(), above, below,
		above.Left(), above.Right(), below.Left(), below.Right(),
	}

	seen := make(map[Tile]struct{}, len(candidates))
	neighbours := make([]Tile, 0, len(candidates))
	for _, n := range candidates {
		if n == t {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		neighbours = append(neighbours, n)
	}
	return neighbours
}

// BoundingBox returns the geographic area covered by this tile.
func (t Tile) BoundingBox() BoundingBox {
	if t.ZoomLevel <= maptileZoomMax {
		return FromBound(t.maptile().Bound())
	}
	return BoundingBox{
		MinLatitude:  TileYToLatitude(t.Y+1, t.ZoomLevel),
		MinLongitude: TileXToLongitude(t.X, t.ZoomLevel),
		MaxLatitude:  TileYToLatitude(t.Y, t.ZoomLevel),
		MaxLongitude: TileXToLongitude(t.X+1, t.ZoomLevel),
	}
}

// Origin returns the top left corner of the tile.
func (t Tile) Origin() LatLong {
	return LatLong{Latitude: TileYToLatitude(t.Y, t.ZoomLevel), Longitude: TileXToLongitude(t.X, t.ZoomLevel)}
}

// PixelCenter returns the absolute pixel coordinates of the center of the tile at its own zoom level.
func (t Tile) PixelCenter() (x, y float64) {
	half := float64(t.TileSize) / 2
	return float64(t.X)*float64(t.TileSize) + half, float64(t.Y)*float64(t.TileSize) + half
}

func (t Tile) maptile() maptile.Tile {
	return maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(t.ZoomLevel))
}

func (t Tile) String() string { return fmt.Sprintf("%d/%d/%d", t.ZoomLevel, t.X, t.Y) }
