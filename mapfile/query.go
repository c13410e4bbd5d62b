package mapfile

import "github.com/FireworkMC/mapsforge/tile"

// queryParameters the blocks of a sub-file that have to be read for a query.
type queryParameters struct {
	queryZoomLevel uint8

	fromBaseTileX, fromBaseTileY int64
	toBaseTileX, toBaseTileY     int64

	fromBlockX, fromBlockY int64
	toBlockX, toBlockY     int64

	// queryTileBitmask the sub-tiles of the block covered by the query.
	// Only used if the query zoom level is higher than the base zoom level.
	queryTileBitmask uint16
	useTileBitmask   bool
}

// calculateBaseTiles finds the tiles at the base zoom level covering the area
// from upperLeft to lowerRight. Both tiles must have the same zoom level.
func (q *queryParameters) calculateBaseTiles(upperLeft, lowerRight tile.Tile, sf *SubFileParameters) {
	zoom, base := upperLeft.ZoomLevel, sf.BaseZoomLevel

	switch {
	case zoom < base:
		diff := base - zoom
		q.fromBaseTileX = int64(upperLeft.X) << diff
		q.fromBaseTileY = int64(upperLeft.Y) << diff
		q.toBaseTileX = (int64(lowerRight.X)<<diff + 1<<diff) - 1
		q.toBaseTileY = (int64(lowerRight.Y)<<diff + 1<<diff) - 1
		q.useTileBitmask = false
	case zoom > base:
		diff := zoom - base
		q.fromBaseTileX = int64(upperLeft.X) >> diff
		q.fromBaseTileY = int64(upperLeft.Y) >> diff
		q.toBaseTileX = int64(lowerRight.X) >> diff
		q.toBaseTileY = int64(lowerRight.Y) >> diff
		if upperLeft == lowerRight {
			q.useTileBitmask = true
			q.queryTileBitmask = tileBitmask(upperLeft, diff)
		}
	default:
		q.fromBaseTileX, q.fromBaseTileY = int64(upperLeft.X), int64(upperLeft.Y)
		q.toBaseTileX, q.toBaseTileY = int64(lowerRight.X), int64(lowerRight.Y)
		q.useTileBitmask = false
	}
}

// intersects checks if the base tiles of the query overlap the tiles of the sub-file.
func (q *queryParameters) intersects(sf *SubFileParameters) bool {
	return q.toBaseTileX >= int64(sf.BoundaryTileLeft) && q.fromBaseTileX <= int64(sf.BoundaryTileRight) &&
		q.toBaseTileY >= int64(sf.BoundaryTileTop) && q.fromBaseTileY <= int64(sf.BoundaryTileBottom)
}

// calculateBlocks converts the base tiles to block numbers clamped to the sub-file.
func (q *queryParameters) calculateBlocks(sf *SubFileParameters) {
	q.fromBlockX = max64(q.fromBaseTileX-int64(sf.BoundaryTileLeft), 0)
	q.fromBlockY = max64(q.fromBaseTileY-int64(sf.BoundaryTileTop), 0)
	q.toBlockX = min64(q.toBaseTileX-int64(sf.BoundaryTileLeft), sf.BlocksWidth-1)
	q.toBlockY = min64(q.toBaseTileY-int64(sf.BoundaryTileTop), sf.BlocksHeight-1)
}

// tileBitmask returns the sub-tiles of a base tile covered by t.
// The 16 bits describe a 4x4 grid in row major order, the most significant bit
// is the top left cell.
func tileBitmask(t tile.Tile, zoomDiff uint8) uint16 {
	if zoomDiff == 1 {
		return firstLevelTileBitmask(t)
	}
	return secondLevelTileBitmask(t, zoomDiff)
}

func firstLevelTileBitmask(t tile.Tile) uint16 {
	switch {
	case t.X%2 == 0 && t.Y%2 == 0:
		return 0xcc00 // upper left
	case t.Y%2 == 0:
		return 0x3300 // upper right
	case t.X%2 == 0:
		return 0x00cc // lower left
	default:
		return 0x0033 // lower right
	}
}

func secondLevelTileBitmask(t tile.Tile, zoomDiff uint8) uint16 {
	shift := zoomDiff - 2
	col := (t.X >> shift) & 3
	row := (t.Y >> shift) & 3
	return 1 << (15 - (row*4 + col))
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
