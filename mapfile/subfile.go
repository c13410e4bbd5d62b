package mapfile

import (
	"github.com/FireworkMC/mapsforge/tile"
)

const (
	// baseZoomLevelMax the highest base zoom level of a sub-file.
	baseZoomLevelMax = 20
	// zoomLevelMax the highest zoom level stored in a map file.
	zoomLevelMax = 22

	indexSignatureLength = 16
	indexEntrySize       = 5
)

// SubFileParameters describes a single sub-file of a map file.
// Every sub-file contains the data for a range of zoom levels and has its own index.
type SubFileParameters struct {
	BaseZoomLevel uint8
	ZoomLevelMin  uint8
	ZoomLevelMax  uint8

	// StartAddress the absolute offset of the sub-file in the map file.
	StartAddress int64
	// IndexStartAddress the absolute offset of the first index entry.
	IndexStartAddress int64
	// IndexEndAddress the absolute offset of the end of the index.
	IndexEndAddress int64
	// SubFileSize the size of the sub-file in bytes.
	SubFileSize int64

	BoundingBox tile.BoundingBox

	// the tiles at the base zoom level covering the bounding box.
	BoundaryTileLeft   int
	BoundaryTileTop    int
	BoundaryTileRight  int
	BoundaryTileBottom int

	BlocksWidth    int64
	BlocksHeight   int64
	NumberOfBlocks int64

	// id the position of the sub-file in the header. Used as part of the index cache key.
	id int
}

func newSubFileParameters(id int, baseZoom, zoomMin, zoomMax uint8, start, size int64, debug bool, bbox tile.BoundingBox) *SubFileParameters {
	s := &SubFileParameters{
		BaseZoomLevel: baseZoom, ZoomLevelMin: zoomMin, ZoomLevelMax: zoomMax,
		StartAddress: start, IndexStartAddress: start, SubFileSize: size,
		BoundingBox: bbox, id: id,
	}

	if debug {
		s.IndexStartAddress += indexSignatureLength
	}

	s.BoundaryTileLeft = tile.LongitudeToTileX(bbox.MinLongitude, baseZoom)
	s.BoundaryTileTop = tile.LatitudeToTileY(bbox.MaxLatitude, baseZoom)
	s.BoundaryTileRight = tile.LongitudeToTileX(bbox.MaxLongitude, baseZoom)
	s.BoundaryTileBottom = tile.LatitudeToTileY(bbox.MinLatitude, baseZoom)

	s.BlocksWidth = int64(s.BoundaryTileRight-s.BoundaryTileLeft) + 1
	s.BlocksHeight = int64(s.BoundaryTileBottom-s.BoundaryTileTop) + 1
	s.NumberOfBlocks = s.BlocksWidth * s.BlocksHeight
	s.IndexEndAddress = s.IndexStartAddress + s.NumberOfBlocks*indexEntrySize
	return s
}

// zoomRows the number of rows in the zoom table of every block.
func (s *SubFileParameters) zoomRows() int { return int(s.ZoomLevelMax-s.ZoomLevelMin) + 1 }
