package mapfile

import (
	"fmt"
	"strings"
	"time"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/bits-and-blooms/bitset"
	"github.com/yehan2002/errors"
	"github.com/yehan2002/fastbytes/v2"
)

const (
	magic = "mapsforge binary OSM"

	headerSizeMin = 70
	headerSizeMax = 1000000

	fileVersionMin = 3
	fileVersionMax = 5

	// mapDateMin the earliest plausible map date (2008-01-10).
	mapDateMin = 1200000000000

	projectionMercator = "Mercator"

	startZoomLevelMax = 22

	flagDebug          = 0x80
	flagStartPosition  = 0x40
	flagStartZoomLevel = 0x20
	flagLanguages      = 0x10
	flagComment        = 0x08
	flagCreatedBy      = 0x04
)

// FileInfo the metadata stored in the header of a map file.
type FileInfo struct {
	BoundingBox tile.BoundingBox
	Comment     string
	CreatedBy   string
	// DebugFile set if the file contains debug signatures.
	DebugFile   bool
	FileSize    int64
	FileVersion int
	// LanguagesPreference comma separated list of the languages in the file.
	LanguagesPreference string
	MapDate             time.Time
	NumberOfSubFiles    int
	POITags             []Tag
	ProjectionName      string

	StartPosition    tile.LatLong
	HasStartPosition bool

	StartZoomLevel    uint8
	HasStartZoomLevel bool

	TilePixelSize int
	WayTags       []Tag

	// ZoomLevelMin the lowest zoom level covered by any sub-file.
	ZoomLevelMin uint8
	// ZoomLevelMax the highest zoom level covered by any sub-file.
	ZoomLevelMax uint8
}

// header the parsed header and the sub-file lookup table.
type header struct {
	info     FileInfo
	subFiles []*SubFileParameters

	// lookup maps zoom levels to the sub-file containing them.
	lookup [zoomLevelMax + 1]*SubFileParameters
	// covered the zoom levels that have a sub-file.
	covered *bitset.BitSet
}

func invalid(field, format string, args ...interface{}) error {
	return errors.CauseStr(ErrInvalidFile, field+": "+fmt.Sprintf(format, args...))
}

// readHeader reads and validates the header of a map file.
func readHeader(b *readBuffer, fileSize int64) (h *header, err error) {
	if fileSize < headerSizeMin {
		return nil, invalid("file size", "%d is smaller than the minimum header size", fileSize)
	}

	if _, err = b.fill(0, len(magic)+4); err != nil {
		return nil, errors.Wrap("mapfile: unable to read header", err)
	}

	if m := b.readBytes(len(magic)); string(m) != magic {
		return nil, invalid("magic byte", "invalid magic %q", m)
	}

	remaining := b.readInt()
	if remaining < headerSizeMin || remaining > headerSizeMax {
		return nil, invalid("remaining header size", "%d is out of range", remaining)
	}

	ok, err := b.fill(int64(len(magic)+4), int(remaining))
	if err != nil {
		return nil, errors.Wrap("mapfile: unable to read header", err)
	} else if !ok {
		return nil, invalid("remaining header size", "%d exceeds the maximum buffer size", remaining)
	}

	h = &header{covered: bitset.New(zoomLevelMax + 1)}
	h.info.FileSize = fileSize

	steps := []func(*readBuffer) error{
		h.readRequiredFields,
		h.readOptionalFields,
		h.readTags,
		h.readSubFiles,
	}

	for _, step := range steps {
		if err = step(b); err != nil {
			return nil, err
		}
		if b.err != nil {
			return nil, invalid("header", "%s", b.err)
		}
	}

	return h, nil
}

func (h *header) readRequiredFields(b *readBuffer) error {
	info := &h.info

	info.FileVersion = int(b.readInt())
	if info.FileVersion < fileVersionMin || info.FileVersion > fileVersionMax {
		return invalid("file version", "unsupported version %d", info.FileVersion)
	}

	if size := b.readLong(); size != info.FileSize {
		return invalid("file size", "header says %d, actual size is %d", size, info.FileSize)
	}

	date := b.readLong()
	if date < mapDateMin {
		return invalid("map date", "%d is too old", date)
	}
	info.MapDate = time.UnixMilli(date).UTC()

	var bbox [4]uint32
	p := b.readBytes(16)
	if p == nil {
		return invalid("bounding box", "%s", b.err)
	}
	fastbytes.BigEndian.ToU32(p, bbox[:])

	var ok bool
	info.BoundingBox, ok = tile.NewBoundingBox(
		tile.MicrodegreesToDegrees(int32(bbox[0])), tile.MicrodegreesToDegrees(int32(bbox[1])),
		tile.MicrodegreesToDegrees(int32(bbox[2])), tile.MicrodegreesToDegrees(int32(bbox[3])),
	)
	if !ok {
		return invalid("bounding box", "%s is invalid", info.BoundingBox)
	}

	info.TilePixelSize = int(b.readShort())
	if info.TilePixelSize <= 0 {
		return invalid("tile pixel size", "%d is invalid", info.TilePixelSize)
	}

	projection, err := b.readUTF8()
	if err != nil {
		return invalid("projection", "%s", err)
	}
	if projection != projectionMercator {
		return invalid("projection", "unsupported projection %q", projection)
	}
	info.ProjectionName = projection
	return nil
}

func (h *header) readOptionalFields(b *readBuffer) (err error) {
	info := &h.info
	flags := b.readByte()

	info.DebugFile = flags&flagDebug != 0

	if flags&flagStartPosition != 0 {
		var pos [2]uint32
		p := b.readBytes(8)
		if p == nil {
			return invalid("start position", "%s", b.err)
		}
		fastbytes.BigEndian.ToU32(p, pos[:])
		info.StartPosition = tile.FromMicrodegrees(int32(pos[0]), int32(pos[1]))
		if !info.StartPosition.Valid() {
			return invalid("start position", "%s is invalid", info.StartPosition)
		}
		info.HasStartPosition = true
	}

	if flags&flagStartZoomLevel != 0 {
		info.StartZoomLevel = b.readByte()
		if info.StartZoomLevel > startZoomLevelMax {
			return invalid("start zoom level", "%d is out of range", info.StartZoomLevel)
		}
		info.HasStartZoomLevel = true
	}

	if flags&flagLanguages != 0 {
		if info.LanguagesPreference, err = b.readUTF8(); err != nil {
			return invalid("languages preference", "%s", err)
		}
	}

	if flags&flagComment != 0 {
		if info.Comment, err = b.readUTF8(); err != nil {
			return invalid("comment", "%s", err)
		}
	}

	if flags&flagCreatedBy != 0 {
		if info.CreatedBy, err = b.readUTF8(); err != nil {
			return invalid("created by", "%s", err)
		}
	}
	return nil
}

func (h *header) readTags(b *readBuffer) (err error) {
	if h.info.POITags, err = readTagDictionary(b, "poi tags"); err == nil {
		h.info.WayTags, err = readTagDictionary(b, "way tags")
	}
	return
}

func readTagDictionary(b *readBuffer, field string) ([]Tag, error) {
	n := b.readShort()
	if n < 0 {
		return nil, invalid(field, "negative tag count %d", n)
	}

	tags := make([]Tag, n)
	for i := range tags {
		s, err := b.readUTF8()
		if err != nil {
			return nil, invalid(field, "tag %d: %s", i, err)
		}
		tags[i] = NewTag(s)
	}
	return tags, nil
}

func (h *header) readSubFiles(b *readBuffer) error {
	info := &h.info

	count := int(b.readByte())
	if count < 1 {
		return invalid("number of sub-files", "%d is invalid", count)
	}
	info.NumberOfSubFiles = count

	info.ZoomLevelMin, info.ZoomLevelMax = zoomLevelMax, 0
	h.subFiles = make([]*SubFileParameters, count)

	for i := 0; i < count; i++ {
		field := fmt.Sprintf("sub-file %d", i)

		base := b.readByte()
		if base > baseZoomLevelMax {
			return invalid(field, "base zoom level %d is out of range", base)
		}

		zoomMin := b.readByte()
		if zoomMin > zoomLevelMax {
			return invalid(field, "minimum zoom level %d is out of range", zoomMin)
		}

		zoomMax := b.readByte()
		if zoomMax > zoomLevelMax {
			return invalid(field, "maximum zoom level %d is out of range", zoomMax)
		}

		if zoomMin > zoomMax {
			return invalid(field, "minimum zoom level %d is larger than the maximum %d", zoomMin, zoomMax)
		}

		start := b.readLong()
		if start < headerSizeMin || start >= info.FileSize {
			return invalid(field, "start address %d is outside the file", start)
		}

		size := b.readLong()
		if size < 1 {
			return invalid(field, "size %d is invalid", size)
		}

		if b.err != nil {
			return invalid(field, "%s", b.err)
		}

		sf := newSubFileParameters(i, base, zoomMin, zoomMax, start, size, info.DebugFile, info.BoundingBox)
		h.subFiles[i] = sf

		if zoomMin < info.ZoomLevelMin {
			info.ZoomLevelMin = zoomMin
		}
		if zoomMax > info.ZoomLevelMax {
			info.ZoomLevelMax = zoomMax
		}

		for z := zoomMin; z <= zoomMax; z++ {
			h.lookup[z] = sf
			h.covered.Set(uint(z))
		}
	}
	return nil
}

// queryZoomLevel clamps the zoom level to the zoom levels covered by the file.
func (h *header) queryZoomLevel(zoom uint8) uint8 {
	if zoom > h.info.ZoomLevelMax {
		return h.info.ZoomLevelMax
	} else if zoom < h.info.ZoomLevelMin {
		return h.info.ZoomLevelMin
	}
	return zoom
}

// subFile returns the sub-file for the given zoom level.
// Zoom levels that fall between two sub-files use the next covered zoom level.
func (h *header) subFile(zoom uint8) *SubFileParameters {
	zoom = h.queryZoomLevel(zoom)
	if sf := h.lookup[zoom]; sf != nil {
		return sf
	}
	if next, ok := h.covered.NextSet(uint(zoom)); ok {
		return h.lookup[next]
	}
	for z := int(zoom); z >= 0; z-- {
		if h.covered.Test(uint(z)) {
			return h.lookup[z]
		}
	}
	return nil
}

// Languages returns the languages listed in the header.
func (info *FileInfo) Languages() []string {
	if info.LanguagesPreference == "" {
		return nil
	}
	return strings.Split(info.LanguagesPreference, ",")
}
