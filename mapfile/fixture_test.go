package mapfile

import (
	"encoding/binary"
	"fmt"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/spf13/afero"
	"github.com/yehan2002/is/v2"
)

// testFile describes a map file that is encoded by the tests.
type testFile struct {
	magic      string
	version    int32
	date       int64
	bbox       [4]int32
	tileSize   int16
	projection string
	debug      bool

	startPosition *[2]int32
	startZoom     *uint8
	languages     string
	comment       string
	createdBy     string

	poiTags []string
	wayTags []string

	subFiles []testSubFile

	// sizeDelta is added to the file size stored in the header.
	sizeDelta int64
}

type testSubFile struct {
	base, zoomMin, zoomMax uint8
	// blocks maps block numbers to their content. Missing blocks are empty.
	blocks map[int64]*testBlock
	water  map[int64]bool
	// startOverride replaces the start address stored in the header.
	startOverride int64
	// sizeOverride replaces the size stored in the header.
	sizeOverride int64
}

type testBlock struct {
	// zoomTable per zoom level counts (not cumulative).
	// If nil every element is visible from the lowest zoom level of the sub-file.
	zoomTable [][2]uint32
	pois      []testPOI
	ways      []testWay
	// raw replaces the encoded block.
	raw []byte
}

type testPOI struct {
	lat, lon    int32
	layer       uint8
	tags        []uint32
	extra       []byte
	name        string
	houseNumber string
	ele         *int32
}

type testWay struct {
	bitmask     uint16
	layer       uint8
	tags        []uint32
	extra       []byte
	name        string
	houseNumber string
	ref         string
	label       *[2]int32
	doubleDelta bool
	// blocks way data blocks, each a list of rings of absolute (lat, lon) pairs.
	blocks [][][][2]int32
}

func appendUnsigned(b []byte, v uint32) []byte {
	for v > 0x7f {
		b = append(b, byte(v&0x7f)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

func appendSigned(b []byte, v int32) []byte {
	u, neg := uint32(v), v < 0
	if neg {
		u = uint32(-v)
	}
	for u > 0x3f {
		b = append(b, byte(u&0x7f)|0x80)
		u >>= 7
	}
	last := byte(u)
	if neg {
		last |= 0x40
	}
	return append(b, last)
}

func appendString(b []byte, s string) []byte {
	return append(appendUnsigned(b, uint32(len(s))), s...)
}

func appendSignature(b []byte, sig string) []byte {
	return append(b, fmt.Sprintf("%-32s", sig)[:signatureLength]...)
}

func (f *testFile) boundingBox() tile.BoundingBox {
	b, _ := tile.NewBoundingBox(
		tile.MicrodegreesToDegrees(f.bbox[0]), tile.MicrodegreesToDegrees(f.bbox[1]),
		tile.MicrodegreesToDegrees(f.bbox[2]), tile.MicrodegreesToDegrees(f.bbox[3]),
	)
	return b
}

// bytes encodes the map file.
func (f *testFile) bytes() []byte {
	data := make([][]byte, len(f.subFiles))
	for i := range f.subFiles {
		data[i] = f.encodeSubFile(&f.subFiles[i])
	}

	headerLen := int64(len(f.encodeHeader(0, make([]int64, len(data)), make([]int64, len(data)))))

	starts, sizes := make([]int64, len(data)), make([]int64, len(data))
	size := headerLen
	for i, d := range data {
		starts[i], sizes[i] = size, int64(len(d))
		if o := f.subFiles[i].startOverride; o != 0 {
			starts[i] = o
		}
		if o := f.subFiles[i].sizeOverride; o != 0 {
			sizes[i] = o
		}
		size += int64(len(d))
	}

	file := f.encodeHeader(size+f.sizeDelta, starts, sizes)
	for _, d := range data {
		file = append(file, d...)
	}
	return file
}

func (f *testFile) encodeHeader(fileSize int64, starts, sizes []int64) []byte {
	var h []byte
	h = binary.BigEndian.AppendUint32(h, uint32(f.version))
	h = binary.BigEndian.AppendUint64(h, uint64(fileSize))
	h = binary.BigEndian.AppendUint64(h, uint64(f.date))
	for _, v := range f.bbox {
		h = binary.BigEndian.AppendUint32(h, uint32(v))
	}
	h = binary.BigEndian.AppendUint16(h, uint16(f.tileSize))

	projection := f.projection
	if projection == "" {
		projection = projectionMercator
	}
	h = appendString(h, projection)

	var flags byte
	if f.debug {
		flags |= flagDebug
	}
	if f.startPosition != nil {
		flags |= flagStartPosition
	}
	if f.startZoom != nil {
		flags |= flagStartZoomLevel
	}
	if f.languages != "" {
		flags |= flagLanguages
	}
	if f.comment != "" {
		flags |= flagComment
	}
	if f.createdBy != "" {
		flags |= flagCreatedBy
	}
	h = append(h, flags)

	if f.startPosition != nil {
		h = binary.BigEndian.AppendUint32(h, uint32(f.startPosition[0]))
		h = binary.BigEndian.AppendUint32(h, uint32(f.startPosition[1]))
	}
	if f.startZoom != nil {
		h = append(h, *f.startZoom)
	}
	if f.languages != "" {
		h = appendString(h, f.languages)
	}
	if f.comment != "" {
		h = appendString(h, f.comment)
	}
	if f.createdBy != "" {
		h = appendString(h, f.createdBy)
	}

	for _, tags := range [][]string{f.poiTags, f.wayTags} {
		h = binary.BigEndian.AppendUint16(h, uint16(len(tags)))
		for _, t := range tags {
			h = appendString(h, t)
		}
	}

	h = append(h, byte(len(f.subFiles)))
	for i, sf := range f.subFiles {
		h = append(h, sf.base, sf.zoomMin, sf.zoomMax)
		h = binary.BigEndian.AppendUint64(h, uint64(starts[i]))
		h = binary.BigEndian.AppendUint64(h, uint64(sizes[i]))
	}

	m := f.magic
	if m == "" {
		m = magic
	}
	out := append([]byte(m), 0, 0, 0, 0)
	binary.BigEndian.PutUint32(out[len(m):], uint32(len(h)))
	return append(out, h...)
}

func (f *testFile) params(sf *testSubFile) *SubFileParameters {
	return newSubFileParameters(0, sf.base, sf.zoomMin, sf.zoomMax, 0, 1, f.debug, f.boundingBox())
}

func (f *testFile) encodeSubFile(sf *testSubFile) []byte {
	p := f.params(sf)

	var index []byte
	if f.debug {
		index = append(index, "+++IndexStart+++"...)
	}

	pointer := int64(len(index)) + p.NumberOfBlocks*indexEntrySize
	var blocks []byte
	for i := int64(0); i < p.NumberOfBlocks; i++ {
		entry := uint64(pointer)
		if sf.water[i] {
			entry |= bitmaskIndexWater
		}
		index = append(index, byte(entry>>32), byte(entry>>24), byte(entry>>16), byte(entry>>8), byte(entry))

		if b := sf.blocks[i]; b != nil {
			data := f.encodeBlock(p, i/p.BlocksWidth, i%p.BlocksWidth, b)
			blocks = append(blocks, data...)
			pointer += int64(len(data))
		}
	}
	return append(index, blocks...)
}

func blockOrigin(p *SubFileParameters, row, col int64) (lat, lon int32) {
	lat = tile.DegreesToMicrodegrees(tile.TileYToLatitude(p.BoundaryTileTop+int(row), p.BaseZoomLevel))
	lon = tile.DegreesToMicrodegrees(tile.TileXToLongitude(p.BoundaryTileLeft+int(col), p.BaseZoomLevel))
	return
}

func (f *testFile) encodeBlock(p *SubFileParameters, row, col int64, b *testBlock) []byte {
	if b.raw != nil {
		return b.raw
	}
	originLat, originLon := blockOrigin(p, row, col)

	var data []byte
	if f.debug {
		data = appendSignature(data, fmt.Sprintf("%s%d,%d", signatureBlock, col, row))
	}

	table := b.zoomTable
	if table == nil {
		table = make([][2]uint32, p.zoomRows())
		table[0] = [2]uint32{uint32(len(b.pois)), uint32(len(b.ways))}
	}
	for _, row := range table {
		data = appendUnsigned(appendUnsigned(data, row[0]), row[1])
	}

	var pois []byte
	for i, poi := range b.pois {
		if f.debug {
			pois = appendSignature(pois, fmt.Sprintf("%s%d", signaturePOI, i))
		}
		pois = appendSigned(pois, poi.lat-originLat)
		pois = appendSigned(pois, poi.lon-originLon)
		pois = append(pois, poi.layer<<4|byte(len(poi.tags)))
		for _, t := range poi.tags {
			pois = appendUnsigned(pois, t)
		}
		pois = append(pois, poi.extra...)

		var features byte
		if poi.name != "" {
			features |= poiFeatureName
		}
		if poi.houseNumber != "" {
			features |= poiFeatureHouseNumber
		}
		if poi.ele != nil {
			features |= poiFeatureElevation
		}
		pois = append(pois, features)
		if poi.name != "" {
			pois = appendString(pois, poi.name)
		}
		if poi.houseNumber != "" {
			pois = appendString(pois, poi.houseNumber)
		}
		if poi.ele != nil {
			pois = appendSigned(pois, *poi.ele)
		}
	}

	data = appendUnsigned(data, uint32(len(pois)))
	data = append(data, pois...)

	for i := range b.ways {
		if f.debug {
			data = appendSignature(data, fmt.Sprintf("%s%d", signatureWay, i))
		}
		way := encodeWay(&b.ways[i], originLat, originLon)
		data = appendUnsigned(data, uint32(len(way)))
		data = append(data, way...)
	}
	return data
}

func encodeWay(w *testWay, originLat, originLon int32) []byte {
	way := binary.BigEndian.AppendUint16(nil, w.bitmask)
	way = append(way, w.layer<<4|byte(len(w.tags)))
	for _, t := range w.tags {
		way = appendUnsigned(way, t)
	}
	way = append(way, w.extra...)

	var features byte
	if w.name != "" {
		features |= wayFeatureName
	}
	if w.houseNumber != "" {
		features |= wayFeatureHouseNumber
	}
	if w.ref != "" {
		features |= wayFeatureRef
	}
	if w.label != nil {
		features |= wayFeatureLabelPosition
	}
	if len(w.blocks) > 1 {
		features |= wayFeatureDataBlocks
	}
	if w.doubleDelta {
		features |= wayFeatureDoubleEncoding
	}
	way = append(way, features)

	if w.name != "" {
		way = appendString(way, w.name)
	}
	if w.houseNumber != "" {
		way = appendString(way, w.houseNumber)
	}
	if w.ref != "" {
		way = appendString(way, w.ref)
	}
	if w.label != nil {
		way = appendSigned(appendSigned(way, w.label[0]), w.label[1])
	}
	if len(w.blocks) > 1 {
		way = appendUnsigned(way, uint32(len(w.blocks)))
	}

	for _, rings := range w.blocks {
		way = appendUnsigned(way, uint32(len(rings)))
		for _, ring := range rings {
			way = appendUnsigned(way, uint32(len(ring)))

			coords := make([]int32, 0, len(ring)*2)
			for _, n := range ring {
				coords = append(coords, n[0], n[1])
			}
			if w.doubleDelta {
				coords = DoubleDeltaEncode(coords)
			} else {
				coords = DeltaEncode(coords)
			}
			coords[0] -= originLat
			coords[1] -= originLon

			for _, c := range coords {
				way = appendSigned(way, c)
			}
		}
	}
	return way
}

// newTestFile returns a file covering 0.0,0.0 to 0.1,0.1 with a single sub-file.
// The sub-file has base zoom level 8 and covers zoom levels 6 to 10.
// At zoom level 8 it has 2 blocks, (128, 127) and (128, 128).
func newTestFile() *testFile {
	return &testFile{
		version:  3,
		date:     1600000000000,
		bbox:     [4]int32{0, 0, 100000, 100000},
		tileSize: 256,
		poiTags:  []string{"amenity=cafe", "shop=bakery", "capacity=%i", "level=%b"},
		wayTags:  []string{"highway=residential", "building=yes", "height=%f", "roof:colour=%i", "note=%s", "layer=%h"},
		subFiles: []testSubFile{{base: 8, zoomMin: 6, zoomMax: 10, blocks: map[int64]*testBlock{}}},
	}
}

// square the corners of a square way in the first block of newTestFile.
var square = [][2]int32{{20000, 20000}, {20000, 80000}, {80000, 80000}, {80000, 20000}, {20000, 20000}}

func squareRing() []tile.LatLong {
	ring := make([]tile.LatLong, len(square))
	for i, n := range square {
		ring[i] = tile.FromMicrodegrees(n[0], n[1])
	}
	return ring
}

// testTile the tile at zoom 8 containing the data of newTestFile.
var testTile = tile.At(tile.LatLong{Latitude: 0.05, Longitude: 0.05}, 8, 256)

func writeTestFile(is is.Is, f *testFile) afero.Fs {
	fs := afero.NewMemMapFs()
	err := afero.WriteFile(fs, "test.map", f.bytes(), 0666)
	is(err == nil, "unexpected error while writing test file: %s", err)
	return fs
}

func openTestFile(is is.Is, f *testFile, settings ...Settings) *MapFile {
	var s Settings
	if len(settings) == 1 {
		s = settings[0]
	}
	s.Fs = writeTestFile(is, f)

	m, err := Open("test.map", s)
	is(err == nil, "unexpected error while opening test file: %s", err)
	return m
}
