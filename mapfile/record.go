package mapfile

import (
	"math"
	"strconv"
	"strings"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/sirupsen/logrus"
	"github.com/yehan2002/errors"
)

const (
	signatureLength = 32
	signatureBlock  = "###TileStart"
	signaturePOI    = "***POIStart"
	signatureWay    = "---WayStart"

	poiFeatureName        = 0x80
	poiFeatureHouseNumber = 0x40
	poiFeatureElevation   = 0x20

	wayFeatureName           = 0x80
	wayFeatureHouseNumber    = 0x40
	wayFeatureRef            = 0x20
	wayFeatureLabelPosition  = 0x10
	wayFeatureDataBlocks     = 0x08
	wayFeatureDoubleEncoding = 0x04

	maxWayRings = 32767
	maxWayNodes = 32767

	tagName        = "name"
	tagHouseNumber = "addr:housenumber"
	tagElevation   = "ele"
	tagRef         = "ref"
)

// selector the elements that are decoded from a block.
type selector uint8

const (
	selectAll selector = iota
	selectPOIs
)

// blockDecoder decodes the POIs and ways of a single block.
// The block must already be loaded into buf.
type blockDecoder struct {
	buf      *readBuffer
	info     *FileInfo
	language string
	log      logrus.FieldLogger

	// tileLat, tileLon the top left corner of the block in microdegrees.
	tileLat, tileLon int32

	// filter if set only POIs inside bounds and ways intersecting bounds are returned.
	filter bool
	bounds tile.BoundingBox
}

func (d *blockDecoder) decode(q *queryParameters, sf *SubFileParameters, sel selector, res *ReadResult) error {
	b := d.buf

	if d.info.DebugFile {
		if err := d.checkSignature(signatureBlock); err != nil {
			return err
		}
	}

	table := readZoomTable(b, sf)
	if b.err != nil {
		return b.err
	}

	row := int(q.queryZoomLevel) - int(sf.ZoomLevelMin)
	if row < 0 || row >= len(table) {
		return errors.CauseStr(ErrInvalidFile, "query zoom level is not in the zoom table")
	}
	poisOnZoom, waysOnZoom := table[row][0], table[row][1]

	firstWayOffset := int(b.readUnsignedInt())
	firstWayOffset += b.position()
	if b.err != nil || firstWayOffset > b.len() {
		return errors.CauseStr(ErrInvalidFile, "invalid first way offset")
	}

	if err := d.readPOIs(poisOnZoom, res); err != nil {
		return err
	}

	if sel == selectPOIs {
		return nil
	}

	if b.position() > firstWayOffset {
		return errors.CauseStr(ErrInvalidFile, "POI data overlaps way data")
	}
	b.setPosition(firstWayOffset)

	return d.readWays(q, waysOnZoom, res)
}

// readZoomTable reads the cumulative number of POIs and ways for each zoom level of the block.
func readZoomTable(b *readBuffer, sf *SubFileParameters) [][2]int {
	table := make([][2]int, sf.zoomRows())
	var pois, ways int
	for i := range table {
		pois += int(b.readUnsignedInt())
		ways += int(b.readUnsignedInt())
		table[i] = [2]int{pois, ways}
	}
	return table
}

func (d *blockDecoder) checkSignature(prefix string) error {
	sig, err := d.buf.readUTF8Len(signatureLength)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(sig, prefix) {
		return errors.CauseStr(ErrInvalidFile, "invalid signature "+strconv.Quote(strings.TrimRight(sig, " ")))
	}
	return nil
}

func (d *blockDecoder) readPOIs(count int, res *ReadResult) error {
	for i := 0; i < count; i++ {
		poi, err := d.readPOI()
		if err != nil {
			if d.buf.err != nil {
				return d.buf.err
			}
			// soft failure, only this POI is dropped
			d.log.WithError(err).WithField("poi", i).Warn("mapfile: dropping invalid POI")
			continue
		}

		if d.filter && !d.bounds.Contains(poi.Position) {
			continue
		}
		res.POIs = append(res.POIs, poi)
	}
	return nil
}

func (d *blockDecoder) readPOI() (poi PointOfInterest, err error) {
	b := d.buf

	if d.info.DebugFile {
		if err = d.checkSignature(signaturePOI); err != nil {
			return
		}
	}

	lat := d.tileLat + b.readSignedInt()
	lon := d.tileLon + b.readSignedInt()
	poi.Position = tile.FromMicrodegrees(lat, lon)

	special := b.readByte()
	poi.Layer = special >> 4

	// keep reading after an invalid tag so that the rest of the block stays aligned
	poi.Tags, err = d.readTags(d.info.POITags, int(special&0x0f))

	features := b.readByte()
	if features&poiFeatureName != 0 {
		if name, nErr := b.readUTF8(); nErr != nil {
			err = nErr
		} else {
			poi.Tags = append(poi.Tags, Tag{Key: tagName, Value: ExtractLanguage(name, d.language)})
		}
	}

	if features&poiFeatureHouseNumber != 0 {
		if hn, hErr := b.readUTF8(); hErr != nil {
			err = hErr
		} else {
			poi.Tags = append(poi.Tags, Tag{Key: tagHouseNumber, Value: hn})
		}
	}

	if features&poiFeatureElevation != 0 {
		poi.Tags = append(poi.Tags, Tag{Key: tagElevation, Value: strconv.Itoa(int(b.readSignedInt()))})
	}

	if b.err != nil {
		return poi, b.err
	}
	return poi, err
}

func (d *blockDecoder) readWays(q *queryParameters, count int, res *ReadResult) error {
	b := d.buf

	for i := 0; i < count; i++ {
		if d.info.DebugFile {
			if err := d.checkSignature(signatureWay); err != nil {
				return err
			}
		}

		size := int(b.readUnsignedInt())
		start := b.position()
		if b.err != nil || size < 0 || start+size > b.len() {
			return errors.CauseStr(ErrInvalidFile, "invalid way data size")
		}
		end := start + size

		bitmask := uint16(b.readShort())
		if q.useTileBitmask && q.queryTileBitmask&bitmask == 0 {
			b.setPosition(end)
			continue
		}

		ways, err := d.readWay()
		if err != nil {
			if b.err != nil {
				return b.err
			}
			d.log.WithError(err).WithField("way", i).Warn("mapfile: dropping invalid way")
			b.setPosition(end)
			continue
		}

		for j := range ways {
			if d.filter && !d.intersects(&ways[j]) {
				continue
			}
			res.Ways = append(res.Ways, ways[j])
		}
	}
	return nil
}

// intersects checks if the rings of the way overlap the query bounds.
func (d *blockDecoder) intersects(w *Way) bool {
	bbox, ok := w.BoundingBox()
	return ok && d.bounds.Intersects(bbox)
}

// readWay reads a single way record. Records with multiple data blocks produce one way per block.
func (d *blockDecoder) readWay() ([]Way, error) {
	b := d.buf

	special := b.readByte()
	layer := special >> 4

	tags, err := d.readTags(d.info.WayTags, int(special&0x0f))
	if err != nil {
		return nil, err
	}

	features := b.readByte()
	if features&wayFeatureName != 0 {
		name, err := b.readUTF8()
		if err != nil {
			return nil, err
		}
		tags = append(tags, Tag{Key: tagName, Value: ExtractLanguage(name, d.language)})
	}

	if features&wayFeatureHouseNumber != 0 {
		hn, err := b.readUTF8()
		if err != nil {
			return nil, err
		}
		tags = append(tags, Tag{Key: tagHouseNumber, Value: hn})
	}

	if features&wayFeatureRef != 0 {
		ref, err := b.readUTF8()
		if err != nil {
			return nil, err
		}
		tags = append(tags, Tag{Key: tagRef, Value: ref})
	}

	var label [2]int32
	hasLabel := features&wayFeatureLabelPosition != 0
	if hasLabel {
		label[0] = b.readSignedInt()
		label[1] = b.readSignedInt()
	}

	blocks := 1
	if features&wayFeatureDataBlocks != 0 {
		if blocks = int(b.readUnsignedInt()); blocks < 1 {
			return nil, errors.CauseStr(ErrInvalidFile, "invalid number of way data blocks")
		}
	}

	doubleDelta := features&wayFeatureDoubleEncoding != 0

	ways := make([]Way, 0, blocks)
	for i := 0; i < blocks; i++ {
		rings, first, err := d.readWayNodes(doubleDelta)
		if err != nil {
			return nil, err
		}

		w := Way{Layer: layer, Tags: tags, Rings: rings}
		if hasLabel {
			pos := tile.FromMicrodegrees(first[0]+label[0], first[1]+label[1])
			w.LabelPosition = &pos
		}
		ways = append(ways, w)
	}

	return ways, b.err
}

// readWayNodes reads the rings of a single way data block.
// first is the first node of the first ring in microdegrees.
func (d *blockDecoder) readWayNodes(doubleDelta bool) (rings [][]tile.LatLong, first [2]int32, err error) {
	b := d.buf

	count := int(b.readUnsignedInt())
	if b.err != nil {
		return nil, first, b.err
	}
	if count < 1 || count > maxWayRings {
		return nil, first, errors.CauseStr(ErrInvalidFile, "invalid number of way rings "+strconv.Itoa(count))
	}

	rings = make([][]tile.LatLong, count)
	for i := range rings {
		nodes := int(b.readUnsignedInt())
		if b.err != nil {
			return nil, first, b.err
		}
		if nodes < 2 || nodes > maxWayNodes {
			return nil, first, errors.CauseStr(ErrInvalidFile, "invalid number of way nodes "+strconv.Itoa(nodes))
		}

		coords := make([]int32, nodes*2)
		for j := range coords {
			coords[j] = b.readSignedInt()
		}
		if b.err != nil {
			return nil, first, b.err
		}

		// the first node is relative to the top left corner of the block
		coords[0] += d.tileLat
		coords[1] += d.tileLon

		if doubleDelta {
			coords = DoubleDeltaDecode(coords)
		} else {
			coords = DeltaDecode(coords)
		}

		if i == 0 {
			first = [2]int32{coords[0], coords[1]}
		}

		ring := make([]tile.LatLong, nodes)
		for j := range ring {
			ring[j] = tile.FromMicrodegrees(coords[j*2], coords[j*2+1])
		}
		rings[i] = ring
	}
	return rings, first, nil
}

// readTags reads n tag ids and resolves them using dict.
// Tags with a wildcard value read their value from the record after all tag ids.
// An id outside the dictionary returns ErrInvalidTag after the remaining tags are read.
func (d *blockDecoder) readTags(dict []Tag, n int) ([]Tag, error) {
	b := d.buf
	tags := make([]Tag, 0, n)

	var err error
	for i := 0; i < n; i++ {
		id := b.readUnsignedInt()
		if int64(id) >= int64(len(dict)) {
			err = errors.CauseStr(ErrInvalidTag, "tag id "+strconv.FormatUint(uint64(id), 10))
			continue
		}
		tags = append(tags, dict[id])
	}

	for i, tag := range tags {
		if len(tag.Value) != 2 || tag.Value[0] != '%' {
			continue
		}

		switch tag.Value[1] {
		case 'b':
			tags[i].Value = strconv.Itoa(int(b.readInt8()))
		case 'h':
			tags[i].Value = strconv.Itoa(int(b.readShort()))
		case 'i':
			v := b.readInt()
			if strings.Contains(tag.Key, ":colour") {
				tags[i].Value = "#" + strconv.FormatUint(uint64(uint32(v)), 16)
			} else {
				tags[i].Value = strconv.Itoa(int(v))
			}
		case 'f':
			tags[i].Value = strconv.FormatFloat(float64(math.Float32frombits(uint32(b.readInt()))), 'f', -1, 32)
		case 's':
			s, sErr := b.readUTF8()
			if sErr != nil {
				err = sErr
			}
			tags[i].Value = s
		}
	}

	if b.err != nil {
		return nil, b.err
	}
	return tags, err
}
