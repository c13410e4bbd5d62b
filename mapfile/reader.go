// Package mapfile reads binary map files.
//
// A map file contains one or more sub-files, each covering a range of zoom levels.
// Every sub-file has an index that maps the tiles at its base zoom level to blocks
// containing the POIs and ways of that tile.
package mapfile

import (
	"io"
	"sync"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/sirupsen/logrus"
	"github.com/yehan2002/errors"
)

// ReadAtCloser an interface that implements io.ReadAt and io.Closer
type ReadAtCloser interface {
	io.ReaderAt
	io.Closer
}

// MapFile a binary map file.
// MapFile is safe for concurrent use, reads are serialized.
type MapFile struct {
	header *header
	r      ReadAtCloser
	buf    *readBuffer
	index  *indexCache

	settings Settings
	log      logrus.FieldLogger

	mux    sync.Mutex
	closed bool
}

// Open opens the map file at the given path.
// The file is opened from Settings.Fs.
func Open(path string, opt ...Settings) (m *MapFile, err error) {
	settings := getSettings(opt)

	r, size, err := openFile(settings.Fs, path)
	if err != nil {
		return nil, err
	}

	if m, err = New(r, size, settings); err != nil {
		r.Close()
		return nil, err
	}
	return m, nil
}

// New reads a map file from r.
// size must be the size of the file in bytes.
// The returned MapFile closes r when it is closed.
func New(r ReadAtCloser, size int64, opt ...Settings) (m *MapFile, err error) {
	settings := getSettings(opt)

	m = &MapFile{r: r, settings: settings, log: settings.Logger}
	m.buf = newReadBuffer(r, settings.MaxBufferSize, settings.Logger)

	if m.header, err = readHeader(m.buf, size); err != nil {
		return nil, err
	}

	if m.index, err = newIndexCache(r, settings.IndexCacheSize); err != nil {
		return nil, errors.Wrap("mapfile: unable to create index cache", err)
	}
	return m, nil
}

// Info returns the metadata of the file.
func (m *MapFile) Info() FileInfo { return m.header.info }

// BoundingBox returns the area covered by the file.
func (m *MapFile) BoundingBox() tile.BoundingBox { return m.header.info.BoundingBox }

// SubFiles returns the sub-files of the map file.
func (m *MapFile) SubFiles() []SubFileParameters {
	s := make([]SubFileParameters, len(m.header.subFiles))
	for i, sf := range m.header.subFiles {
		s[i] = *sf
	}
	return s
}

// Supports checks if the file contains data for the given tile.
func (m *MapFile) Supports(t tile.Tile) bool {
	return m.header.info.BoundingBox.Intersects(t.BoundingBox())
}

// Read reads the POIs and ways for the given tile.
// Tiles outside the file return an empty result.
// ok is false if the data could not be read. The failure is logged and the read can be retried.
func (m *MapFile) Read(t tile.Tile) (res *ReadResult, ok bool) {
	return m.read(t, t, selectAll)
}

// ReadPOIs reads the POIs for the given tile.
func (m *MapFile) ReadPOIs(t tile.Tile) (res *ReadResult, ok bool) {
	return m.read(t, t, selectPOIs)
}

// ReadArea reads the POIs and ways of every tile from upperLeft to lowerRight.
// Both tiles must have the same zoom level.
func (m *MapFile) ReadArea(upperLeft, lowerRight tile.Tile) (res *ReadResult, ok bool) {
	if upperLeft.ZoomLevel != lowerRight.ZoomLevel || upperLeft.X > lowerRight.X || upperLeft.Y > lowerRight.Y {
		m.log.WithFields(logrus.Fields{"upperLeft": upperLeft, "lowerRight": lowerRight}).
			Warn("mapfile: invalid tile area")
		return nil, false
	}
	return m.read(upperLeft, lowerRight, selectAll)
}

func (m *MapFile) read(upperLeft, lowerRight tile.Tile, sel selector) (*ReadResult, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()

	log := m.log.WithField("tile", upperLeft)
	if m.closed {
		log.Warn("mapfile: read from closed file")
		return nil, false
	}

	res := &ReadResult{}

	area := upperLeft.BoundingBox()
	if upperLeft != lowerRight {
		lr := lowerRight.BoundingBox()
		area.MinLatitude, area.MaxLongitude = lr.MinLatitude, lr.MaxLongitude
	}
	if !m.header.info.BoundingBox.Intersects(area) {
		return res, true
	}

	q := queryParameters{queryZoomLevel: m.header.queryZoomLevel(upperLeft.ZoomLevel)}
	sf := m.header.subFile(q.queryZoomLevel)
	if sf == nil {
		log.Warn("mapfile: no sub-file for zoom level")
		return nil, false
	}

	q.calculateBaseTiles(upperLeft, lowerRight, sf)
	if !q.intersects(sf) {
		return res, true
	}
	q.calculateBlocks(sf)

	d := blockDecoder{
		buf:      m.buf,
		info:     &m.header.info,
		language: m.settings.PreferredLanguage,
		log:      log,
		filter:   upperLeft.ZoomLevel > sf.BaseZoomLevel,
	}
	if d.filter {
		d.bounds = area
	}

	if err := m.processBlocks(&d, &q, sf, sel, res); err != nil {
		log.WithError(err).WithField("subfile", sf.id).Warn("mapfile: unable to read tile")
		return nil, false
	}
	return res, true
}

func (m *MapFile) processBlocks(d *blockDecoder, q *queryParameters, sf *SubFileParameters, sel selector, res *ReadResult) error {
	isWater, readWater := true, false

	for row := q.fromBlockY; row <= q.toBlockY; row++ {
		for col := q.fromBlockX; col <= q.toBlockX; col++ {
			block := row*sf.BlocksWidth + col

			entry, err := m.index.entry(sf, block)
			if err != nil {
				return err
			}

			isWater = isWater && entry&bitmaskIndexWater != 0
			readWater = true

			pointer := int64(entry & bitmaskIndexOffset)
			if pointer < 1 || pointer > sf.SubFileSize {
				return errors.CauseStr(ErrInvalidFile, "invalid block pointer")
			}

			next := sf.SubFileSize
			if block+1 < sf.NumberOfBlocks {
				nextEntry, err := m.index.entry(sf, block+1)
				if err != nil {
					return err
				}
				if next = int64(nextEntry & bitmaskIndexOffset); next > sf.SubFileSize {
					return errors.CauseStr(ErrInvalidFile, "invalid next block pointer")
				}
			}

			size := next - pointer
			if size < 0 {
				return errors.CauseStr(ErrInvalidFile, "invalid block size")
			} else if size == 0 {
				// empty block
				continue
			}

			ok, err := m.buf.fill(sf.StartAddress+pointer, int(size))
			if err != nil {
				return err
			} else if !ok {
				continue
			}

			d.tileLat = tile.DegreesToMicrodegrees(tile.TileYToLatitude(sf.BoundaryTileTop+int(row), sf.BaseZoomLevel))
			d.tileLon = tile.DegreesToMicrodegrees(tile.TileXToLongitude(sf.BoundaryTileLeft+int(col), sf.BaseZoomLevel))

			var blockRes ReadResult
			if err := d.decode(q, sf, sel, &blockRes); err != nil {
				// a corrupted block only affects itself
				d.log.WithError(err).WithFields(logrus.Fields{"subfile": sf.id, "block": block}).
					Warn("mapfile: dropping corrupted block")
				continue
			}
			res.Add(&blockRes, false)
		}
	}

	res.IsWater = isWater && readWater
	return nil
}

// Close closes the underlying file.
func (m *MapFile) Close() error {
	m.mux.Lock()
	defer m.mux.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.index.purge()
	return m.r.Close()
}
