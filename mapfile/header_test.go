package mapfile

import (
	"bytes"
	"testing"
	"time"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/yehan2002/is/v2"
)

func TestHeader(t *testing.T) { is.SuiteP(t, &headerTest{}) }

type headerTest struct{}

func newHeaderFile() *testFile {
	startZoom := uint8(16)
	return &testFile{
		version:       3,
		date:          1335871456973,
		bbox:          [4]int32{100000, 200000, 300000, 400000},
		tileSize:      256,
		startPosition: &[2]int32{150000, 250000},
		startZoom:     &startZoom,
		languages:     "en",
		comment:       "testcomment",
		createdBy:     "mapsforge-map-writer-0.3.1-SNAPSHOT",
		poiTags:       []string{"amenity=cafe"},
		wayTags:       []string{"highway=primary", "building=yes"},
		subFiles: []testSubFile{
			{base: 5, zoomMin: 0, zoomMax: 7},
			{base: 10, zoomMin: 8, zoomMax: 11},
			{base: 14, zoomMin: 12, zoomMax: 21},
		},
	}
}

func (*headerTest) TestFileInfo(is is.Is) {
	f := newHeaderFile()
	data := f.bytes()

	m := openTestFile(is, f)
	defer m.Close()

	expected := FileInfo{
		BoundingBox:         tile.BoundingBox{MinLatitude: 0.1, MinLongitude: 0.2, MaxLatitude: 0.3, MaxLongitude: 0.4},
		Comment:             "testcomment",
		CreatedBy:           "mapsforge-map-writer-0.3.1-SNAPSHOT",
		FileSize:            int64(len(data)),
		FileVersion:         3,
		LanguagesPreference: "en",
		MapDate:             time.UnixMilli(1335871456973).UTC(),
		NumberOfSubFiles:    3,
		POITags:             []Tag{{"amenity", "cafe"}},
		ProjectionName:      "Mercator",
		StartPosition:       tile.LatLong{Latitude: 0.15, Longitude: 0.25},
		HasStartPosition:    true,
		StartZoomLevel:      16,
		HasStartZoomLevel:   true,
		TilePixelSize:       256,
		WayTags:             []Tag{{"highway", "primary"}, {"building", "yes"}},
		ZoomLevelMin:        0,
		ZoomLevelMax:        21,
	}

	info := m.Info()
	is(cmp.Equal(info, expected), "incorrect file info: %s", cmp.Diff(expected, info))
	is.Equal(info.Languages(), []string{"en"}, "incorrect languages")
}

func (*headerTest) TestSubFiles(is is.Is) {
	f := newHeaderFile()
	m := openTestFile(is, f)
	defer m.Close()

	subFiles := m.SubFiles()
	is(len(subFiles) == 3, "incorrect number of sub-files")

	for i, sf := range subFiles {
		expected := f.subFiles[i]
		is(sf.BaseZoomLevel == expected.base, "incorrect base zoom level for sub-file %d", i)
		is(sf.ZoomLevelMin == expected.zoomMin && sf.ZoomLevelMax == expected.zoomMax, "incorrect zoom levels for sub-file %d", i)
		is(sf.IndexStartAddress == sf.StartAddress, "index should start at the start of the sub-file")
		is(sf.IndexEndAddress == sf.IndexStartAddress+sf.NumberOfBlocks*indexEntrySize, "incorrect index end")
		is(sf.NumberOfBlocks == sf.BlocksWidth*sf.BlocksHeight, "incorrect number of blocks")
		is(sf.StartAddress+sf.SubFileSize <= m.Info().FileSize, "sub-file %d is outside the file", i)
	}

	for zoom := 0; zoom <= 30; zoom++ {
		sf := m.header.subFile(uint8(zoom))
		var expected uint8
		switch {
		case zoom <= 7:
			expected = 5
		case zoom <= 11:
			expected = 10
		default:
			expected = 14
		}
		is(sf.BaseZoomLevel == expected, "incorrect sub-file for zoom level %d", zoom)
	}
}

func (*headerTest) TestZoomGap(is is.Is) {
	f := newHeaderFile()
	f.subFiles = []testSubFile{{base: 3, zoomMin: 2, zoomMax: 5}, {base: 12, zoomMin: 10, zoomMax: 14}}

	m := openTestFile(is, f)
	defer m.Close()

	is(m.Info().ZoomLevelMin == 2 && m.Info().ZoomLevelMax == 14, "incorrect zoom range")
	is(m.header.subFile(0).BaseZoomLevel == 3, "zoom levels below the minimum should use the first sub-file")
	is(m.header.subFile(7).BaseZoomLevel == 12, "zoom levels in a gap should use the next sub-file")
	is(m.header.subFile(20).BaseZoomLevel == 12, "zoom levels above the maximum should use the last sub-file")
}

func (*headerTest) TestDebugFile(is is.Is) {
	f := newHeaderFile()
	f.debug = true

	m := openTestFile(is, f)
	defer m.Close()

	is(m.Info().DebugFile, "debug flag not set")
	for _, sf := range m.SubFiles() {
		is(sf.IndexStartAddress == sf.StartAddress+indexSignatureLength, "index signature was not skipped")
	}
}

func (*headerTest) TestInvalid(is is.Is) {
	tests := []struct {
		name   string
		modify func(f *testFile)
	}{
		{"magic", func(f *testFile) { f.magic = "mapsforge binary XXX" }},
		{"version too old", func(f *testFile) { f.version = 2 }},
		{"version too new", func(f *testFile) { f.version = 6 }},
		{"file size", func(f *testFile) { f.sizeDelta = 1 }},
		{"map date", func(f *testFile) { f.date = 1000 }},
		{"bounding box", func(f *testFile) { f.bbox = [4]int32{300000, 200000, 100000, 400000} }},
		{"projection", func(f *testFile) { f.projection = "Albers" }},
		{"start zoom", func(f *testFile) { z := uint8(23); f.startZoom = &z }},
		{"start position", func(f *testFile) { f.startPosition = &[2]int32{95000000, 0} }},
		{"no sub-files", func(f *testFile) { f.subFiles = nil }},
		{"base zoom", func(f *testFile) { f.subFiles[0].base = 21 }},
		{"zoom min", func(f *testFile) { f.subFiles[0].zoomMin = 23 }},
		{"zoom max", func(f *testFile) { f.subFiles[2].zoomMax = 23 }},
		{"zoom min greater than max", func(f *testFile) { f.subFiles[1].zoomMin, f.subFiles[1].zoomMax = 11, 8 }},
		{"start address before header", func(f *testFile) { f.subFiles[0].startOverride = 10 }},
		{"start address after file", func(f *testFile) { f.subFiles[0].startOverride = 1 << 40 }},
		{"sub-file size", func(f *testFile) { f.subFiles[0].sizeOverride = -1 }},
	}

	for _, tt := range tests {
		f := newHeaderFile()
		tt.modify(f)
		data := f.bytes()

		_, err := New(newNopCloser(data), int64(len(data)))
		is.Err(err, ErrInvalidFile, "expected an invalid file error for %s", tt.name)
	}

	_, err := New(newNopCloser([]byte("mapsforge")), 9)
	is.Err(err, ErrInvalidFile, "files smaller than the header should be invalid")
}

func (*headerTest) TestMaxBufferSize(is is.Is) {
	data := newHeaderFile().bytes()
	_, err := New(newNopCloser(data), int64(len(data)), Settings{MaxBufferSize: 50})
	is.Err(err, ErrInvalidFile, "headers larger than the buffer should be rejected")
}

func (*headerTest) TestOpenMissing(is is.Is) {
	fs := writeTestFile(is, newHeaderFile())
	_, err := Open("missing.map", Settings{Fs: fs})
	is(err != nil, "opening a missing file should fail")
}

type nopCloser struct{ *bytes.Reader }

func newNopCloser(data []byte) *nopCloser { return &nopCloser{bytes.NewReader(data)} }

func (n *nopCloser) Close() error { return nil }
