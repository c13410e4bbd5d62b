package mapfile

import (
	"testing"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/yehan2002/is/v2"
)

func TestMulti(t *testing.T) { is.SuiteP(t, &multiTest{}) }

type multiTest struct{}

func (*multiTest) TestDuplicate(is is.Is) {
	m := openTestFile(is, newSquareFile())
	mm := NewMultiMapFile(ReturnAll)
	defer mm.Close()

	is(mm.Add(m) == nil, "unexpected error")
	is.Err(mm.Add(m), ErrDuplicateFile, "adding a file twice should fail")
}

func (*multiTest) TestPolicies(is is.Is) {
	tests := []struct {
		policy DataPolicy
		ways   int
	}{
		{ReturnAll, 2},
		{ReturnFirst, 1},
		{Deduplicate, 1},
	}

	for _, tt := range tests {
		mm := NewMultiMapFile(tt.policy)
		is(mm.Add(openTestFile(is, newSquareFile())) == nil, "unexpected error")
		is(mm.Add(openTestFile(is, newSquareFile())) == nil, "unexpected error")

		res, ok := mm.Read(testTile)
		is(ok, "read failed")
		is(len(res.Ways) == tt.ways, "expected %d ways for policy %d, got %d", tt.ways, tt.policy, len(res.Ways))
		mm.Close()
	}
}

func (*multiTest) TestBoundingBox(is is.Is) {
	other := newSquareFile()
	other.bbox = [4]int32{-100000, -100000, 50000, 50000}

	mm := NewMultiMapFile(ReturnAll)
	defer mm.Close()
	is(mm.Add(openTestFile(is, newSquareFile())) == nil, "unexpected error")
	is(mm.Add(openTestFile(is, other)) == nil, "unexpected error")

	expected := tile.BoundingBox{MinLatitude: -0.1, MinLongitude: -0.1, MaxLatitude: 0.1, MaxLongitude: 0.1}
	is.Equal(mm.BoundingBox(), expected, "incorrect bounding box")

	far := tile.At(tile.LatLong{Latitude: 40, Longitude: 40}, 12, 256)
	is(!mm.Supports(far), "no file covers the tile")

	res, ok := mm.Read(far)
	is(ok && res.Empty() && !res.IsWater, "tiles outside every file should be empty")
}

func (*multiTest) TestWater(is is.Is) {
	water := newTestFile()
	water.subFiles[0].water = map[int64]bool{0: true, 1: true}

	land := newSquareFile()

	mm := NewMultiMapFile(ReturnAll)
	defer mm.Close()
	is(mm.Add(openTestFile(is, water)) == nil, "unexpected error")

	res, ok := mm.Read(testTile)
	is(ok && res.IsWater, "tile should be water")

	is(mm.Add(openTestFile(is, land)) == nil, "unexpected error")
	res, ok = mm.Read(testTile)
	is(ok && !res.IsWater, "water is combined with AND")
	is(len(res.Ways) == 1, "data should be merged")

	pois, ok := mm.ReadPOIs(testTile)
	is(ok && len(pois.Ways) == 0, "ReadPOIs should not return ways")
}

func (*multiTest) TestFailedFile(is is.Is) {
	closed := openTestFile(is, newSquareFile())
	closed.Close()

	mm := NewMultiMapFile(ReturnAll)
	is(mm.Add(closed) == nil, "unexpected error")

	_, ok := mm.Read(testTile)
	is(!ok, "reads should fail if every file failed")

	is(mm.Add(openTestFile(is, newSquareFile())) == nil, "unexpected error")
	res, ok := mm.Read(testTile)
	is(ok && len(res.Ways) == 1, "failed files should be skipped")
}
