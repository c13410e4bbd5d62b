package tile

import "math"

// MercatorLatitudeMax the highest latitude that can be shown in the mercator projection.
const MercatorLatitudeMax = 85.05112877980659

// maptileZoomMax the highest zoom level orb/maptile can represent.
const maptileZoomMax = 31

// tileCount returns the number of tiles on either axis at the given zoom level.
// This does not overflow for any zoom level.
func tileCount(zoom uint8) float64 { return math.Ldexp(1, int(zoom)) }

// MapSize returns the width and height of the whole map in pixels at the given zoom level.
func MapSize(zoom uint8, tileSize int) float64 {
	return float64(tileSize) * tileCount(zoom)
}

// LongitudeToPixelX converts a longitude to an absolute pixel x coordinate.
func LongitudeToPixelX(lon float64, mapSize float64) float64 {
	return (lon + 180) / 360 * mapSize
}

// LatitudeToPixelY converts a latitude to an absolute pixel y coordinate.
// The result is clamped to the map.
func LatitudeToPixelY(lat float64, mapSize float64) float64 {
	sinLat := math.Sin(lat * (math.Pi / 180))
	y := (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * mapSize
	return math.Min(math.Max(0, y), mapSize)
}

// PixelXToLongitude converts an absolute pixel x coordinate to a longitude.
func PixelXToLongitude(x float64, mapSize float64) float64 {
	return 360*(x/mapSize) - 180
}

// PixelYToLatitude converts an absolute pixel y coordinate to a latitude.
func PixelYToLatitude(y float64, mapSize float64) float64 {
	return 90 - 360*math.Atan(math.Exp((y/mapSize-0.5)*2*math.Pi))/math.Pi
}

// LongitudeToTileX converts a longitude to the x number of the tile containing it.
func LongitudeToTileX(lon float64, zoom uint8) int {
	return clampTile(math.Floor((lon+180)/360*tileCount(zoom)), zoom)
}

// LatitudeToTileY converts a latitude to the y number of the tile containing it.
func LatitudeToTileY(lat float64, zoom uint8) int {
	lat = math.Min(math.Max(lat, -MercatorLatitudeMax), MercatorLatitudeMax)
	sinLat := math.Sin(lat * (math.Pi / 180))
	return clampTile(math.Floor((0.5-math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi))*tileCount(zoom)), zoom)
}

// TileXToLongitude converts a tile x number to the longitude of its left edge.
func TileXToLongitude(x int, zoom uint8) float64 {
	return float64(x)/tileCount(zoom)*360 - 180
}

// TileYToLatitude converts a tile y number to the latitude of its top edge.
func TileYToLatitude(y int, zoom uint8) float64 {
	n := math.Pi - 2*math.Pi*float64(y)/tileCount(zoom)
	return 180 / math.Pi * math.Atan(math.Sinh(n))
}

// At returns the tile containing the given coordinate.
func At(l LatLong, zoom uint8, tileSize int) Tile {
	return New(LongitudeToTileX(l.Longitude, zoom), LatitudeToTileY(l.Latitude, zoom), zoom, tileSize)
}

// clampTile converts v to a tile number within the bounds of the zoom level.
// The comparison is done before the conversion so that zoom levels beyond the
// range of int cannot overflow.
func clampTile(v float64, zoom uint8) int {
	if v < 0 {
		return 0
	}
	if max := MaxTileNumber(zoom); v >= float64(max) {
		return max
	}
	return int(v)
}
