package mapfile

import (
	"strings"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/paulmach/orb"
)

// Tag a key value pair attached to a POI or a way.
type Tag struct {
	Key   string
	Value string
}

// NewTag parses a tag stored as "key=value".
// Everything after the first '=' is part of the value.
func NewTag(s string) Tag {
	if i := strings.IndexByte(s, '='); i >= 0 {
		return Tag{Key: s[:i], Value: s[i+1:]}
	}
	return Tag{Key: s}
}

func (t Tag) String() string { return t.Key + "=" + t.Value }

func tagsEqual(a, b []Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// layerOffset the value added to the OSM layer before it is stored in the file.
const layerOffset = 5

// PointOfInterest a single point on the map.
type PointOfInterest struct {
	// Layer the layer as stored in the file (OSM layer + 5).
	Layer    uint8
	Tags     []Tag
	Position tile.LatLong
}

// OSMLayer returns the OSM layer of the POI.
func (p *PointOfInterest) OSMLayer() int { return int(p.Layer) - layerOffset }

// Equal checks if both POIs have the same layer, tags and position.
func (p *PointOfInterest) Equal(o *PointOfInterest) bool {
	return p.Layer == o.Layer && p.Position == o.Position && tagsEqual(p.Tags, o.Tags)
}

// Way a line or an area on the map.
// The first ring of an area is the outer ring, every other ring is an inner ring.
type Way struct {
	// Layer the layer as stored in the file (OSM layer + 5).
	Layer uint8
	Tags  []Tag
	Rings [][]tile.LatLong
	// LabelPosition the position of the label. nil if the way does not have one.
	LabelPosition *tile.LatLong
}

// OSMLayer returns the OSM layer of the way.
func (w *Way) OSMLayer() int { return int(w.Layer) - layerOffset }

// Equal checks if both ways have the same layer, tags, label position and geometry.
// Tags are compared in order.
func (w *Way) Equal(o *Way) bool {
	if w.Layer != o.Layer || !tagsEqual(w.Tags, o.Tags) || len(w.Rings) != len(o.Rings) {
		return false
	}

	if (w.LabelPosition == nil) != (o.LabelPosition == nil) ||
		(w.LabelPosition != nil && *w.LabelPosition != *o.LabelPosition) {
		return false
	}

	for i, ring := range w.Rings {
		if len(ring) != len(o.Rings[i]) {
			return false
		}
		for j := range ring {
			if ring[j] != o.Rings[i][j] {
				return false
			}
		}
	}
	return true
}

// Closed returns if the first ring of the way starts and ends at the same point.
func (w *Way) Closed() bool {
	if len(w.Rings) == 0 || len(w.Rings[0]) < 2 {
		return false
	}
	ring := w.Rings[0]
	return ring[0] == ring[len(ring)-1]
}

// BoundingBox returns the area covered by the rings of the way.
// ok is false if the way has no nodes.
func (w *Way) BoundingBox() (b tile.BoundingBox, ok bool) {
	var bound orb.Bound
	for _, ring := range w.Rings {
		for _, l := range ring {
			if !ok {
				bound, ok = l.Point().Bound(), true
				continue
			}
			bound = bound.Extend(l.Point())
		}
	}
	return tile.FromBound(bound), ok
}

// ReadResult the data read for a tile.
type ReadResult struct {
	POIs []PointOfInterest
	Ways []Way
	// IsWater true if every block covering the tile is marked as water.
	IsWater bool
}

// Add appends the POIs and ways of o to r.
// If deduplicate is set, elements already in r are not added again.
func (r *ReadResult) Add(o *ReadResult, deduplicate bool) {
	if !deduplicate {
		r.POIs = append(r.POIs, o.POIs...)
		r.Ways = append(r.Ways, o.Ways...)
		return
	}

pois:
	for i := range o.POIs {
		for j := range r.POIs {
			if r.POIs[j].Equal(&o.POIs[i]) {
				continue pois
			}
		}
		r.POIs = append(r.POIs, o.POIs[i])
	}

ways:
	for i := range o.Ways {
		for j := range r.Ways {
			if r.Ways[j].Equal(&o.Ways[i]) {
				continue ways
			}
		}
		r.Ways = append(r.Ways, o.Ways[i])
	}
}

// Empty returns if the result has no POIs and no ways.
func (r *ReadResult) Empty() bool { return len(r.POIs) == 0 && len(r.Ways) == 0 }
