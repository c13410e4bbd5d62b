package worker

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/FireworkMC/mapsforge/cache"
	"github.com/FireworkMC/mapsforge/mapfile"
	"github.com/FireworkMC/mapsforge/tile"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/yehan2002/errors"
)

// Producer creates the artifact for a job.
// The returned artifact must have a reference count of 0.
type Producer interface {
	Produce(ctx context.Context, job tile.Job) (cache.Artifact, error)
}

// ProducerFunc a function that implements Producer.
type ProducerFunc func(ctx context.Context, job tile.Job) (cache.Artifact, error)

// Produce calls f.
func (f ProducerFunc) Produce(ctx context.Context, job tile.Job) (cache.Artifact, error) {
	return f(ctx, job)
}

// Source a map data source. This is implemented by mapfile.MapFile and mapfile.MultiMapFile.
type Source interface {
	Read(t tile.Tile) (*mapfile.ReadResult, bool)
}

var _ Source = &mapfile.MapFile{}
var _ Source = &mapfile.MultiMapFile{}

// MapFileProducer produces GeoJSON feature collections from a map data source.
type MapFileProducer struct {
	Source Source
}

// Produce reads the tile from the source and encodes it as GeoJSON.
func (m *MapFileProducer) Produce(ctx context.Context, job tile.Job) (cache.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, ok := m.Source.Read(job.Tile)
	if !ok {
		return nil, errors.CauseStr(ErrNoData, job.Tile.String())
	}

	b, err := EncodeGeoJSON(res)
	if err != nil {
		return nil, err
	}
	return cache.NewPayload(b), nil
}

// EncodeGeoJSON encodes the result as a GeoJSON feature collection.
// POIs are encoded as points. Closed ways are encoded as polygons with the first ring as the outer ring,
// open ways as line strings.
func EncodeGeoJSON(res *mapfile.ReadResult) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{"water": res.IsWater}

	for _, poi := range res.POIs {
		f := geojson.NewFeature(poi.Position.Point())
		setProperties(f, poi.Tags, poi.OSMLayer())
		fc.Append(f)
	}

	for i := range res.Ways {
		way := &res.Ways[i]
		f := geojson.NewFeature(wayGeometry(way))
		setProperties(f, way.Tags, way.OSMLayer())
		if way.LabelPosition != nil {
			f.Properties["label"] = []float64{way.LabelPosition.Longitude, way.LabelPosition.Latitude}
		}
		fc.Append(f)
	}

	b, err := fc.MarshalJSON()
	return b, errors.Wrap("worker: unable to encode geojson", err)
}

func setProperties(f *geojson.Feature, tags []mapfile.Tag, layer int) {
	for _, t := range tags {
		f.Properties[t.Key] = t.Value
	}
	f.Properties["layer"] = layer
}

func wayGeometry(way *mapfile.Way) orb.Geometry {
	rings := make([]orb.LineString, len(way.Rings))
	for i, r := range way.Rings {
		ls := make(orb.LineString, len(r))
		for j, l := range r {
			ls[j] = l.Point()
		}
		rings[i] = ls
	}

	if way.Closed() {
		poly := make(orb.Polygon, len(rings))
		for i, r := range rings {
			poly[i] = orb.Ring(r)
		}
		return poly
	}

	if len(rings) == 1 {
		return rings[0]
	}
	return orb.MultiLineString(rings)
}

// DownloadProducer downloads tiles from a tile server.
type DownloadProducer struct {
	// URL the url template. {z}, {x} and {y} are replaced with the tile coordinates.
	URL string
	// UserAgent the user agent sent to the server.
	UserAgent string
	// Client Default: http.DefaultClient
	Client *http.Client
}

// Produce downloads the tile.
func (d *DownloadProducer) Produce(ctx context.Context, job tile.Job) (cache.Artifact, error) {
	url := strings.NewReplacer(
		"{z}", strconv.Itoa(int(job.Tile.ZoomLevel)),
		"{x}", strconv.Itoa(job.Tile.X),
		"{y}", strconv.Itoa(job.Tile.Y),
	).Replace(d.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap("worker: invalid url", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap("worker: unable to download tile", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.CauseStr(ErrDownload, url+": "+resp.Status)
	}

	p, err := cache.ReadPayload(resp.Body)
	if err != nil {
		return nil, errors.Wrap("worker: unable to read response", err)
	}
	return p, nil
}
