package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/FireworkMC/mapsforge/cache"
	"github.com/FireworkMC/mapsforge/tile"
	"github.com/FireworkMC/mapsforge/worker"
	"github.com/google/hilbert"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
)

type exportCmd struct {
	inputPath  string
	outputPath string
	zoomMin    uint
	zoomMax    uint
	compress   string
}

func (c *exportCmd) Name() string     { return "export" }
func (c *exportCmd) Synopsis() string { return "export tiles as geojson into a tile store" }
func (c *exportCmd) Usage() string {
	return "mapsforge export -i <path>[,<path>...] -o <dir> [-zmin <zoom> -zmax <zoom> -c <method>]\n"
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map files, comma separated")
	f.StringVar(&c.outputPath, "o", "", "Output directory")
	f.UintVar(&c.zoomMin, "zmin", 0, "Lowest zoom level")
	f.UintVar(&c.zoomMax, "zmax", 10, "Highest zoom level")
	f.StringVar(&c.compress, "c", cache.DefaultCompression.String(), "Compression method (gzip, zlib, zstd, none)")
}

// tilesInOrder returns the tiles covering the bounding box at the given zoom level in hilbert curve order.
func tilesInOrder(bbox tile.BoundingBox, zoom uint8) ([]tile.Tile, error) {
	ul := tile.At(tile.LatLong{Latitude: bbox.MaxLatitude, Longitude: bbox.MinLongitude}, zoom, 256)
	lr := tile.At(tile.LatLong{Latitude: bbox.MinLatitude, Longitude: bbox.MaxLongitude}, zoom, 256)

	h, err := hilbert.NewHilbert(1 << zoom)
	if err != nil {
		return nil, err
	}

	type entry struct {
		t tile.Tile
		d int
	}
	entries := make([]entry, 0, (lr.X-ul.X+1)*(lr.Y-ul.Y+1))
	for x := ul.X; x <= lr.X; x++ {
		for y := ul.Y; y <= lr.Y; y++ {
			d, err := h.MapInverse(x, y)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{tile.New(x, y, zoom, 256), d})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].d < entries[j].d })

	tiles := make([]tile.Tile, len(entries))
	for i, e := range entries {
		tiles[i] = e.t
	}
	return tiles, nil
}

func (c *exportCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()

	if c.outputPath == "" || c.zoomMin > c.zoomMax || c.zoomMax > 22 {
		fmt.Print(c.Usage())
		return subcommands.ExitUsageError
	}

	method, err := cache.ParseCompressMethod(c.compress)
	if err != nil {
		log.WithError(err).Error("invalid compression method")
		return subcommands.ExitUsageError
	}

	mm, err := openMapFiles(c.inputPath, log)
	if err != nil {
		log.WithError(err).Error("unable to open map files")
		return subcommands.ExitFailure
	}
	defer mm.Close()

	fs := afero.NewOsFs()
	if err = fs.MkdirAll(c.outputPath, 0755); err != nil {
		log.WithError(err).Error("unable to create output directory")
		return subcommands.ExitFailure
	}
	w := cache.NewStoreWriter(cache.StoreSettings{Fs: fs, Root: c.outputPath, Compression: method, Logger: log})

	var tiles []tile.Tile
	for z := c.zoomMin; z <= c.zoomMax; z++ {
		zt, err := tilesInOrder(mm.BoundingBox(), uint8(z))
		if err != nil {
			log.WithError(err).Error("unable to enumerate tiles")
			return subcommands.ExitFailure
		}
		tiles = append(tiles, zt...)
	}

	bar := progressbar.NewOptions(len(tiles), progressbar.OptionShowIts(), progressbar.OptionShowCount())
	failed := 0
	for _, t := range tiles {
		bar.Add(1)

		res, ok := mm.Read(t)
		if !ok {
			failed++
			continue
		}
		if res.Empty() && !res.IsWater {
			continue
		}

		b, err := worker.EncodeGeoJSON(res)
		if err == nil {
			err = w.Write(tile.NewJob(t, false), b)
		}
		if err != nil {
			log.WithError(err).WithField("tile", t).Error("unable to export tile")
			return subcommands.ExitFailure
		}
	}
	bar.Finish()
	fmt.Println()

	if failed != 0 {
		log.WithField("tiles", failed).Warn("some tiles could not be read")
	}
	return subcommands.ExitSuccess
}
