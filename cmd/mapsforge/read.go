package main

import (
	"context"
	"flag"
	"os"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/FireworkMC/mapsforge/worker"
	"github.com/google/subcommands"
)

type readCmd struct {
	inputPath string
	zoom      uint
	x, y      int
	lat, lon  float64
	poisOnly  bool
}

func (c *readCmd) Name() string     { return "read" }
func (c *readCmd) Synopsis() string { return "print a tile as geojson" }
func (c *readCmd) Usage() string {
	return "mapsforge read -i <path>[,<path>...] -z <zoom> (-x <x> -y <y> | -lat <lat> -lon <lon>) [-pois]\n"
}
func (c *readCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map files, comma separated")
	f.UintVar(&c.zoom, "z", 14, "Zoom level")
	f.IntVar(&c.x, "x", -1, "Tile x")
	f.IntVar(&c.y, "y", -1, "Tile y")
	f.Float64Var(&c.lat, "lat", 0, "Latitude of a point in the tile")
	f.Float64Var(&c.lon, "lon", 0, "Longitude of a point in the tile")
	f.BoolVar(&c.poisOnly, "pois", false, "Only read points of interest")
}

func (c *readCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()

	mm, err := openMapFiles(c.inputPath, log)
	if err != nil {
		log.WithError(err).Error("unable to open map files")
		return subcommands.ExitUsageError
	}
	defer mm.Close()

	t := tile.New(c.x, c.y, uint8(c.zoom), 256)
	if c.x < 0 || c.y < 0 {
		t = tile.At(tile.LatLong{Latitude: c.lat, Longitude: c.lon}, uint8(c.zoom), 256)
	}
	if !t.Valid() {
		log.WithField("tile", t).Error("invalid tile")
		return subcommands.ExitUsageError
	}

	read := mm.Read
	if c.poisOnly {
		read = mm.ReadPOIs
	}

	res, ok := read(t)
	if !ok {
		log.WithField("tile", t).Error("unable to read tile")
		return subcommands.ExitFailure
	}

	b, err := worker.EncodeGeoJSON(res)
	if err != nil {
		log.WithError(err).Error("unable to encode tile")
		return subcommands.ExitFailure
	}

	os.Stdout.Write(append(b, '\n'))
	return subcommands.ExitSuccess
}
