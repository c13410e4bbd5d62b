package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/FireworkMC/mapsforge/mapfile"
	"github.com/google/subcommands"
)

type infoCmd struct {
	inputPath string
}

func (c *infoCmd) Name() string     { return "info" }
func (c *infoCmd) Synopsis() string { return "print the header of a map file" }
func (c *infoCmd) Usage() string    { return "mapsforge info -i <path>\n" }
func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map file")
}

func (c *infoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()

	m, err := mapfile.Open(c.inputPath, mapfile.Settings{Logger: log})
	if err != nil {
		log.WithError(err).Error("unable to open map file")
		return subcommands.ExitFailure
	}
	defer m.Close()

	printInfo(os.Stdout, m.Info(), m.SubFiles())
	return subcommands.ExitSuccess
}

func printInfo(w io.Writer, info mapfile.FileInfo, subFiles []mapfile.SubFileParameters) {
	fmt.Fprintf(w, "version:      %d\n", info.FileVersion)
	fmt.Fprintf(w, "size:         %d\n", info.FileSize)
	fmt.Fprintf(w, "date:         %s\n", info.MapDate.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "bbox:         %s\n", info.BoundingBox)
	fmt.Fprintf(w, "tile size:    %d\n", info.TilePixelSize)
	fmt.Fprintf(w, "projection:   %s\n", info.ProjectionName)
	fmt.Fprintf(w, "zoom levels:  %d-%d\n", info.ZoomLevelMin, info.ZoomLevelMax)
	if info.HasStartPosition {
		fmt.Fprintf(w, "start:        %s\n", info.StartPosition)
	}
	if info.HasStartZoomLevel {
		fmt.Fprintf(w, "start zoom:   %d\n", info.StartZoomLevel)
	}
	if langs := info.Languages(); len(langs) != 0 {
		fmt.Fprintf(w, "languages:    %s\n", strings.Join(langs, ", "))
	}
	if info.Comment != "" {
		fmt.Fprintf(w, "comment:      %s\n", info.Comment)
	}
	if info.CreatedBy != "" {
		fmt.Fprintf(w, "created by:   %s\n", info.CreatedBy)
	}
	fmt.Fprintf(w, "debug:        %t\n", info.DebugFile)
	fmt.Fprintf(w, "poi tags:     %d\n", len(info.POITags))
	fmt.Fprintf(w, "way tags:     %d\n", len(info.WayTags))

	for i, sf := range subFiles {
		fmt.Fprintf(w, "sub-file %d:   base zoom %d, zoom %d-%d, %d blocks, %d bytes at %d\n",
			i, sf.BaseZoomLevel, sf.ZoomLevelMin, sf.ZoomLevelMax, sf.NumberOfBlocks, sf.SubFileSize, sf.StartAddress)
	}
}
