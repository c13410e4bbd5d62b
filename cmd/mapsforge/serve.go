package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/FireworkMC/mapsforge/cache"
	"github.com/FireworkMC/mapsforge/queue"
	"github.com/FireworkMC/mapsforge/tile"
	"github.com/FireworkMC/mapsforge/worker"
	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
)

type serveCmd struct {
	inputPath string
	addr      string
	storePath string
	upstream  string
	capacity  int
	workers   int
	timeout   time.Duration
}

func (c *serveCmd) Name() string     { return "serve" }
func (c *serveCmd) Synopsis() string { return "serve tiles as geojson over http" }
func (c *serveCmd) Usage() string {
	return "mapsforge serve -i <path>[,<path>...] [-addr <addr> -store <dir> -upstream <url> -workers <n>]\n"
}
func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map files, comma separated")
	f.StringVar(&c.addr, "addr", ":8080", "Listen address")
	f.StringVar(&c.storePath, "store", "", "Directory of exported tiles used as a second level cache")
	f.StringVar(&c.upstream, "upstream", "", "Raster tile url template with {z}, {x} and {y}, served under /raster")
	f.IntVar(&c.capacity, "capacity", 512, "Number of tiles kept in memory")
	f.IntVar(&c.workers, "workers", 4, "Number of workers")
	f.DurationVar(&c.timeout, "timeout", 5*time.Second, "Time to wait for a tile before falling back to a lower zoom level")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()

	mm, err := openMapFiles(c.inputPath, log)
	if err != nil {
		log.WithError(err).Error("unable to open map files")
		return subcommands.ExitFailure
	}
	defer mm.Close()

	mem, err := cache.NewInMemory(cache.Settings{Capacity: c.capacity, Logger: log})
	if err != nil {
		log.WithError(err).Error("unable to create cache")
		return subcommands.ExitFailure
	}

	var tiles cache.TileCache = mem
	if c.storePath != "" {
		tiles = cache.NewTwoLevel(mem, cache.NewFileStore(cache.StoreSettings{Root: c.storePath, Logger: log}))
	}

	q := queue.NewJobQueue(queue.Settings{Logger: log})
	defer q.Close()

	producers := map[tile.JobKind]worker.Producer{tile.KindMapFile: &worker.MapFileProducer{Source: mm}}
	if c.upstream != "" {
		producers[tile.KindDownload] = &worker.DownloadProducer{URL: c.upstream, UserAgent: "mapsforge"}
	}

	pool := worker.NewPool(q, tiles, producers, worker.Settings{Workers: c.workers, Logger: log})
	pool.Start(ctx)
	defer pool.Stop()

	gin.SetMode(gin.ReleaseMode)
	srv := newServer(tiles, q, mm, c.timeout, c.upstream != "", log)

	log.WithField("addr", c.addr).Info("serving tiles")
	if err = http.ListenAndServe(c.addr, srv.handler()); err != nil {
		log.WithError(err).Error("server stopped")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
