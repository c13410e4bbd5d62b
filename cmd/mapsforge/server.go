package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FireworkMC/mapsforge/cache"
	"github.com/FireworkMC/mapsforge/queue"
	"github.com/FireworkMC/mapsforge/tile"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/sirupsen/logrus"
)

// tileSource a map data source that knows which tiles it covers.
type tileSource interface {
	Supports(t tile.Tile) bool
}

// notifier wakes every request waiting for the cache to change.
type notifier struct {
	ch  chan struct{}
	mux sync.Mutex
}

func newNotifier() *notifier { return &notifier{ch: make(chan struct{})} }

func (n *notifier) wait() <-chan struct{} {
	n.mux.Lock()
	defer n.mux.Unlock()
	return n.ch
}

func (n *notifier) OnCacheChanged() {
	n.mux.Lock()
	close(n.ch)
	n.ch = make(chan struct{})
	n.mux.Unlock()
}

// server serves tiles from a cache, queueing the tiles that are not cached yet.
type server struct {
	cache    cache.TileCache
	queue    *queue.JobQueue
	source   tileSource
	changed  *notifier
	timeout  time.Duration
	download bool

	// recent the most recently requested jobs. The working set protects all of their neighbourhoods.
	recent   *simplelru.LRU
	recentMu sync.Mutex

	log logrus.FieldLogger
}

// recentViewports the number of requested tiles whose neighbourhoods are kept in the working set.
const recentViewports = 16

func newServer(c cache.TileCache, q *queue.JobQueue, src tileSource, timeout time.Duration, download bool, log logrus.FieldLogger) *server {
	recent, _ := simplelru.NewLRU(recentViewports, nil)
	s := &server{cache: c, queue: q, source: src, changed: newNotifier(), timeout: timeout, download: download, recent: recent, log: log}
	c.AddObserver(s.changed)
	return s
}

func (s *server) handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/tiles/:z/:x/:y", func(c *gin.Context) { s.serveTile(c, tile.KindMapFile) })
	if s.download {
		r.GET("/raster/:z/:x/:y", func(c *gin.Context) { s.serveTile(c, tile.KindDownload) })
	}
	return r
}

// neighbourhood returns the job and the jobs of the surrounding tiles.
func neighbourhood(job tile.Job) []tile.Job {
	jobs := []tile.Job{job}
	for _, n := range job.Tile.Neighbours() {
		jobs = append(jobs, job.WithTile(n))
	}
	return jobs
}

// request records a request for the job and updates the working set of the cache
// to the neighbourhoods of the recently requested jobs.
// It returns the neighbourhood of the job.
func (s *server) request(job tile.Job) []tile.Job {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()

	s.recent.Add(job, nil)

	seen := map[tile.Job]struct{}{}
	var workingSet []tile.Job
	for _, k := range s.recent.Keys() {
		for _, j := range neighbourhood(k.(tile.Job)) {
			if _, ok := seen[j]; !ok {
				seen[j] = struct{}{}
				workingSet = append(workingSet, j)
			}
		}
	}
	s.cache.SetWorkingSet(workingSet)
	return neighbourhood(job)
}

func parseTile(c *gin.Context) (tile.Tile, bool) {
	z, err := strconv.Atoi(c.Param("z"))
	if err != nil || z < 0 || z > tile.MaxZoomLevel {
		return tile.Tile{}, false
	}
	x, err := strconv.Atoi(c.Param("x"))
	if err != nil {
		return tile.Tile{}, false
	}

	yStr := c.Param("y")
	if i := strings.IndexByte(yStr, '.'); i >= 0 {
		yStr = yStr[:i]
	}
	y, err := strconv.Atoi(yStr)
	if err != nil {
		return tile.Tile{}, false
	}

	t := tile.New(x, y, uint8(z), 256)
	return t, t.Valid()
}

func contentType(kind tile.JobKind) string {
	if kind == tile.KindDownload {
		return "application/octet-stream"
	}
	return "application/geo+json"
}

func (s *server) serveTile(c *gin.Context, kind tile.JobKind) {
	t, ok := parseTile(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid tile")
		return
	}

	job := tile.Job{Tile: t, Kind: kind}
	if kind == tile.KindMapFile && !s.source.Supports(t) {
		c.String(http.StatusNotFound, "tile not covered by the map")
		return
	}

	nearby := s.request(job)

	if s.writeCached(c, job) {
		return
	}

	s.queue.Schedule(tile.MapPosition{Center: t.BoundingBox().Center(), ZoomLevel: t.ZoomLevel})
	s.queue.Enqueue(nearby...)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	for {
		changed := s.changed.wait()
		if s.writeCached(c, job) {
			return
		}

		select {
		case <-changed:
		case <-ctx.Done():
			if ancestor, a, ok := cache.Ancestor(s.cache, job, cache.DefaultAncestorDepth); ok {
				c.Header("X-Tile-Ancestor", ancestor.Tile.String())
				s.write(c, ancestor, a)
				return
			}
			s.log.WithField("job", job).Debug("server: tile not ready")
			c.String(http.StatusGatewayTimeout, "tile not ready")
			return
		}
	}
}

// writeCached writes the artifact for the job if it is cached.
func (s *server) writeCached(c *gin.Context, job tile.Job) bool {
	a, ok := s.cache.Get(job)
	if ok {
		s.write(c, job, a)
	}
	return ok
}

// write writes the artifact and releases the reference held by the request.
func (s *server) write(c *gin.Context, job tile.Job, a cache.Artifact) {
	defer a.DecrementRefCount()

	p, ok := a.(*cache.Payload)
	if !ok {
		s.log.WithField("job", job).Error("server: unsupported artifact")
		c.String(http.StatusInternalServerError, "unsupported artifact")
		return
	}
	c.Data(http.StatusOK, contentType(job.Kind), p.Bytes())
}
