package queue

import (
	"math"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/yehan2002/errors"
)

// PenaltyPerZoomLevel the priority penalty, in tiles, for every zoom level between a tile and the viewport.
const PenaltyPerZoomLevel = 10

// QueueItem a pending job and its priority.
// Lower priorities are dequeued first.
type QueueItem struct {
	Job      tile.Job
	priority float64
}

// NewQueueItem creates an item with priority 0.
func NewQueueItem(job tile.Job) *QueueItem { return &QueueItem{Job: job} }

// Priority returns the priority of the item.
func (q *QueueItem) Priority() float64 { return q.priority }

// SetPriority sets the priority of the item.
func (q *QueueItem) SetPriority(p float64) error {
	if p < 0 || math.IsNaN(p) {
		return errors.CauseStr(ErrInvalidPriority, q.Job.String())
	}
	q.priority = p
	return nil
}

// Scheduler calculates the priority of jobs relative to the current map position.
type Scheduler struct {
	Position tile.MapPosition
	TileSize int
}

// Priority returns the priority of the job.
// This is the pixel distance between the center of the tile and the viewport center at the
// zoom level of the tile plus a penalty for each zoom level between the tile and the viewport.
func (s *Scheduler) Priority(job tile.Job) float64 {
	t := job.Tile
	tileX, tileY := t.PixelCenter()

	mapSize := tile.MapSize(t.ZoomLevel, t.TileSize)
	viewX := tile.LongitudeToPixelX(s.Position.Center.Longitude, mapSize)
	viewY := tile.LatitudeToPixelY(s.Position.Center.Latitude, mapSize)

	tileSize := s.TileSize
	if tileSize <= 0 {
		tileSize = t.TileSize
	}

	dz := math.Abs(float64(int(t.ZoomLevel) - int(s.Position.ZoomLevel)))
	return math.Hypot(tileX-viewX, tileY-viewY) + PenaltyPerZoomLevel*float64(tileSize)*dz
}

// Schedule recalculates the priority of every item.
// Items whose priority cannot be calculated keep their old priority.
func (s *Scheduler) Schedule(items []*QueueItem) (err error) {
	for _, item := range items {
		if e := item.SetPriority(s.Priority(item.Job)); e != nil && err == nil {
			err = e
		}
	}
	return err
}
