package queue

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Settings settings for a JobQueue.
type Settings struct {
	// Capacity the maximum number of pending jobs kept after rescheduling.
	// The jobs with the lowest priority are dropped.
	// Default: 128
	Capacity int

	// TileSize the tile size used when the queue is scheduled.
	// Default: 256
	TileSize int

	// RecheckInterval the interval at which blocked calls to Dequeue wake up and check the queue again.
	// Default: 200ms
	RecheckInterval time.Duration

	// Logger Default: a logger that discards everything.
	Logger logrus.FieldLogger
}

var defaultSettings = Settings{Capacity: 128, TileSize: 256, RecheckInterval: 200 * time.Millisecond}

func getSettings(s []Settings) Settings {
	var settings = defaultSettings

	if len(s) == 1 {
		settings = s[0]
		if settings.Capacity <= 0 {
			settings.Capacity = defaultSettings.Capacity
		}
		if settings.TileSize <= 0 {
			settings.TileSize = defaultSettings.TileSize
		}
		if settings.RecheckInterval <= 0 {
			settings.RecheckInterval = defaultSettings.RecheckInterval
		}
	}

	if settings.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		settings.Logger = l
	}
	return settings
}
