package worker

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Settings settings for a worker pool.
type Settings struct {
	// Workers the number of workers.
	// Default: 4
	Workers int

	// MaxAssigned the maximum number of jobs that can be assigned to workers at the same time.
	// Default: the number of workers
	MaxAssigned int

	// Logger Default: a logger that discards everything.
	Logger logrus.FieldLogger
}

var defaultSettings = Settings{Workers: 4}

func getSettings(s []Settings) Settings {
	var settings = defaultSettings

	if len(s) == 1 {
		settings = s[0]
		if settings.Workers <= 0 {
			settings.Workers = defaultSettings.Workers
		}
	}

	if settings.MaxAssigned <= 0 {
		settings.MaxAssigned = settings.Workers
	}

	if settings.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		settings.Logger = l
	}
	return settings
}
