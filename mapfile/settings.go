package mapfile

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DefaultMaxBufferSize the default for [Settings.MaxBufferSize].
const DefaultMaxBufferSize = 10000000

// Settings settings
type Settings struct {
	// MaxBufferSize the largest block (in bytes) that will be read from the file.
	// Larger blocks are skipped and logged.
	// Default: 10000000
	MaxBufferSize int

	// PreferredLanguage the language code used to select names from multilingual strings.
	// If this is empty the default name stored in the file is used.
	// Default: ""
	PreferredLanguage string

	// IndexCacheSize the number of index blocks (128 index entries each) that are cached.
	// Default: 64
	IndexCacheSize int

	// Fs the filesystem map files are opened from.
	// Default: the os filesystem.
	Fs afero.Fs

	// Logger the logger used for reporting corrupted records.
	// Default: a logger that discards everything.
	Logger logrus.FieldLogger
}

var defaultSettings = Settings{
	MaxBufferSize:  DefaultMaxBufferSize,
	IndexCacheSize: 64,
}

func getSettings(s []Settings) Settings {
	var settings = defaultSettings

	if len(s) == 1 {
		settings = s[0]

		if settings.MaxBufferSize <= 0 {
			settings.MaxBufferSize = defaultSettings.MaxBufferSize
		}

		if settings.IndexCacheSize <= 0 {
			settings.IndexCacheSize = defaultSettings.IndexCacheSize
		}
	}

	if settings.Fs == nil {
		settings.Fs = afero.NewOsFs()
	}

	if settings.Logger == nil {
		settings.Logger = discardLogger()
	}

	return settings
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
