package cache

import (
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Settings settings for an in memory cache.
type Settings struct {
	// Capacity the maximum number of artifacts kept in the cache.
	// The cache can temporarily hold more artifacts if the working set is larger than this.
	// Default: 128
	Capacity int

	// Logger Default: a logger that discards everything.
	Logger logrus.FieldLogger
}

var defaultSettings = Settings{Capacity: 128}

func getSettings(s []Settings) Settings {
	var settings = defaultSettings

	if len(s) == 1 {
		settings = s[0]
		if settings.Capacity <= 0 {
			settings.Capacity = defaultSettings.Capacity
		}
	}

	if settings.Logger == nil {
		settings.Logger = discardLogger()
	}
	return settings
}

// StoreSettings settings for a persistent store.
type StoreSettings struct {
	// Fs the filesystem containing the store.
	// Default: the os filesystem.
	Fs afero.Fs

	// Root the directory containing the store.
	// Artifacts are stored as <Root>/<zoom>/<x>/<y><Extension>.
	// If this is empty paths are relative to Fs.
	// Default: ""
	Root string

	// Extension the file extension of stored artifacts.
	// Default: ".tile"
	Extension string

	// Compression the compression method used when writing artifacts.
	// Reading detects the method from the file.
	// Default: DefaultCompression
	Compression CompressMethod

	// Logger Default: a logger that discards everything.
	Logger logrus.FieldLogger
}

var defaultStoreSettings = StoreSettings{Extension: ".tile", Compression: DefaultCompression}

func getStoreSettings(s []StoreSettings) StoreSettings {
	var settings = defaultStoreSettings

	if len(s) == 1 {
		settings = s[0]
		if settings.Extension == "" {
			settings.Extension = defaultStoreSettings.Extension
		}
		if settings.Compression == 0 {
			settings.Compression = defaultStoreSettings.Compression
		}
	}

	if settings.Fs == nil {
		settings.Fs = afero.NewOsFs()
	}

	if root := filepath.Clean(settings.Root); settings.Root != "" && root != "." {
		settings.Fs = afero.NewBasePathFs(settings.Fs, root)
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
