package tile

import "fmt"

// JobKind selects the producer that creates the artifact for a job.
type JobKind uint8

const (
	// KindMapFile the artifact is decoded from a local map file.
	KindMapFile JobKind = iota
	// KindDownload the artifact is fetched over the network.
	KindDownload
)

func (k JobKind) String() string {
	switch k {
	case KindMapFile:
		return "mapfile"
	case KindDownload:
		return "download"
	default:
		return "unknown"
	}
}

// Job a request for the artifact of a single tile.
// Jobs are comparable and are used directly as cache and queue keys.
type Job struct {
	Tile     Tile
	HasAlpha bool
	Kind     JobKind
}

// NewJob creates a job for decoding the given tile from a map file.
func NewJob(t Tile, hasAlpha bool) Job { return Job{Tile: t, HasAlpha: hasAlpha} }

// Key returns a string that uniquely identifies the job.
// This is used as the file name of persisted artifacts. Jobs of kinds other than
// KindMapFile are prefixed with the name of their kind.
func (j Job) Key() string {
	if j.Kind != KindMapFile {
		return j.Kind.String() + "/" + j.tileKey()
	}
	return j.tileKey()
}

func (j Job) tileKey() string {
	if j.HasAlpha {
		return fmt.Sprintf("%d/%d/%d.a", j.Tile.ZoomLevel, j.Tile.X, j.Tile.Y)
	}
	return fmt.Sprintf("%d/%d/%d", j.Tile.ZoomLevel, j.Tile.X, j.Tile.Y)
}

// WithTile returns a copy of the job for a different tile.
func (j Job) WithTile(t Tile) Job { j.Tile = t; return j }

func (j Job) String() string { return j.Kind.String() + ":" + j.tileKey() }
