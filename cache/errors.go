package cache

import "github.com/yehan2002/errors"

const (
	// ErrNilArtifact a nil artifact was passed to Put.
	ErrNilArtifact = errors.Const("cache: nil artifact")
	// ErrInvalidJob the job does not refer to a valid tile.
	ErrInvalidJob = errors.Const("cache: invalid job")
	// ErrCorrupted a persisted artifact could not be read.
	ErrCorrupted = errors.Const("cache: corrupted artifact")
)
