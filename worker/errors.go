package worker

import "github.com/yehan2002/errors"

const (
	// ErrWorkerStopped the worker was stopped.
	ErrWorkerStopped = errors.Const("worker: stopped")
	// ErrNoProducer no producer is registered for the kind of the job.
	ErrNoProducer = errors.Const("worker: no producer for job")
	// ErrNoData the source could not produce data for the tile.
	ErrNoData = errors.Const("worker: no data for tile")
	// ErrDownload the server did not return the tile.
	ErrDownload = errors.Const("worker: download failed")
)
