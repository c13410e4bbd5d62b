package queue

import "github.com/yehan2002/errors"

const (
	// ErrInvalidPriority the priority is negative or NaN.
	ErrInvalidPriority = errors.Const("queue: invalid priority")
	// ErrQueueClosed the queue was closed.
	ErrQueueClosed = errors.Const("queue: closed")
)
