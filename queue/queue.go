// Package queue orders the tile jobs waiting for a worker.
package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/sirupsen/logrus"
)

// JobQueue a priority queue of pending jobs shared by a set of workers.
// Jobs are dequeued in the order of their priority relative to the last scheduled map position.
type JobQueue struct {
	pending  []*QueueItem
	queued   map[tile.Job]*QueueItem
	assigned map[tile.Job]struct{}

	scheduler  Scheduler
	reschedule bool
	capacity   int
	closed     bool

	log    logrus.FieldLogger
	mux    sync.Mutex
	cond   *sync.Cond
	ticker *time.Ticker
	done   chan struct{}
}

// NewJobQueue creates a new queue.
// Close must be called to stop the background recheck.
func NewJobQueue(opt ...Settings) *JobQueue {
	settings := getSettings(opt)

	q := &JobQueue{
		queued:    map[tile.Job]*QueueItem{},
		assigned:  map[tile.Job]struct{}{},
		scheduler: Scheduler{TileSize: settings.TileSize},
		capacity:  settings.Capacity,
		log:       settings.Logger,
		ticker:    time.NewTicker(settings.RecheckInterval),
		done:      make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mux)

	go q.recheck()
	return q
}

// recheck periodically wakes blocked workers.
func (q *JobQueue) recheck() {
	for {
		select {
		case <-q.ticker.C:
			q.cond.Broadcast()
		case <-q.done:
			return
		}
	}
}

// Enqueue adds jobs to the queue.
// Jobs that are already pending or assigned to a worker are ignored.
func (q *JobQueue) Enqueue(jobs ...tile.Job) {
	q.mux.Lock()
	defer q.mux.Unlock()

	if q.closed {
		return
	}

	added := false
	for _, job := range jobs {
		if _, ok := q.assigned[job]; ok {
			continue
		}
		if _, ok := q.queued[job]; ok {
			continue
		}

		item := NewQueueItem(job)
		q.pending = append(q.pending, item)
		q.queued[job] = item
		added = true
	}

	if added {
		q.reschedule = true
		q.cond.Broadcast()
	}
}

// Dequeue removes the most urgent job from the queue and marks it as assigned.
// This blocks until a job is pending and fewer than maxAssigned jobs are assigned,
// the context is cancelled or the queue is closed.
func (q *JobQueue) Dequeue(ctx context.Context, maxAssigned int) (tile.Job, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mux.Lock()
		q.cond.Broadcast()
		q.mux.Unlock()
	})
	defer stop()

	q.mux.Lock()
	defer q.mux.Unlock()

	for {
		if q.closed {
			return tile.Job{}, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return tile.Job{}, err
		}
		if len(q.pending) != 0 && len(q.assigned) < maxAssigned {
			break
		}
		q.cond.Wait()
	}

	if q.reschedule {
		q.schedule()
	}

	item := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	delete(q.queued, item.Job)
	q.assigned[item.Job] = struct{}{}
	return item.Job, nil
}

// Release marks the job as finished.
func (q *JobQueue) Release(job tile.Job) {
	q.mux.Lock()
	delete(q.assigned, job)
	q.mux.Unlock()
	q.cond.Broadcast()
}

// Schedule sets the map position used to prioritize jobs.
// Pending jobs are rescheduled before the next job is dequeued.
func (q *JobQueue) Schedule(pos tile.MapPosition) {
	q.mux.Lock()
	q.scheduler.Position = pos
	q.reschedule = true
	q.mux.Unlock()
	q.cond.Broadcast()
}

// schedule recalculates the priorities of the pending jobs, sorts them and
// drops the least urgent jobs that exceed the capacity of the queue.
// This must be called while holding mux.
func (q *JobQueue) schedule() {
	q.reschedule = false

	if err := q.scheduler.Schedule(q.pending); err != nil {
		q.log.WithError(err).Warn("queue: unable to schedule job")
	}

	sort.SliceStable(q.pending, func(i, j int) bool {
		return q.pending[i].Priority() < q.pending[j].Priority()
	})

	if len(q.pending) > q.capacity {
		for _, item := range q.pending[q.capacity:] {
			delete(q.queued, item.Job)
		}
		q.log.WithFields(logrus.Fields{"dropped": len(q.pending) - q.capacity, "capacity": q.capacity}).
			Debug("queue: dropped pending jobs")

		for i := q.capacity; i < len(q.pending); i++ {
			q.pending[i] = nil
		}
		q.pending = q.pending[:q.capacity]
	}
}

// Pending returns the pending jobs in the order they will be dequeued.
// The order is only exact if the queue does not need to be rescheduled.
func (q *JobQueue) Pending() []tile.Job {
	q.mux.Lock()
	defer q.mux.Unlock()

	if q.reschedule {
		q.schedule()
	}

	jobs := make([]tile.Job, len(q.pending))
	for i, item := range q.pending {
		jobs[i] = item.Job
	}
	return jobs
}

// Len returns the number of pending jobs.
func (q *JobQueue) Len() int {
	q.mux.Lock()
	defer q.mux.Unlock()
	return len(q.pending)
}

// Assigned returns the number of jobs assigned to workers.
func (q *JobQueue) Assigned() int {
	q.mux.Lock()
	defer q.mux.Unlock()
	return len(q.assigned)
}

// Clear removes every pending job. Assigned jobs are not affected.
func (q *JobQueue) Clear() {
	q.mux.Lock()
	q.pending = nil
	q.queued = map[tile.Job]*QueueItem{}
	q.mux.Unlock()
}

// Close closes the queue and wakes every blocked worker.
func (q *JobQueue) Close() error {
	q.mux.Lock()
	defer q.mux.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.closed = true
	q.ticker.Stop()
	close(q.done)
	q.cond.Broadcast()
	return nil
}
