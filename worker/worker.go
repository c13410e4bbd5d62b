// Package worker runs the producers that fill a tile cache with the jobs taken from a queue.
package worker

import (
	"context"
	"sync"

	"github.com/FireworkMC/mapsforge/cache"
	"github.com/FireworkMC/mapsforge/queue"
	"github.com/FireworkMC/mapsforge/tile"
	"github.com/sirupsen/logrus"
)

// State the state of a worker.
type State int32

// worker states
const (
	Running State = iota
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker takes jobs from a queue, produces their artifacts and stores them in a cache.
type Worker struct {
	id          int
	queue       *queue.JobQueue
	cache       cache.TileCache
	producers   map[tile.JobKind]Producer
	maxAssigned int

	state   State
	control chan struct{}
	cancel  context.CancelFunc

	log logrus.FieldLogger
	mux sync.Mutex
}

func newWorker(id int, q *queue.JobQueue, c cache.TileCache, producers map[tile.JobKind]Producer, settings Settings) *Worker {
	return &Worker{
		id:          id,
		queue:       q,
		cache:       c,
		producers:   producers,
		maxAssigned: settings.MaxAssigned,
		control:     make(chan struct{}, 1),
		log:         settings.Logger.WithField("worker", id),
	}
}

// State returns the current state of the worker.
func (w *Worker) State() State {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.state
}

// setState changes the state of the worker and interrupts a blocked dequeue.
// A stopped worker cannot be restarted.
func (w *Worker) setState(s State) {
	w.mux.Lock()
	if w.state == Stopped || w.state == s {
		w.mux.Unlock()
		return
	}
	w.log.WithFields(logrus.Fields{"from": w.state, "to": s}).Debug("worker: state changed")
	w.state = s
	if w.cancel != nil {
		w.cancel()
	}
	w.mux.Unlock()

	select {
	case w.control <- struct{}{}:
	default:
	}
}

// Pause pauses the worker after the current job.
func (w *Worker) Pause() { w.setState(Paused) }

// Resume resumes a paused worker.
func (w *Worker) Resume() { w.setState(Running) }

// Stop stops the worker after the current job.
func (w *Worker) Stop() { w.setState(Stopped) }

// Run processes jobs until the worker is stopped, the queue is closed or the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		switch w.State() {
		case Stopped:
			return ErrWorkerStopped
		case Paused:
			select {
			case <-w.control:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		job, ok, err := w.next(ctx)
		if err != nil {
			if err == queue.ErrQueueClosed {
				w.Stop()
			}
			return err
		}
		if !ok {
			continue
		}

		w.process(ctx, job)
		w.queue.Release(job)
	}
}

// next dequeues the next job. ok is false if the dequeue was interrupted by a state change.
func (w *Worker) next(ctx context.Context) (job tile.Job, ok bool, err error) {
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.mux.Lock()
	if w.state != Running {
		w.mux.Unlock()
		return job, false, nil
	}
	w.cancel = cancel
	w.mux.Unlock()

	job, err = w.queue.Dequeue(dctx, w.maxAssigned)

	w.mux.Lock()
	w.cancel = nil
	w.mux.Unlock()

	switch {
	case err == nil:
		return job, true, nil
	case ctx.Err() != nil:
		return job, false, ctx.Err()
	case dctx.Err() != nil:
		return job, false, nil
	default:
		return job, false, err
	}
}

// process produces the artifact for the job and stores it in the cache.
// Failures are logged and the job is dropped.
func (w *Worker) process(ctx context.Context, job tile.Job) {
	log := w.log.WithField("job", job)

	p, ok := w.producers[job.Kind]
	if !ok {
		log.WithError(ErrNoProducer).Warn("worker: unable to process job")
		return
	}

	a, err := p.Produce(ctx, job)
	if err != nil {
		log.WithError(err).Warn("worker: unable to process job")
		return
	}

	if err = w.cache.Put(job, a); err != nil {
		log.WithError(err).Warn("worker: unable to cache artifact")
		return
	}
	log.Debug("worker: job done")
}

// Pool a set of workers sharing a queue and a cache.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
	log     logrus.FieldLogger
}

// NewPool creates a pool of workers. The workers are started by Start.
func NewPool(q *queue.JobQueue, c cache.TileCache, producers map[tile.JobKind]Producer, opt ...Settings) *Pool {
	settings := getSettings(opt)

	p := &Pool{log: settings.Logger}
	for i := 0; i < settings.Workers; i++ {
		p.workers = append(p.workers, newWorker(i, q, c, producers, settings))
	}
	return p
}

// Start starts every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			if err := w.Run(ctx); err != nil && err != ErrWorkerStopped && err != queue.ErrQueueClosed {
				p.log.WithError(err).WithField("worker", w.id).Debug("worker: exited")
			}
		}(w)
	}
}

// Workers returns the workers in the pool.
func (p *Pool) Workers() []*Worker { return p.workers }

// Pause pauses every worker.
func (p *Pool) Pause() {
	for _, w := range p.workers {
		w.Pause()
	}
}

// Resume resumes every worker.
func (p *Pool) Resume() {
	for _, w := range p.workers {
		w.Resume()
	}
}

// Stop stops every worker and waits for them to exit.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.Stop()
	}
	p.wg.Wait()
}

// Wait waits for every worker to exit.
func (p *Pool) Wait() { p.wg.Wait() }
