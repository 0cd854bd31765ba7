package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDispatcherClosed is returned for work submitted after shutdown.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// workerIdleTimeout is how long a room's worker lingers without work
// before it is reaped. The next job for the room spawns a fresh one.
const workerIdleTimeout = time.Minute

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// roomQueue pairs a room's job channel with the count of jobs accepted
// but not yet finished. A worker may only retire while pending is zero,
// so a submitter that has incremented it always has a receiver.
type roomQueue struct {
	ch      chan job
	pending int
}

// Dispatcher serializes room-scoped work: jobs for the same room run
// to completion, in submission order, before the next one starts;
// jobs for different rooms interleave freely. This is what makes a
// read-modify-write against a room's document a critical section
// without any cross-room lock.
type Dispatcher struct {
	mu     sync.Mutex
	rooms  map[string]*roomQueue
	wg     sync.WaitGroup
	closed bool
	idle   time.Duration
}

// NewDispatcher creates a dispatcher. Room workers are spawned lazily
// on first use and reaped after sitting idle.
func NewDispatcher() *Dispatcher {
	return newDispatcher(workerIdleTimeout)
}

func newDispatcher(idle time.Duration) *Dispatcher {
	return &Dispatcher{
		rooms: make(map[string]*roomQueue),
		idle:  idle,
	}
}

// Do runs fn in roomID's serial queue and waits for it to finish.
// A context already cancelled by the time the job is dequeued is not
// run at all.
func (d *Dispatcher) Do(ctx context.Context, roomID string, fn func(context.Context) error) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	rq, ok := d.rooms[roomID]
	if !ok {
		rq = &roomQueue{ch: make(chan job, 64)}
		d.rooms[roomID] = rq
		d.wg.Add(1)
		go d.worker(roomID, rq)
	}
	rq.pending++
	d.mu.Unlock()

	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case rq.ch <- j:
	case <-ctx.Done():
		d.mu.Lock()
		rq.pending--
		d.mu.Unlock()
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(roomID string, rq *roomQueue) {
	defer d.wg.Done()
	idle := time.NewTimer(d.idle)
	defer idle.Stop()

	for {
		select {
		case j, ok := <-rq.ch:
			if !ok {
				return
			}
			if err := j.ctx.Err(); err != nil {
				j.done <- err
			} else {
				j.done <- j.fn(j.ctx)
			}
			d.mu.Lock()
			rq.pending--
			d.mu.Unlock()
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.idle)

		case <-idle.C:
			d.mu.Lock()
			if rq.pending == 0 && !d.closed {
				delete(d.rooms, roomID)
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			idle.Reset(d.idle)
		}
	}
}

// roomCount reports how many room workers are currently live.
func (d *Dispatcher) roomCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}

// Close stops accepting work, drains the queues and waits for the
// workers to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, rq := range d.rooms {
		close(rq.ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
