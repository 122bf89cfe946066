package viewer

import "sync"

// Dispatcher queues functions posted from any goroutine and runs them on
// the goroutine that calls Pump.
type Dispatcher struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{wake: make(chan struct{}, 1)}
}

// Post queues fn. It never blocks.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Pump runs everything queued so far and returns how many functions ran.
// Functions posted while pumping run on the next call.
func (d *Dispatcher) Pump() int {
	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Pending returns the number of queued functions.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Wake receives a value after Post. Hosts without their own frame clock
// select on it to know when to Pump.
func (d *Dispatcher) Wake() <-chan struct{} {
	return d.wake
}

// Worker runs jobs one at a time on its own goroutine, in submission order.
type Worker struct {
	jobs     chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewWorker starts a worker with room for queue pending jobs.
func NewWorker(queue int) *Worker {
	w := &Worker{
		jobs: make(chan func(), queue),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.quit:
			return
		case job := <-w.jobs:
			select {
			case <-w.quit:
				return
			default:
			}
			job()
		}
	}
}

// Submit queues a job. It returns false once the worker is stopped.
func (w *Worker) Submit(job func()) bool {
	select {
	case <-w.quit:
		return false
	default:
	}
	select {
	case w.jobs <- job:
		return true
	case <-w.quit:
		return false
	}
}

// Stop discards pending jobs. A running job finishes on its own.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}

// Wait blocks until the worker goroutine has exited.
func (w *Worker) Wait() {
	<-w.done
}
