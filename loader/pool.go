package loader

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// workerPool runs load jobs on a fixed set of goroutines.
//
// Each worker owns a queue and steals from the others when its own queue
// is empty, so one slow source read does not hold back the rest of a frame's
// requests. Jobs that find every queue full wait in an unbounded overflow
// list; Submit never blocks.
type workerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool

	overflowMu sync.Mutex
	overflow   []func()
	// wake carries one token per overflow push, up to one per worker.
	wake chan struct{}

	// submitMu orders Submit against close(done) so no job is queued after
	// the workers drained their queues.
	submitMu sync.RWMutex
}

// newWorkerPool starts a pool. workers <= 0 selects GOMAXPROCS; queueSize
// <= 0 selects 16 jobs per worker.
func newWorkerPool(workers, queueSize int) *workerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if queueSize <= 0 {
		queueSize = 16
	}

	p := &workerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
		wake:       make(chan struct{}, workers),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *workerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drain(myQueue)
			return
		case work := <-myQueue:
			work()
			continue
		default:
		}

		if stolen := p.steal(id); stolen != nil {
			stolen()
			continue
		}
		if work := p.popOverflow(); work != nil {
			work()
			continue
		}

		select {
		case <-p.done:
			p.drain(myQueue)
			return
		case work := <-myQueue:
			work()
		case <-p.wake:
		}
	}
}

// drain runs what is left in queue and in the overflow list.
func (p *workerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
			continue
		default:
		}
		work := p.popOverflow()
		if work == nil {
			return
		}
		work()
	}
}

func (p *workerPool) popOverflow() func() {
	p.overflowMu.Lock()
	defer p.overflowMu.Unlock()
	if len(p.overflow) == 0 {
		return nil
	}
	work := p.overflow[0]
	p.overflow[0] = nil
	p.overflow = p.overflow[1:]
	return work
}

// Overflow returns the number of jobs waiting for a queue slot.
func (p *workerPool) Overflow() int {
	p.overflowMu.Lock()
	defer p.overflowMu.Unlock()
	return len(p.overflow)
}

func (p *workerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// Submit queues fn on the worker with the shortest queue, or in the
// overflow list when every queue is full. It reports false if the pool is
// closed.
func (p *workerPool) Submit(fn func()) bool {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()
	if !p.running.Load() {
		return false
	}

	minIdx := 0
	minLen := len(p.workQueues[0])
	for i := 1; i < p.workers; i++ {
		if n := len(p.workQueues[i]); n < minLen {
			minLen = n
			minIdx = i
		}
	}
	select {
	case p.workQueues[minIdx] <- fn:
	default:
		p.overflowMu.Lock()
		p.overflow = append(p.overflow, fn)
		p.overflowMu.Unlock()
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
	return true
}

// Close stops accepting work, runs everything already queued and waits
// for the workers to exit. Close is safe to call multiple times.
func (p *workerPool) Close() {
	p.submitMu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.submitMu.Unlock()
		return
	}
	close(p.done)
	p.submitMu.Unlock()
	p.wg.Wait()
}
