package actor

import (
	"sync"
)

// workerPool runs a fixed set of worker goroutines that execute scheduled
// tickets. A ticket names an actor; the pool is opaque to the dispatch
// protocol beyond the schedule entry point and the guarantee that tickets
// are executed in FIFO order. FIFO is what bounds starvation: an actor that
// becomes runnable while N others are runnable waits at most N dispatches.
//
// The ticket queue is unbounded so that schedule never blocks. The
// dispatcher calls it while holding the system lock, and a scheduler that
// could block on queue space while holding that lock would deadlock the
// whole runtime.
type workerPool struct {
	// mu guards the ticket queue and the stopped flag.
	mu sync.Mutex

	// cond wakes idle workers when a ticket arrives or the pool stops.
	cond *sync.Cond

	// tickets is the FIFO queue, consumed from head. The slice is reset
	// in place whenever it drains so the backing array is reused.
	tickets []ID

	// head indexes the next ticket to execute.
	head int

	// stopped is set once by stop. Workers exit after draining the
	// queue.
	stopped bool

	// work is the single registered job, invoked with the ticket's actor
	// id.
	work func(ID)

	// wg tracks worker goroutines for deterministic shutdown.
	wg sync.WaitGroup
}

// newWorkerPool starts size workers, each looping over the ticket queue and
// invoking work with the scheduled actor id.
func newWorkerPool(size int, work func(ID)) *workerPool {
	p := &workerPool{
		work: work,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}

	return p
}

// schedule appends a ticket for the given actor and wakes one worker. It
// never blocks, so callers may hold the system lock across the call.
func (p *workerPool) schedule(id ID) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		fatalf("ticket for actor %d scheduled on stopped pool", id)
	}
	p.tickets = append(p.tickets, id)
	p.mu.Unlock()

	p.cond.Signal()
}

// worker is the loop run by each pool goroutine: pull one ticket, execute
// the registered job, repeat. Workers never block on an actor's mailbox; a
// ticket only exists when work is known to exist.
func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for p.head == len(p.tickets) && !p.stopped {
			p.cond.Wait()
		}

		// Stop only once the queue has drained, so every ticket
		// accepted before stop is still executed.
		if p.head == len(p.tickets) {
			p.mu.Unlock()
			return
		}

		id := p.tickets[p.head]
		p.head++
		if p.head == len(p.tickets) {
			p.tickets = p.tickets[:0]
			p.head = 0
		}
		p.mu.Unlock()

		p.work(id)
	}
}

// stop wakes every worker and blocks until all of them have exited. Tickets
// already queued are executed first; in-flight jobs run to completion.
func (p *workerPool) stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()
}
