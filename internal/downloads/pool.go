package downloads

import (
	"runtime"
	"sync"

	"github.com/tubegrab/tubegrab/internal/utils"
)

// Pool executes submitted work with a fixed number of concurrent slots.
// Work beyond capacity waits in submission order; the backlog is unbounded.
// The pool holds no domain state, it only schedules.
type Pool struct {
	mu       sync.Mutex
	capacity int
	running  int
	backlog  []func()
}

// DefaultCapacity is the number of CPUs clamped to [2, 8].
func DefaultCapacity() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	if n > 8 {
		return 8
	}
	return n
}

func NewPool(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{capacity: capacity}
}

// Submit enqueues work. It starts immediately when a slot is free, otherwise
// it waits for a running job to release one.
func (p *Pool) Submit(work func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running < p.capacity {
		p.running++
		go p.worker(work)
		return
	}
	p.backlog = append(p.backlog, work)
}

// worker runs work to completion, then drains the backlog FIFO until empty.
// The slot is held for the entire run of each piece of work.
func (p *Pool) worker(work func()) {
	for {
		p.execute(work)
		p.mu.Lock()
		if len(p.backlog) == 0 {
			p.running--
			p.mu.Unlock()
			return
		}
		work = p.backlog[0]
		p.backlog = p.backlog[1:]
		p.mu.Unlock()
	}
}

// execute isolates one piece of work: a panic ends that work only, never the
// worker slot or its siblings.
func (p *Pool) execute(work func()) {
	defer func() {
		if r := recover(); r != nil {
			log := utils.GetLogger("pool")
			log.Error().Str("op", "pool/execute").Msgf("Recovered job panic: %v", r)
		}
	}()
	work()
}
