// Package dispatch owns the worker pool described in §4.E: N workers,
// each fed through a Channel that is either bounded (synchronous) or
// logically unbounded (asynchronous), routed round-robin with
// skip-on-full, shut down via a sentinel.
package dispatch

import (
	"sync"
	"time"

	"github.com/go-fastpivot/fastpivot/aggregate"
	"github.com/go-fastpivot/fastpivot/extract"
)

// Sentinel is the distinguished zero-length buffer that signals a
// worker to stop after draining whatever precedes it.
var Sentinel = []byte{}

func isSentinel(b []byte) bool { return len(b) == 0 }

// Channel is the common send/receive surface both channel modes
// implement, matching §9's "tagged variant with a common try_send
// operation, not inheritance" design note.
type Channel interface {
	// TrySend attempts a non-blocking send; it returns false if the
	// channel is full (bounded mode only - unbounded mode never
	// returns false).
	TrySend(b []byte) bool
	// Send blocks until the value is accepted. Used for the sentinel,
	// which must never be dropped.
	Send(b []byte)
	// Recv blocks until a value is available.
	Recv() []byte
}

// boundedChannel is the synchronous mode: a native Go channel with
// capacity C.
type boundedChannel struct {
	ch chan []byte
}

// NewBounded returns a Channel with the given capacity (the sync mode's
// "C", default 1000 per §4.E).
func NewBounded(capacity int) Channel {
	if capacity <= 0 {
		capacity = 1000
	}
	return &boundedChannel{ch: make(chan []byte, capacity)}
}

func (b *boundedChannel) TrySend(v []byte) bool {
	select {
	case b.ch <- v:
		return true
	default:
		return false
	}
}

func (b *boundedChannel) Send(v []byte) { b.ch <- v }
func (b *boundedChannel) Recv() []byte  { return <-b.ch }

// unboundedChannel is the asynchronous mode: a growable queue guarded by
// a mutex and condition variable, since Go has no native unbounded
// channel type.
type unboundedChannel struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items [][]byte
}

// NewUnbounded returns a Channel whose sends always succeed.
func NewUnbounded() Channel {
	u := &unboundedChannel{}
	u.cond = sync.NewCond(&u.mu)
	return u
}

func (u *unboundedChannel) TrySend(v []byte) bool {
	u.mu.Lock()
	u.items = append(u.items, v)
	u.mu.Unlock()
	u.cond.Signal()
	return true
}

func (u *unboundedChannel) Send(v []byte) { u.TrySend(v) }

func (u *unboundedChannel) Recv() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	for len(u.items) == 0 {
		u.cond.Wait()
	}
	v := u.items[0]
	u.items = u.items[1:]
	return v
}

// Mode selects a channel implementation.
type Mode int

const (
	// Sync is the bounded channel mode.
	Sync Mode = iota
	// Async is the unbounded channel mode.
	Async
)

// WorkerResult is what one worker returns after it observes the
// sentinel and drains.
type WorkerResult struct {
	Partial   *aggregate.Debtors
	Processed uint64
	Errors    uint64
}

// Pool owns N workers and their channels.
type Pool struct {
	channels []Channel
	results  []WorkerResult
	wg       sync.WaitGroup
	cursor   int

	// OnProgress, if set, is called by a worker every progressEvery
	// processed objects; tid is the worker index.
	OnProgress    func(tid int, processed uint64)
	progressEvery uint64
}

// NewPool spawns n workers, each running a goroutine that extracts and
// aggregates whatever bytes it receives until it sees the sentinel.
// progressEvery is the §6 PRN_COUNT interval (0 disables progress
// callbacks).
func NewPool(n int, mode Mode, capacity int, progressEvery uint64, onProgress func(tid int, processed uint64)) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{
		channels:      make([]Channel, n),
		results:       make([]WorkerResult, n),
		progressEvery: progressEvery,
		OnProgress:    onProgress,
	}
	for i := 0; i < n; i++ {
		switch mode {
		case Async:
			p.channels[i] = NewUnbounded()
		default:
			p.channels[i] = NewBounded(capacity)
		}
	}
	for i := 0; i < n; i++ {
		tid := i
		p.wg.Add(1)
		go p.runWorker(tid)
	}
	return p
}

func (p *Pool) runWorker(tid int) {
	defer p.wg.Done()
	ex := extract.New()
	agg := aggregate.New()
	var processed, errs uint64
	ch := p.channels[tid]
	for {
		b := ch.Recv()
		if isSentinel(b) {
			break
		}
		rec, err := ex.Extract(b)
		if err != nil {
			errs++
			continue
		}
		agg.Insert(rec)
		processed++
		if p.progressEvery > 0 && processed%p.progressEvery == 0 && p.OnProgress != nil {
			p.OnProgress(tid, processed)
		}
	}
	p.results[tid] = WorkerResult{Partial: agg, Processed: processed, Errors: errs}
}

// Dispatch routes b to the next worker that accepts it, round-robin
// with skip-on-full, sleeping briefly only after a full failed
// rotation (not after every individual failed attempt: see DESIGN.md
// for why this departs from the original implementation's per-attempt
// sleep).
func (p *Pool) Dispatch(b []byte) {
	n := len(p.channels)
	attempts := 0
	for {
		p.cursor = (p.cursor + 1) % n
		if p.channels[p.cursor].TrySend(b) {
			return
		}
		attempts++
		if attempts%n == 0 {
			time.Sleep(100 * time.Nanosecond)
		}
	}
}

// Shutdown sends the sentinel to every worker (blocking if necessary,
// since the sentinel must never be dropped) and waits for all workers
// to drain and terminate.
func (p *Pool) Shutdown() []WorkerResult {
	for _, ch := range p.channels {
		ch.Send(Sentinel)
	}
	p.wg.Wait()
	return p.results
}
