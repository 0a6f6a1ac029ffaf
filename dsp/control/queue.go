package control

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-multidelay/dsp/core"
)

// DefaultQueueCapacity absorbs a dense burst of controller moves between
// two buffers of a typical host.
const DefaultQueueCapacity = 256

// ErrCapacity is returned for a non-positive queue capacity.
var ErrCapacity = errors.New("control: queue capacity must be >= 1")

// Queue is a bounded single-producer/single-consumer ring of events.
//
// head and tail count pops and pushes since creation. The producer alone
// stores tail and the consumer alone stores head; each loads the other's
// counter to detect full or empty. The slot write happens before the tail
// store that publishes it, and the slot read happens before the head store
// that frees it.
type Queue struct {
	// Producer-owned.
	tail    atomic.Uint64
	dropped atomic.Uint64
	_       [48]byte

	// Consumer-owned.
	head atomic.Uint64
	_    [56]byte

	mask  uint64
	slots []Event
}

// NewQueue returns a queue holding at least capacity events. The capacity
// is rounded up to a power of two.
func NewQueue(capacity int) (*Queue, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	size := core.NextPowerOfTwo(capacity)
	return &Queue{
		mask:  uint64(size - 1),
		slots: make([]Event, size),
	}, nil
}

// TryPush appends ev. It returns false without blocking or overwriting
// anything when the queue is full. Producer only.
func (q *Queue) TryPush(ev Event) bool {
	t := q.tail.Load()
	if t-q.head.Load() == uint64(len(q.slots)) {
		q.dropped.Add(1)
		return false
	}
	q.slots[t&q.mask] = ev
	q.tail.Store(t + 1)
	return true
}

// TryPop removes the oldest event into ev. It returns false when the queue
// is empty. Consumer only.
func (q *Queue) TryPop(ev *Event) bool {
	h := q.head.Load()
	if h == q.tail.Load() {
		return false
	}
	*ev = q.slots[h&q.mask]
	q.head.Store(h + 1)
	return true
}

// Len returns the number of queued events. From either side it is a
// snapshot that may be stale by the time it is used.
func (q *Queue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the number of slots.
func (q *Queue) Cap() int {
	return len(q.slots)
}

// Dropped returns how many pushes failed because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
