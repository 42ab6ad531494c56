package notify

import (
	"sync/atomic"

	"github.com/hedzr/go-ringbuf/v2/mpmc"
)

// DefaultQueueSize is the number of notifications kept before the oldest is dropped.
const DefaultQueueSize = 16

// Queue is a multi-producer notification buffer that overwrites the oldest
// entry when full. Ready signals a consumer that entries are waiting.
type Queue struct {
	buffer      mpmc.RichOverlappedRingBuffer[Notification]
	ready       chan struct{}
	overwritten atomic.Uint64
	errors      atomic.Uint64
}

var _ Notifier = (*Queue)(nil)

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		buffer: mpmc.NewOverlappedRingBuffer[Notification](uint32(size)),
		ready:  make(chan struct{}, 1),
	}
}

// Notify enqueues n without blocking.
func (q *Queue) Notify(n Notification) {
	overwrites, err := q.buffer.EnqueueM(n)
	if err != nil {
		q.errors.Add(1)
		return
	}
	q.overwritten.Add(uint64(overwrites))

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled after Notify; one signal may cover several entries.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain returns every queued notification, oldest first.
func (q *Queue) Drain() []Notification {
	var out []Notification
	for !q.buffer.IsEmpty() {
		n, err := q.buffer.Dequeue()
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

// Overwritten reports how many notifications were dropped to make room.
func (q *Queue) Overwritten() uint64 {
	return q.overwritten.Load()
}
