package event

import (
	"errors"

	"github.com/robotalks/negicon/pkg/metrics"
)

// DefaultQueueSize is the default capacity of the outbound queue.
const DefaultQueueSize = 100

var (
	// ErrOverflow indicates the oldest report was evicted to make room.
	ErrOverflow = errors.New("queue overflow")
)

// Queue is a bounded FIFO of reports. When full, pushing evicts the
// oldest report.
type Queue struct {
	items   []Report
	head    int
	count   int
	evicted uint64
	gen     uint64
}

// NewQueue creates a Queue. A non-positive size uses DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{items: make([]Report, size)}
}

// Cap returns the capacity.
func (q *Queue) Cap() int {
	return len(q.items)
}

// Len returns the number of queued reports.
func (q *Queue) Len() int {
	return q.count
}

// Evicted returns the number of reports dropped on overflow.
func (q *Queue) Evicted() uint64 {
	return q.evicted
}

// Push appends a report. The report is always stored; ErrOverflow
// reports the oldest one was dropped.
func (q *Queue) Push(r Report) (err error) {
	if q.count == len(q.items) {
		q.head = (q.head + 1) % len(q.items)
		q.count--
		q.evicted++
		q.gen++
		metrics.QueueEvictions.Inc()
		err = ErrOverflow
	}
	q.items[(q.head+q.count)%len(q.items)] = r
	q.count++
	metrics.QueueDepth.Set(float64(q.count))
	return
}

// Generation identifies the current head. It changes whenever the
// head is removed, by Discard or by eviction.
func (q *Queue) Generation() uint64 {
	return q.gen
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (Report, bool) {
	if q.count == 0 {
		return Report{}, false
	}
	return q.items[q.head], true
}

// Discard removes the head.
func (q *Queue) Discard() {
	if q.count == 0 {
		return
	}
	q.head = (q.head + 1) % len(q.items)
	q.count--
	q.gen++
	metrics.QueueDepth.Set(float64(q.count))
}

// Pop removes and returns the head.
func (q *Queue) Pop() (Report, bool) {
	r, ok := q.Peek()
	if ok {
		q.Discard()
	}
	return r, ok
}
