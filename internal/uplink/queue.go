package uplink

import (
	"container/heap"
	"log/slog"
	"sync"
)

// Dispatch priorities. Lower values drain first; live traffic preempts the
// bulk node snapshot refresh.
const (
	PriorityMessages  = 10
	PriorityNeighbors = 20
	PriorityTraces    = 25
	PriorityPositions = 30
	PriorityTelemetry = 40
	PriorityNodes     = 50
	PriorityDefault   = 90
)

// Poster issues one outbound POST for a drained record.
type Poster interface {
	Post(path string, body map[string]any) error
}

type entry struct {
	priority int
	seq      uint64
	path     string
	body     map[string]any
}

// Queue serialises outbound POSTs in (priority, arrival) order. The caller
// that flips the active flag drains the queue to empty; concurrent enqueues
// during a drain just append and return.
type Queue struct {
	logger *slog.Logger
	poster Poster

	mu      sync.Mutex
	entries entryHeap
	seq     uint64
	active  bool
}

func NewQueue(logger *slog.Logger, poster Poster) *Queue {
	return &Queue{logger: logger, poster: poster}
}

// Enqueue adds one record. If no drain is in progress the calling goroutine
// becomes the drainer and blocks until the queue empties; HTTP I/O happens
// outside the lock.
func (q *Queue) Enqueue(path string, body map[string]any, priority int) {
	q.mu.Lock()
	q.seq++
	heap.Push(&q.entries, entry{priority: priority, seq: q.seq, path: path, body: body})
	if q.active {
		q.mu.Unlock()

		return
	}
	q.active = true
	q.mu.Unlock()

	q.drain()
}

// Len reports the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.entries.Len()
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if q.entries.Len() == 0 {
			q.active = false
			q.mu.Unlock()

			return
		}
		next := heap.Pop(&q.entries).(entry)
		q.mu.Unlock()

		// Failed POSTs are logged and discarded; the dashboard resyncs
		// itself from the periodic node snapshot.
		if err := q.poster.Post(next.path, next.body); err != nil {
			q.logger.Warn("uplink post failed", "path", next.path, "priority", next.priority, "error", err)
		}
	}
}

type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}

	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}
