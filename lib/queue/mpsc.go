// Package queue provides a lock-free Multi-Producer Single-Consumer (MPSC) queue
// used as the inbound message queue of every povms context.
//
// Features and Guarantees:
//
//   - Lock-Free writes: producers append with atomic operations only, the mutex is
//     held just long enough to wake a sleeping consumer
//   - Optional Capacity: a queue created with a capacity > 0 rejects pushes with
//     ErrFull once that many items are waiting
//   - Thread-Safe writes: any number of goroutines may Push() concurrently
//   - Single Consumer: items are delivered through the Recv() channel, which makes
//     the queue usable in select statements together with deadlines
//   - FIFO per producer: items pushed by one goroutine arrive in push order. Items
//     of concurrent producers are ordered by whoever completes the append first.
package queue

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrClosed is returned by Push after Close was called
	ErrClosed = errors.New("queue closed")
	// ErrFull is returned by Push when a bounded queue holds Capacity items
	ErrFull = errors.New("queue full")
)

// node represents a single element in the queue
type node[T interface{}] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// MPSC is a lock-free multi-producer single-consumer queue.
// Implementation uses a linked list of nodes with atomic operations
// and a consumer goroutine that feeds the output channel.
type MPSC[T interface{}] struct {
	head     atomic.Pointer[node[T]]
	tail     atomic.Pointer[node[T]]
	out      chan *T
	consumer sync.WaitGroup
	closed   atomic.Bool

	capacity int64
	size     atomic.Int64

	// Condition variable for efficient waiting
	mu   sync.Mutex
	cond *sync.Cond
}

// New creates a queue. A capacity of 0 means unbounded.
func New[T interface{}](capacity int) *MPSC[T] {
	// Create a sentinel node (dummy node at the beginning)
	sentinel := &node[T]{}

	q := &MPSC[T]{
		out:      make(chan *T),
		capacity: int64(capacity),
	}
	q.cond = sync.NewCond(&q.mu)

	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.consume()

	return q
}

// Push adds an item to the queue.
// It returns ErrClosed if the queue is closed and ErrFull if a bounded queue
// has no free slot. nil values are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *MPSC[T]) Push(value *T) error {
	if value == nil {
		return nil
	}
	if q.closed.Load() {
		return ErrClosed
	}
	if err := q.reserve(); err != nil {
		return err
	}

	newNode := &node[T]{value: value}
	var backoff uint8 = 0

	for {
		tailNode := q.tail.Load()

		// try to atomically append our node to the current tail
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// CAS may fail if another producer already helped moving the tail
				q.tail.CompareAndSwap(tailNode, newNode)

				// signal under mu, the consumer re-checks for items while holding it
				q.mu.Lock()
				q.cond.Signal()
				q.mu.Unlock()
				return nil
			}
		} else {
			// help update the tail pointer if another producer has already appended a node but hasn't updated the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// exponential backoff under contention
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// reserve claims one slot of a bounded queue
func (q *MPSC[T]) reserve() error {
	for {
		n := q.size.Load()
		if q.capacity > 0 && n >= q.capacity {
			return ErrFull
		}
		if q.size.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// consume continuously sends items from the linked list to the output channel
func (q *MPSC[T]) consume() {
	defer q.consumer.Done()
	defer close(q.out)

	for {
		hasItems := false

		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			hasItems = true

			value := next.value
			q.head.Store(next)

			q.out <- value
			q.size.Add(-1)

			// help go gc - safe to clear after sending
			next.value = nil
		}

		// Exit if closed and no more items
		if !hasItems && q.closed.Load() {
			return
		}

		if !hasItems {
			q.mu.Lock()
			// Double-check condition after acquiring lock
			if q.head.Load().next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// Recv returns a receive-only channel for consuming from the queue.
// The channel is closed once the queue is closed and drained.
func (q *MPSC[T]) Recv() <-chan *T {
	return q.out
}

// TryRecv returns the next item without waiting for new pushes. An item that
// is already counted by Len is waited for until the consumer goroutine hands
// it out, or until another receiver took it.
func (q *MPSC[T]) TryRecv() (*T, bool) {
	for {
		select {
		case v, ok := <-q.out:
			return v, ok
		default:
		}
		if q.size.Load() == 0 {
			return nil, false
		}
		runtime.Gosched()
	}
}

// Close closes the queue, preventing further writes.
// Items already in the queue are still delivered to the consumer.
func (q *MPSC[T]) Close() {
	q.mu.Lock()
	q.closed.Store(true)
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Drain closes the queue and discards every item that is still waiting.
// It returns the number of discarded items.
func (q *MPSC[T]) Drain() int {
	q.Close()
	n := 0
	for range q.out {
		n++
	}
	q.consumer.Wait()
	return n
}

// IsClosed returns true if the queue is closed.
func (q *MPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns the number of items that are waiting, including an item the
// consumer goroutine is currently trying to hand out.
func (q *MPSC[T]) Len() int {
	return int(q.size.Load())
}

// Capacity returns the configured capacity (0 = unbounded)
func (q *MPSC[T]) Capacity() int {
	return int(q.capacity)
}
