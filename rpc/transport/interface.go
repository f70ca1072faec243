package transport

import (
	"github.com/ValentinKolb/povms/lib/addr"
)

// --------------------------------------------------------------------------
// Queue
// --------------------------------------------------------------------------

// IQueue is the inbound queue of one context. It carries complete units
// (envelopes) and is the only povms structure shared between goroutines:
// any goroutine may enqueue, exactly one consumer drains it.
type IQueue interface {
	// Address returns the address other contexts use to reach this queue
	Address() addr.Address
	// Enqueue appends a unit. It fails with errcode.QueueFull when the queue is
	// at capacity and with errcode.InvalidContext once the queue is closed.
	Enqueue(unit []byte) error
	// Units delivers the queued units in FIFO order. The channel is closed
	// after Close once every unit has been handed out or discarded.
	Units() <-chan *[]byte
	// TryDequeue returns the next unit without blocking
	TryDequeue() ([]byte, bool)
	// Len returns the number of waiting units
	Len() int
	// Close stops accepting units, discards the waiting ones and returns how
	// many were discarded
	Close() int
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// IRegistry creates queues and resolves addresses to them
type IRegistry interface {
	// Open creates a queue with the given capacity (0 = unbounded) and a fresh address
	Open(capacity int) (IQueue, error)
	// Lookup returns the queue reachable under a. It fails with errcode.Param
	// when no queue is registered for the address.
	Lookup(a addr.Address) (IQueue, error)
	// Len returns the number of open queues
	Len() int
}
