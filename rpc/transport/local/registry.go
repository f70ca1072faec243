package local

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/queue"
	"github.com/ValentinKolb/povms/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("queue")

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// registry implements transport.IRegistry for in-process queues. Queue ids are
// handed out from an atomic counter starting at 1, id 0 is the invalid address.
type registry struct {
	queues *xsync.MapOf[uint64, *localQueue]
	nextID atomic.Uint64
}

// NewRegistry creates an empty registry
func NewRegistry() transport.IRegistry {
	return &registry{
		queues: xsync.NewMapOf[uint64, *localQueue](),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process wide registry
func Default() transport.IRegistry {
	return defaultRegistry
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRegistry)
// --------------------------------------------------------------------------

func (r *registry) Open(capacity int) (transport.IQueue, error) {
	if capacity < 0 {
		return nil, errcode.Param
	}
	q := &localQueue{
		id:    r.nextID.Add(1),
		owner: r,
		mpsc:  queue.New[[]byte](capacity),
	}
	r.queues.Store(q.id, q)
	Logger.Debugf("opened queue %d (capacity %d)", q.id, capacity)
	return q, nil
}

func (r *registry) Lookup(a addr.Address) (transport.IQueue, error) {
	if a.Kind() != addr.KindSystem {
		return nil, fmt.Errorf("no local route to %s: %w", a, errcode.Param)
	}
	q, ok := r.queues.Load(a.Queue())
	if !ok {
		return nil, fmt.Errorf("no queue registered for %s: %w", a, errcode.Param)
	}
	return q, nil
}

func (r *registry) Len() int {
	return r.queues.Size()
}

// --------------------------------------------------------------------------
// Queue
// --------------------------------------------------------------------------

// localQueue implements transport.IQueue on top of the lock-free MPSC queue
type localQueue struct {
	id    uint64
	owner *registry
	mpsc  *queue.MPSC[[]byte]
}

func (q *localQueue) Address() addr.Address {
	return addr.System(q.id)
}

func (q *localQueue) Enqueue(unit []byte) error {
	err := q.mpsc.Push(&unit)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, queue.ErrFull):
		return errcode.QueueFull
	case errors.Is(err, queue.ErrClosed):
		return errcode.InvalidContext
	default:
		return err
	}
}

func (q *localQueue) Units() <-chan *[]byte {
	return q.mpsc.Recv()
}

func (q *localQueue) TryDequeue() ([]byte, bool) {
	unit, ok := q.mpsc.TryRecv()
	if !ok || unit == nil {
		return nil, false
	}
	return *unit, true
}

func (q *localQueue) Len() int {
	return q.mpsc.Len()
}

func (q *localQueue) Close() int {
	q.owner.queues.Delete(q.id)
	n := q.mpsc.Drain()
	if n > 0 {
		Logger.Warningf("queue %d closed with %d pending units", q.id, n)
	}
	return n
}
