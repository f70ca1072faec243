package povms

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/serializer"
	"github.com/ValentinKolb/povms/rpc/transport"
	"github.com/ValentinKolb/povms/rpc/transport/local"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("povms")

// Wildcard registers a receiver for every identifier of a class that has no
// receiver of its own
const Wildcard = store.TypeWildCard

// Handler services a fresh message. result is nil unless the sender waits for a
// reply. The returned error is stored as error code in the result.
type Handler func(msg, result *store.Object, mode common.Mode, userData any) error

type receiverKey struct {
	class, id store.Type
}

type receiver struct {
	fn       Handler
	userData any
}

// pendingReply is the slot a Send(WaitReply) waits on
type pendingReply struct {
	seq   int64
	reply chan *store.Object
}

// Context owns one inbound queue together with the receivers dispatching the
// units that arrive there. All methods are safe for concurrent use. Units are
// consumed by whoever calls ProcessMessages or waits inside Send.
type Context struct {
	config    common.ContextConfig
	registry  transport.IRegistry
	queue     transport.IQueue
	stream    *serializer.Stream
	receivers *xsync.MapOf[receiverKey, receiver]
	metrics   *contextMetrics

	nextSeq atomic.Int64
	closed  atomic.Bool

	mu      sync.Mutex
	pending map[int64]*pendingReply
}

// OpenContext opens a context whose queue lives in the process wide registry
func OpenContext(config common.ContextConfig) (*Context, error) {
	return OpenContextIn(local.Default(), config)
}

// OpenContextIn opens a context whose queue is created in registry. Contexts can
// only reach queues of the registry they were opened in.
func OpenContextIn(registry transport.IRegistry, config common.ContextConfig) (*Context, error) {
	if registry == nil {
		return nil, errcode.Param
	}
	config = config.WithDefaults()

	q, err := registry.Open(config.QueueCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue: %w", err)
	}
	if config.Name == "" {
		config.Name = q.Address().String()
	}

	c := &Context{
		config:    config,
		registry:  registry,
		queue:     q,
		stream:    serializer.NewStream(nil),
		receivers: xsync.NewMapOf[receiverKey, receiver](),
		pending:   make(map[int64]*pendingReply),
	}
	if config.Metrics {
		c.metrics = newContextMetrics(config.Name)
	}

	Logger.Infof("opened context %s at %s", config.Name, q.Address())
	return c, nil
}

// CloseContext removes every receiver and closes the queue. Units still waiting
// in the queue are discarded, a Send waiting for a reply returns
// errcode.InvalidContext.
func (c *Context) CloseContext() error {
	if c == nil {
		return errcode.Param
	}
	if !c.closed.CompareAndSwap(false, true) {
		return errcode.InvalidContext
	}
	c.receivers.Clear()
	n := c.queue.Close()
	Logger.Infof("closed context %s (%d units discarded)", c.config.Name, n)
	return nil
}

// Address returns the address other contexts send to in order to reach c
func (c *Context) Address() addr.Address {
	return c.queue.Address()
}

// Name returns the configured context name
func (c *Context) Name() string {
	return c.config.Name
}

// Config returns the effective configuration of c
func (c *Context) Config() common.ContextConfig {
	return c.config
}

// --------------------------------------------------------------------------
// Receivers
// --------------------------------------------------------------------------

// InstallReceiver registers fn for messages of the given class and identifier.
// id may be Wildcard. A receiver installed for the same pair before is replaced.
func (c *Context) InstallReceiver(class, id store.Type, fn Handler, userData any) error {
	if c == nil || fn == nil {
		return errcode.Param
	}
	if c.closed.Load() {
		return errcode.InvalidContext
	}
	c.receivers.Store(receiverKey{class: class, id: id}, receiver{fn: fn, userData: userData})
	Logger.Debugf("%s: installed receiver %s/%s", c.config.Name, class, id)
	return nil
}

// RemoveReceiver removes the receiver for class and id. It returns
// errcode.Param if no such receiver is installed.
func (c *Context) RemoveReceiver(class, id store.Type) error {
	if c == nil {
		return errcode.Param
	}
	if c.closed.Load() {
		return errcode.InvalidContext
	}
	if _, ok := c.receivers.LoadAndDelete(receiverKey{class: class, id: id}); !ok {
		return errcode.Wrap(errcode.Param, "no receiver for %s/%s", class, id)
	}
	return nil
}

// lookupReceiver finds the receiver for an exact class and id, falling back to
// the wildcard receiver of the class
func (c *Context) lookupReceiver(class, id store.Type) (receiver, bool) {
	if r, ok := c.receivers.Load(receiverKey{class: class, id: id}); ok {
		return r, true
	}
	return c.receivers.Load(receiverKey{class: class, id: Wildcard})
}

// --------------------------------------------------------------------------
// Pending replies
// --------------------------------------------------------------------------

func (c *Context) expect(seq int64) *pendingReply {
	p := &pendingReply{seq: seq, reply: make(chan *store.Object, 1)}
	c.mu.Lock()
	c.pending[seq] = p
	c.mu.Unlock()
	return p
}

func (c *Context) forget(seq int64) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

func (c *Context) lookupPending(seq int64) *pendingReply {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[seq]
}

// Pending returns the number of Send(WaitReply) calls waiting for their reply
func (c *Context) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
