package povms

import (
	"runtime"
	"time"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/serializer"
)

// ProcessMessages takes at most one unit from the queue of c and handles it.
//
// A blocking call waits up to the configured poll interval for a unit, a non
// blocking call returns at once (yielding the processor first if yielding is
// set). The return value is
//   - nil if no unit arrived or the unit was a reply deposited for a waiting Send
//   - errcode.False if a fresh message was dispatched, more may be waiting
//   - the error of the unit otherwise (decode failure, no receiver, handler error)
func (c *Context) ProcessMessages(blocking, yielding bool) error {
	if c == nil || c.closed.Load() {
		return errcode.InvalidContext
	}

	var unit []byte
	if blocking {
		timer := time.NewTimer(c.config.PollInterval)
		defer timer.Stop()
		select {
		case u, ok := <-c.queue.Units():
			if !ok {
				return errcode.InvalidContext
			}
			unit = *u
		case <-timer.C:
			return nil
		}
	} else {
		u, ok := c.queue.TryDequeue()
		if !ok {
			if yielding {
				runtime.Gosched()
			}
			return nil
		}
		unit = u
	}
	return c.handleUnit(unit)
}

// handleUnit decodes one envelope and either deposits it as reply or dispatches it
func (c *Context) handleUnit(unit []byte) error {
	env, err := c.stream.ReadEnvelope(unit)
	if err != nil {
		c.metrics.inc(metricInvalid)
		Logger.Warningf("%s: dropping unit of %d bytes: %v", c.config.Name, len(unit), err)
		return err
	}
	c.metrics.inc(metricReceived)

	if rseq := common.ResultSequence(env.Msg); rseq != 0 {
		if p := c.lookupPending(rseq); p != nil {
			return c.deposit(p, env.Msg)
		}
		if env.Msg.Kind() == store.TypeResult {
			c.metrics.inc(metricStale)
			Logger.Debugf("%s: dropping reply %d, nobody is waiting for it", c.config.Name, rseq)
			return nil
		}
	}
	return c.dispatch(env)
}

// deposit hands reply to the Send waiting on p
func (c *Context) deposit(p *pendingReply, reply *store.Object) error {
	select {
	case p.reply <- reply:
		return nil
	default:
		Logger.Warningf("%s: second reply for sequence %d", c.config.Name, p.seq)
		return errcode.OutOfSync
	}
}

// dispatch runs the receiver for a fresh message and returns the result to
// the sender if one was requested
func (c *Context) dispatch(env *serializer.Envelope) error {
	msg, result := env.Msg, env.Result

	var rseq int64
	if result != nil {
		rseq = common.ResultSequence(result)
		route(msg, result)
	}

	err := c.Receive(msg, result, common.Mode(env.Mode))

	// the sender is blocked on this result even if the receiver failed
	if result != nil {
		c.reply(result, rseq)
	}
	if err != nil {
		return err
	}
	return errcode.False
}

// route addresses result back to the sender of msg
func route(msg, result *store.Object) {
	src, err := common.SourceAddress(msg)
	if err != nil || !src.IsValid() {
		src, _ = common.SourceAddress(result)
	}
	dst, err := common.DestinationAddress(msg)
	if err != nil || !dst.IsValid() {
		dst, _ = common.DestinationAddress(result)
	}
	_ = common.SetDestinationAddress(result, src)
	_ = common.SetSourceAddress(result, dst)
}

func (c *Context) reply(result *store.Object, rseq int64) {
	if err := result.SetLong(common.KeyResultSequence, rseq); err != nil {
		Logger.Errorf("%s: cannot tag reply %d: %v", c.config.Name, rseq, err)
		return
	}
	if err := c.Send(result, nil, common.ModeNoReply); err != nil {
		Logger.Warningf("%s: failed to send reply %d: %v", c.config.Name, rseq, err)
		return
	}
	c.metrics.inc(metricReplied)
}

// Receive dispatches msg to the receiver installed for its class and
// identifier. An exact receiver takes priority over the wildcard receiver of
// the class. The error the receiver returns is stored in the MERR key of result
// (if any) and returned.
//
// ProcessMessages calls Receive for every fresh unit. Code pumping units from
// its own queue implementation calls it directly.
func (c *Context) Receive(msg, result *store.Object, mode common.Mode) error {
	if c == nil || msg == nil {
		return errcode.Param
	}
	if msg.Locked() {
		return errcode.NotNow
	}

	err := c.receive(msg, result, mode)
	if result != nil {
		if serr := common.SetErrorCode(result, err); serr != nil {
			Logger.Errorf("%s: cannot store error code in result: %v", c.config.Name, serr)
		}
	}
	return err
}

func (c *Context) receive(msg, result *store.Object, mode common.Mode) error {
	class, err := common.MessageClass(msg)
	if err != nil {
		return err
	}
	id, err := common.MessageIdentifier(msg)
	if err != nil {
		return err
	}

	r, ok := c.lookupReceiver(class, id)
	if !ok {
		c.metrics.inc(metricUnhandled)
		return errcode.Wrap(errcode.CannotHandleData, "%s: no receiver for %s/%s", c.config.Name, class, id)
	}
	return r.fn(msg, result, mode, r.userData)
}
