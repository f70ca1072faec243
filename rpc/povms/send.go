package povms

import (
	"errors"
	"time"

	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/serializer"
	"github.com/ValentinKolb/povms/rpc/transport"
	"github.com/ValentinKolb/povms/rpc/transport/local"
)

// Send delivers msg to the queue named by its MDST key.
//
// With common.ModeWaitReply the caller must pass a result object. Send then
// blocks until the receiver's reply arrived (and was copied into result) or the
// timeout of the message (TOUT key, otherwise the context default) elapsed,
// measured from the moment Send was called. Units arriving at c while waiting
// are dispatched on the calling goroutine, so a handler may send back into a
// waiting context.
//
// Send stamps MSRC (if missing or invalid) and MSEQ into msg and RSEQ into result.
// A nil context can only send with common.ModeNoReply and requires msg to carry a
// valid MSRC.
func (c *Context) Send(msg, result *store.Object, mode common.Mode) error {
	if msg == nil {
		return errcode.Param
	}
	if msg.Locked() {
		return errcode.NotNow
	}
	if !mode.Valid() {
		return errcode.Param
	}
	if result != nil && mode != common.ModeWaitReply {
		return errcode.Param
	}
	if mode == common.ModeWaitReply && result == nil {
		return errcode.Param
	}

	if c == nil {
		if mode != common.ModeNoReply {
			return errcode.Param
		}
		return sendDetached(msg)
	}
	if c.closed.Load() {
		return errcode.InvalidContext
	}
	start := time.Now()

	if src, err := common.SourceAddress(msg); err != nil || !src.IsValid() {
		if err := common.SetSourceAddress(msg, c.Address()); err != nil {
			return err
		}
	}
	timeout := common.TimeoutOr(msg, c.config.Timeout())
	if err := msg.SetLong(common.KeySequence, c.nextSeq.Add(1)); err != nil {
		return err
	}

	var p *pendingReply
	if mode == common.ModeWaitReply {
		rseq := c.nextSeq.Add(1)
		if err := result.SetLong(common.KeyResultSequence, rseq); err != nil {
			return err
		}
		p = c.expect(rseq)
		defer c.forget(rseq)
	}

	if err := deliver(c.registry, c.stream, msg, result, mode); err != nil {
		if errors.Is(err, errcode.QueueFull) {
			c.metrics.inc(metricQueueFull)
		}
		return err
	}
	c.metrics.inc(metricSent)

	if p == nil {
		return nil
	}
	return c.await(p, result, start.Add(timeout))
}

// await dispatches incoming units until the reply for p arrived or the deadline passed
func (c *Context) await(p *pendingReply, result *store.Object, deadline time.Time) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		select {
		case reply := <-p.reply:
			return store.Copy(reply, result)
		case <-timer.C:
			c.metrics.inc(metricTimeouts)
			Logger.Warningf("%s: no reply for sequence %d before deadline", c.config.Name, p.seq)
			return errcode.Timeout
		case unit, ok := <-c.queue.Units():
			if !ok {
				return errcode.InvalidContext
			}
			if err := c.handleUnit(*unit); err != nil && !errors.Is(err, errcode.False) {
				Logger.Debugf("%s: unit handled while waiting for %d: %v", c.config.Name, p.seq, err)
			}
		}
	}
}

// sendDetached delivers msg through the process wide registry
func sendDetached(msg *store.Object) error {
	if src, err := common.SourceAddress(msg); err != nil || !src.IsValid() {
		return errcode.Wrap(errcode.Param, "message sent without context needs a source address")
	}
	return deliver(local.Default(), serializer.NewStream(nil), msg, nil, common.ModeNoReply)
}

// deliver encodes the envelope and enqueues it at the destination of msg
func deliver(registry transport.IRegistry, stream *serializer.Stream, msg, result *store.Object, mode common.Mode) error {
	dst, err := common.DestinationAddress(msg)
	if err != nil {
		return err
	}
	unit, err := stream.WriteEnvelope(int32(mode), msg, result)
	if err != nil {
		return err
	}
	q, err := registry.Lookup(dst)
	if err != nil {
		return err
	}
	return q.Enqueue(unit)
}
