// Package povms implements the messaging context: the owner of an inbound queue,
// the receivers servicing the messages that arrive there and the request/reply
// correlation of synchronous sends.
//
// Key Components:
//
//   - Context: Opened with OpenContext (process wide registry) or OpenContextIn
//     (explicit registry). Its Address is what other contexts put into the MDST
//     key of a message to reach it.
//
//   - Receivers: InstallReceiver binds a Handler to a (class, id) pair. Wildcard as
//     id matches every id of the class that has no receiver of its own.
//
//   - Send: Encodes message and optional result into one envelope and enqueues it
//     at the destination. ModeWaitReply blocks until the reply arrived or the
//     timeout elapsed. Every waiting Send owns a reply slot keyed by the RSEQ it
//     stamped into the result, so sends may nest (a handler sending while its
//     context waits) and run concurrently.
//
//   - ProcessMessages: Takes one unit from the queue. Replies go to the slot of
//     the waiting Send, fresh messages go through Receive and, if the sender
//     asked for a result, the result is sent back with ModeNoReply.
//
// Usage:
//
//	ctx, err := povms.OpenContext(common.DefaultContextConfig("render"))
//	if err != nil {
//		return err
//	}
//	defer ctx.CloseContext()
//
//	_ = ctx.InstallReceiver(classRender, povms.Wildcard, handleRender, nil)
//	for {
//		if err := ctx.ProcessMessages(true, false); err != nil && !errors.Is(err, errcode.False) {
//			log.Printf("unit failed: %v", err)
//		}
//	}
//
// The server package wraps this loop into a Worker, the client package wraps
// synchronous sends into Call.
package povms
