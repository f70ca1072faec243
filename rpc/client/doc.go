// Package client provides typed helpers for talking to povms workers.
// It wraps the send modes of a context into calls that return Go errors.
//
// The package focuses on:
//   - Synchronous calls that turn the MERR key of a result into an error
//   - Fire and forget posts
//   - Typed helpers for the system messages every worker answers
//
// Key Components:
//
//   - New: Creates a client on an open context. The context is used both to send
//     and to receive the replies, so a client must not share its context with a
//     worker that blocks in long running handlers.
//
//   - Call: Sends with ModeWaitReply. Transport failures and timeouts are returned
//     without result, handler failures are returned together with the result so
//     partial answers stay accessible.
//
//   - Ping, Echo: Helpers for the SYST class served by server.NewPingAdapter.
//
// Usage Example:
//
//	ctx, _ := povms.OpenContext(common.DefaultContextConfig("frontend"))
//	defer ctx.CloseContext()
//
//	c := client.New(ctx).WithTimeout(5 * time.Second)
//	v, err := c.Ping(workerAddr, 41)
//	if errors.Is(err, errcode.Timeout) {
//	  // worker did not answer in time
//	}
//
// Thread Safety:
//
//	A client may be used from any number of goroutines. Every call owns its own
//	reply slot in the context, so concurrent calls do not interfere.
package client
