// Package server turns a povms context into a long running worker. A worker
// pumps the queue of its context and hands every fresh message to the adapter
// registered for the message class.
//
// The package focuses on:
//   - Running the ProcessMessages loop until a context.Context is cancelled
//   - Adapter pattern to decouple message handling from queue mechanics
//   - Built-in system messages every worker can answer
//
// Key Components:
//
//   - IMessageAdapter: Interface for all adapters. Handle gets the message, the
//     result the sender waits for (or nil) and the send mode. Its error ends up
//     in the MERR key of the result.
//
//   - NewWorker: Factory creating a worker for an open context. Register installs
//     an adapter as wildcard receiver of its class.
//
//   - NewPingAdapter: Adapter for the SYST class. PING answers with VAL1+1, ECHO
//     copies the payload of the message into the result.
//
// Usage Example:
//
//	ctx, _ := povms.OpenContext(common.DefaultContextConfig("worker"))
//	defer ctx.CloseContext()
//
//	w := server.NewWorker(ctx)
//	_ = w.Register(server.NewPingAdapter())
//
//	// Serve until interrupted
//	stdctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := w.Serve(stdctx); err != nil {
//	  log.Fatalf("worker error: %v", err)
//	}
//
// Thread Safety:
//
//	Register may be called while the worker is serving. Serve must run on one
//	goroutine only, handlers therefore never run concurrently on one worker.
package server
