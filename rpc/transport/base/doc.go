// Package base provides the byte stream side of povms transports: splitting a
// pipe into units and feeding them into a context queue.
//
// The package focuses on:
//   - Reading units incrementally, header first, so a stream can be split without
//     knowing anything about the objects inside
//   - Writing several units with a single vectored write
//   - Forwarding units from any io.Reader into an in-process queue
//
// Key Components:
//
//   - ReadUnit: Reads the 16 byte header, validates it with
//     serializer.CheckMessageHeader and then reads the announced remainder.
//     Distinguishes a clean end of stream (io.EOF) from a truncated unit
//     (errcode.IncompleteData).
//
//   - WriteUnits: Validates every unit header and writes all units through
//     net.Buffers, combining them into as few syscalls as the writer allows.
//
//   - Forward: The queue pump for custom transports. Units read from the stream
//     are enqueued into a transport.IQueue. A full queue is retried with
//     exponential backoff and jitter until the context is cancelled.
//
// Thread Safety:
//
//	The functions keep no state. A reader or writer must not be shared between
//	concurrent calls, the target queue may be.
package base
