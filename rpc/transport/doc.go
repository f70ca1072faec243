// Package transport defines the queue abstractions messages travel through.
// A context owns one queue; senders look the destination queue up by address
// and enqueue the encoded envelope.
//
// The package focuses on:
//   - A queue contract that any delivery mechanism can fulfil
//   - Address based lookup of destination queues
//   - Keeping the object model independent of how units are moved
//
// Key Components:
//
//   - IQueue: Bounded multi producer, single consumer queue of encoded units.
//     Units arrive in FIFO order per producer.
//
//   - IRegistry: Opens queues and resolves addresses to queues.
//
// Implementations:
//
//   - local: In-process queues on top of lib/queue. Addresses are system
//     addresses carrying the queue id.
//
//   - base: Helpers moving units over byte pipes (io.Reader/io.Writer), the
//     building block for bridging queues across processes.
package transport
