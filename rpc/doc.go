// Package rpc groups the messaging layer of povms: everything needed to move
// value store objects between contexts and to service them on the other side.
//
// The package is organized into several subpackages:
//
//   - common: Reserved keys, send modes, message helpers, configuration and logging.
//
//   - serializer: The byte order independent stream codec, the envelope format
//     and whole object serializers (Binary, JSON, GOB).
//
//   - transport: Queue abstractions. local implements in-process queues, base
//     frames envelopes on byte pipes.
//
//   - povms: The context engine with Send, ProcessMessages and Receive.
//
//   - server: Workers pumping a context and dispatching to adapters.
//
//   - client: Typed calls on top of a context.
package rpc
