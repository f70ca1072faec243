// Package serializer provides the binary stream codec of povms together with the
// envelope format that carries messages between contexts.
//
// The package focuses on:
//   - Encoding attribute trees into a byte order independent wire format
//   - Framing a message (and an optional result) into one transmitted unit
//   - Validating unit headers so streaming transports can split a byte pipe
//   - Converting whole objects into debug friendly formats
//
// Key Components:
//
//   - OrderTables: Byte permutations for every fixed width scalar kind, derived once
//     per process by probing the host byte order with known bit patterns. The wire
//     itself is big endian. Tests build tables from any binary.ByteOrder to simulate
//     foreign hosts.
//
//   - Stream: The recursive codec. Every attribute is written as a type code, a size
//     field and a kind specific body. Objects and lists carry their child count as
//     size, strings their byte length without terminator, vectors their element count.
//     Size always equals the number of bytes Write produces.
//
//   - Envelope: "POVRAYMS", protocol version 0x0351, total size, mode, object count,
//     then the message (and the result) each prefixed with its stream size.
//     CheckMessageHeader needs only the first 16 bytes to report the total size.
//
//   - IObjectSerializer: Whole object conversion. binarySerializerImpl uses Stream,
//     jsonSerializerImpl and gobSerializerImpl map the tree onto plain Go values
//     first and are used for dumps and tooling.
//
// Thread Safety:
//
//	Stream, OrderTables and all serializer implementations are stateless after
//	construction and safe for concurrent use. The objects passed in are not: an
//	object must not be modified while it is being encoded.
//
// Usage:
//
//	stream := serializer.NewStream(nil)
//	unit, err := stream.WriteEnvelope(int32(common.ModeNoReply), msg, nil)
//	// ... move unit through a queue or pipe ...
//	env, err := stream.ReadEnvelope(unit)
package serializer
