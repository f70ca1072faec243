// Package cmd implements the povms command-line interface. It provides tools
// to inspect the wire format and to measure the message passing core.
//
// The package is organized into several subpackages:
//
//   - stream: Commands to dump envelopes or object streams and to write samples
//   - bench: In-process round trip and codec benchmarks
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See povms -help for a list of all commands.
package cmd
