// Package common provides the protocol elements and utilities shared by the
// context engine, workers, clients and the command line tools.
//
// The package focuses on:
//   - Reserved message keys and send modes
//   - Helpers reading and writing the addressing and correlation keys of a message
//   - Context configuration
//   - Custom logging implementation integrated with Dragonboat's logger facade
//
// Key Components:
//
//   - Mode: The reply expectation of a send (NoReply, WaitReply, WantReceipt).
//
//   - Reserved keys: MCLA/MIDE name the receiver, MSRC/MDST route the message,
//     MSEQ/RSEQ correlate a reply with its request, TOUT bounds a synchronous
//     send and MERR carries the error code of a result.
//
//   - ContextConfig: Queue capacity, default timeout, poll interval, metrics and
//     log level of one context.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the module.
package common
