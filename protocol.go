// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tcpipc provides a protocol-parametric TCP inter-process
// communication endpoint.
//
// A single connected peer (either the active connector or the passive
// acceptor) exchanges length-prefixed, command-tagged messages according to
// a user-supplied Protocol description, while a background worker goroutine
// continuously frames incoming bytes into complete messages and, for a
// configurable subset of commands, synthesises and transmits an immediate
// reply without involving the application goroutine.
//
// tcpipc owns exactly two things: the framing engine that turns a byte
// stream into a sequence of (command, payload) messages given only a
// user-defined header layout, and the read-loop/control-plane concurrency
// model that lets the application goroutine and the worker goroutine
// cooperate over typed, directional channels. Concrete command/header
// encoding is supplied by the caller through Protocol; see package lenproto
// for a ready-made length-prefixed codec.
package tcpipc

// Protocol is the capability bundle a caller supplies to describe one wire
// protocol. C is the command tag type; it must be comparable so it can be
// compared and used as an error payload. S is the busy-state type the
// caller uses to drive immediate-reply decisions.
//
// Every method must be deterministic and free of blocking I/O: tcpipc calls
// these from its own goroutines and never expects them to suspend.
// ConstructMessage and ParseHeader must be inverses on valid input — for any
// (c, p) with ConstructMessage(c, p) = (w, true), feeding w through a fresh
// frame buffer must emit exactly one message (c, p).
type Protocol[C comparable, S any] interface {
	// HeaderLen returns H, the fixed length in bytes of this protocol's
	// header. It must return the same value for the lifetime of the
	// Protocol value.
	HeaderLen() int

	// Idle returns the busy state a newly-constructed endpoint starts in.
	Idle() S

	// SliceToHeader recognises and extracts the first HeaderLen() bytes of
	// staging, if present. ok is false when staging holds fewer than
	// HeaderLen() bytes; header aliases the first HeaderLen() bytes of
	// staging and remainder the rest.
	SliceToHeader(staging []byte) (header, remainder []byte, ok bool)

	// ParseHeader decodes a header produced by SliceToHeader into a command
	// tag and the payload length that follows it. A non-nil err is a
	// protocol-level fault; the caller treats it as fatal.
	ParseHeader(header []byte) (cmd C, payloadLen int, err error)

	// ConstructMessage builds the complete wire representation of one
	// message. ok is false to signal a protocol-invariant violation (the
	// caller cannot construct a valid message for this (cmd, payload)).
	ConstructMessage(cmd C, payload []byte) (wire []byte, ok bool)

	// ImmediateRoute reports whether (cmd, payload) should be answered
	// immediately by the worker, without delivery to the application. When
	// ok is true, (replyCmd, replyPayload) is constructed via
	// ConstructMessage and written back to the peer on the same connection;
	// the inbound message is then dropped rather than delivered.
	ImmediateRoute(cmd C, payload []byte, busy S) (replyCmd C, replyPayload []byte, ok bool)
}

// Message is one framed (command, payload) pair delivered to the
// application, or received by the worker for an immediate-reply decision.
type Message[C comparable] struct {
	Command C
	Payload []byte
}
