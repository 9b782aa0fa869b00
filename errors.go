// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpipc

import (
	"errors"
	"fmt"
)

// Connect errors. All are terminal at the Dial/Listen call site.
var (
	// ErrSocketListIsEmpty reports that the resolved address list was empty.
	ErrSocketListIsEmpty = errors.New("tcpipc: socket address list is empty")

	// ErrWaitTimeExceeded reports that connectWait elapsed before a
	// connection could be established.
	ErrWaitTimeExceeded = errors.New("tcpipc: connect wait time exceeded")
)

// SocketListParseError wraps a failure to resolve the given addresses.
type SocketListParseError struct{ Err error }

func (e *SocketListParseError) Error() string { return fmt.Sprintf("tcpipc: resolve addresses: %v", e.Err) }
func (e *SocketListParseError) Unwrap() error { return e.Err }

// ConnectionError wraps the last dial error seen while trying every
// resolved address.
type ConnectionError struct{ Err error }

func (e *ConnectionError) Error() string { return fmt.Sprintf("tcpipc: connect: %v", e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// BindError wraps a failure to bind a listening socket.
type BindError struct{ Err error }

func (e *BindError) Error() string { return fmt.Sprintf("tcpipc: bind: %v", e.Err) }
func (e *BindError) Unwrap() error { return e.Err }

// AcceptError wraps a failure to accept a connection on a bound listener.
type AcceptError struct{ Err error }

func (e *AcceptError) Error() string { return fmt.Sprintf("tcpipc: accept: %v", e.Err) }
func (e *AcceptError) Unwrap() error { return e.Err }

// SetNodelayError wraps a failure to set TCP_NODELAY at connect time.
type SetNodelayError struct{ Err error }

func (e *SetNodelayError) Error() string { return fmt.Sprintf("tcpipc: set nodelay: %v", e.Err) }
func (e *SetNodelayError) Unwrap() error { return e.Err }

// SetReceiveBufferSizeError wraps a failure to size the receive buffer.
type SetReceiveBufferSizeError struct{ Err error }

func (e *SetReceiveBufferSizeError) Error() string {
	return fmt.Sprintf("tcpipc: set receive buffer size: %v", e.Err)
}
func (e *SetReceiveBufferSizeError) Unwrap() error { return e.Err }

// SetSendBufferSizeError wraps a failure to size the send buffer.
type SetSendBufferSizeError struct{ Err error }

func (e *SetSendBufferSizeError) Error() string {
	return fmt.Sprintf("tcpipc: set send buffer size: %v", e.Err)
}
func (e *SetSendBufferSizeError) Unwrap() error { return e.Err }

// Read-thread errors, surfaced through GetMessage/AwaitMessage.
// ErrDisconnected and ProtocolError imply the endpoint is no longer usable
// (the worker has exited or is exiting); the others are per-message and
// recoverable from the application's point of view.

// ErrDisconnected reports that the worker goroutine has exited.
var ErrDisconnected = errors.New("tcpipc: disconnected")

// WriteError reports that an immediate-reply write on the worker's
// connection handle failed.
type WriteError struct{ Err error }

func (e *WriteError) Error() string { return fmt.Sprintf("tcpipc: immediate reply write: %v", e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// ReadError reports that a read on the worker's connection handle failed.
type ReadError struct{ Err error }

func (e *ReadError) Error() string { return fmt.Sprintf("tcpipc: read: %v", e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// ImmediateMessageConstructError reports that the Protocol implementation
// committed to answering a message immediately (ImmediateRoute returned
// ok=true) but then failed to construct the reply wire bytes. This
// indicates a flaw in the Protocol implementation.
type ImmediateMessageConstructError[C comparable] struct {
	Command C
	Payload []byte
}

func (e *ImmediateMessageConstructError[C]) Error() string {
	return fmt.Sprintf("tcpipc: immediate reply construction failed for command %v", e.Command)
}

// ProtocolError reports that ParseHeader returned a fatal error. The worker
// terminates after surfacing this report.
type ProtocolError struct{ Err error }

func (e *ProtocolError) Error() string { return fmt.Sprintf("tcpipc: protocol error: %v", e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

// Write errors, returned directly by WriteMessage.

// ErrMessageConstructionFailed reports that ConstructMessage returned
// ok=false for the given (command, payload); this indicates a flaw in the
// Protocol implementation.
var ErrMessageConstructionFailed = errors.New("tcpipc: message construction failed")

// MessageSendFailed wraps an I/O failure while sending an application
// message via WriteMessage.
type MessageSendFailed struct{ Err error }

func (e *MessageSendFailed) Error() string { return fmt.Sprintf("tcpipc: message send failed: %v", e.Err) }
func (e *MessageSendFailed) Unwrap() error { return e.Err }

// ShutdownError reports that one or both phases of Shutdown failed to
// complete. It is returned alongside which phases succeeded.
type ShutdownError struct {
	// ShutdownRequestedSuccessfully reports whether the shutdown signal was
	// accepted by the worker's shutdown channel.
	ShutdownRequestedSuccessfully bool
	// ShutdownSuccessfully reports whether the underlying socket shutdown
	// call succeeded.
	ShutdownSuccessfully bool
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("tcpipc: shutdown: requested=%t completed=%t",
		e.ShutdownRequestedSuccessfully, e.ShutdownSuccessfully)
}
