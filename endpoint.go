// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpipc

import (
	"errors"
	"net"
	"sync"
	"time"
)

// Endpoint is the public façade for one connected peer: it owns the
// application-side connection handle and the worker's control channels.
// Created by Dial or Listen; destroyed explicitly by Shutdown, which
// consumes the Endpoint.
type Endpoint[C comparable, S any] struct {
	conn   net.Conn
	proto  Protocol[C, S]
	worker *worker[C, S]
	cfg    Config

	shutdownOnce sync.Once
	noDelay      bool
}

// Dial connects to the first reachable address in addrs, each resolved via
// net.ResolveTCPAddr, and starts the background worker. connectWait bounds
// the total time spent across all candidate addresses; zero means keep
// retrying an address indefinitely while its dial attempts time out, each
// attempt bounded by a 5 second dial timeout.
func Dial[C comparable, S any](addrs []string, proto Protocol[C, S], connectWait time.Duration, opts ...Option) (*Endpoint[C, S], error) {
	if len(addrs) == 0 {
		return nil, ErrSocketListIsEmpty
	}

	deadline := time.Time{}
	if connectWait > 0 {
		deadline = time.Now().Add(connectWait)
	}

	var lastErr error = ErrSocketListIsEmpty
	for _, addr := range addrs {
		resolved, err := net.ResolveTCPAddr("tcp", addr)
		if err != nil {
			lastErr = &SocketListParseError{Err: err}
			continue
		}

		conn, err := dialOne(resolved, deadline)
		if err != nil {
			if errors.Is(err, ErrWaitTimeExceeded) {
				return nil, ErrWaitTimeExceeded
			}
			lastErr = &ConnectionError{Err: err}
			continue
		}
		return start(conn, proto, opts)
	}
	return nil, lastErr
}

func dialOne(addr *net.TCPAddr, deadline time.Time) (net.Conn, error) {
	for {
		var perAttempt time.Duration = 5 * time.Second
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil, ErrWaitTimeExceeded
			}
			if remaining < perAttempt {
				perAttempt = remaining
			}
		}
		conn, err := net.DialTimeout("tcp", addr.String(), perAttempt)
		if err == nil {
			return conn, nil
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				return nil, ErrWaitTimeExceeded
			}
			continue
		}
		return nil, err
	}
}

// Listen binds the first bindable address in addrs and accepts exactly one
// connection, then starts the background worker.
func Listen[C comparable, S any](addrs []string, proto Protocol[C, S], opts ...Option) (*Endpoint[C, S], error) {
	if len(addrs) == 0 {
		return nil, ErrSocketListIsEmpty
	}

	var lastErr error = ErrSocketListIsEmpty
	for _, addr := range addrs {
		resolved, err := net.ResolveTCPAddr("tcp", addr)
		if err != nil {
			lastErr = &SocketListParseError{Err: err}
			continue
		}
		ln, err := net.ListenTCP("tcp", resolved)
		if err != nil {
			lastErr = &BindError{Err: err}
			continue
		}
		conn, err := ln.Accept()
		_ = ln.Close()
		if err != nil {
			lastErr = &AcceptError{Err: err}
			continue
		}
		return start(conn, proto, opts)
	}
	return nil, lastErr
}

// start implements start_read_thread: fix socket options, spawn the worker
// on the same connection, then optionally wait for the
// peer to initialise before returning the Endpoint.
func start[C comparable, S any](conn net.Conn, proto Protocol[C, S], opts []Option) (*Endpoint[C, S], error) {
	cfg := resolveConfig(opts)

	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return nil, &SetNodelayError{Err: err}
		}
		h := proto.HeaderLen()
		if err := tc.SetReadBuffer(h); err != nil {
			_ = conn.Close()
			return nil, &SetReceiveBufferSizeError{Err: err}
		}
		if err := tc.SetWriteBuffer(h); err != nil {
			_ = conn.Close()
			return nil, &SetSendBufferSizeError{Err: err}
		}
	}

	// The worker and the Endpoint share the same *net.TCPConn value: unlike
	// a dup'd file descriptor, a Go net.Conn is already safe for concurrent
	// use by two goroutines doing independent Read/Write calls (see
	// SPEC_FULL.md §4.D), so there is no separate handle to clone.
	w := startWorker(conn, proto, cfg)

	ep := &Endpoint[C, S]{conn: conn, proto: proto, worker: w, cfg: cfg, noDelay: true}

	if cfg.AfterConnectWaitTime > 0 {
		time.Sleep(cfg.AfterConnectWaitTime)
	}
	return ep, nil
}

// UpdateBusyState pushes s onto the busy-state-update queue. It never
// blocks.
func (e *Endpoint[C, S]) UpdateBusyState(s S) BusyStateUpdateResult {
	select {
	case <-e.worker.shutdown:
		return BusyStateUpdateDisconnected
	default:
	}
	e.worker.busyUpd.Send(s)
	return BusyStateUpdateSuccess
}

// GetBusyState pushes a query request and blocks for the worker's response,
// with no per-operation timeout: the worker answers every accepted query
// before it next blocks on anything else. If the worker terminates with the
// query still outstanding, it closes queryResp as part of its exit (the
// same closed-channel idiom used for shutdown), which unblocks this call
// with ok==false instead of leaving it waiting forever.
func (e *Endpoint[C, S]) GetBusyState() (S, error) {
	var zero S
	select {
	case e.worker.queryReq <- struct{}{}:
	case <-e.worker.shutdown:
		return zero, ErrDisconnected
	}
	s, ok := <-e.worker.queryResp
	if !ok {
		return zero, ErrDisconnected
	}
	return s, nil
}

// GetMessage does a non-blocking pull from the outbound queue. ok is true
// only when a message was available. A non-nil error is a reported
// read-thread error, or ErrDisconnected once the worker has exited; ok is
// always false when err is non-nil.
func (e *Endpoint[C, S]) GetMessage() (msg Message[C], ok bool, err error) {
	r, ok, closed := e.worker.outbound.TryRecv()
	if !ok {
		if closed {
			return Message[C]{}, false, ErrDisconnected
		}
		return Message[C]{}, false, nil
	}
	if r.err != nil {
		return Message[C]{}, false, r.err
	}
	return r.msg, true, nil
}

// AwaitMessage polls GetMessage until the first of {message, error,
// timeout}. ok is false with a nil error on timeout.
func (e *Endpoint[C, S]) AwaitMessage(maxWait time.Duration, iterWait time.Duration) (msg Message[C], ok bool, err error) {
	deadline := time.Now().Add(maxWait)
	for {
		msg, ok, err = e.GetMessage()
		if err != nil || ok {
			return msg, ok, err
		}
		if !time.Now().Before(deadline) {
			return Message[C]{}, false, nil
		}
		if iterWait > 0 {
			time.Sleep(iterWait)
		}
	}
}

// ClearMessageQueue optionally sleeps, then drains the outbound queue via
// repeated GetMessage until it is empty or an error is reported.
func (e *Endpoint[C, S]) ClearMessageQueue(sleep time.Duration) error {
	if sleep > 0 {
		time.Sleep(sleep)
	}
	for {
		_, ok, err := e.GetMessage()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// WriteMessage constructs the wire bytes for (cmd, payload) and writes them
// to the connection, blocking until the write completes. This is the
// application's direct send path, distinct from the worker's immediate-
// reply send.
func (e *Endpoint[C, S]) WriteMessage(cmd C, payload []byte) error {
	wire, ok := e.proto.ConstructMessage(cmd, payload)
	if !ok {
		return ErrMessageConstructionFailed
	}
	if _, err := writeAll(e.conn, wire); err != nil {
		return &MessageSendFailed{Err: err}
	}
	return nil
}

func writeAll(w interface{ Write([]byte) (int, error) }, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := w.Write(p[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Shutdown consumes the Endpoint: it signals the worker, optionally waits
// ShutdownWaitTime for the worker to drain, then shuts down the socket in
// both directions. It is safe to call more than once; only the first call
// has effect.
func (e *Endpoint[C, S]) Shutdown() error {
	var shutdownErr *ShutdownError
	e.shutdownOnce.Do(func() {
		requested := true
		select {
		case <-e.worker.shutdown:
			requested = false
		default:
			close(e.worker.shutdown)
		}

		if e.cfg.ShutdownWaitTime > 0 {
			time.Sleep(e.cfg.ShutdownWaitTime)
		}

		completed := true
		if tc, ok := e.conn.(*net.TCPConn); ok {
			if err := tc.Close(); err != nil {
				completed = false
			}
		} else if err := e.conn.Close(); err != nil {
			completed = false
		}

		if !requested || !completed {
			shutdownErr = &ShutdownError{
				ShutdownRequestedSuccessfully: requested,
				ShutdownSuccessfully:          completed,
			}
		}
	})
	if shutdownErr != nil {
		return shutdownErr
	}
	return nil
}

// SetNoDelay toggles TCP_NODELAY on the underlying connection.
func (e *Endpoint[C, S]) SetNoDelay(noDelay bool) error {
	tc, ok := e.conn.(*net.TCPConn)
	if !ok {
		return errUnsupportedConn
	}
	if err := tc.SetNoDelay(noDelay); err != nil {
		return err
	}
	e.noDelay = noDelay
	return nil
}

// NoDelay reports the current TCP_NODELAY setting. Go's net package does
// not expose a getter for this socket option, so NoDelay tracks the value
// set via SetNoDelay/connect-time defaults instead of querying the kernel.
func (e *Endpoint[C, S]) NoDelay() (bool, error) {
	if _, ok := e.conn.(*net.TCPConn); !ok {
		return false, errUnsupportedConn
	}
	return e.noDelay, nil
}

var errUnsupportedConn = errors.New("tcpipc: connection does not support this option")
