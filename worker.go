// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpipc

import (
	"errors"
	"io"
	"net"
	"time"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/tcpipc/internal/queue"
)

// workerReport is what the worker posts on the outbound channel: either a
// delivered application message or one of the read-thread errors.
type workerReport[C comparable] struct {
	msg Message[C]
	err error
}

// worker uses the connection it shares with the Endpoint and drives the
// frame buffer.
// It runs as a single background goroutine spawned by startWorker and
// implements the {Running -> Draining -> Finished} state machine from
// spec.md §4.C: control-plane service (throttled by cfg.CheckCount) then a
// non-blocking read attempt then an optional sleep, every iteration.
type worker[C comparable, S any] struct {
	conn  net.Conn
	proto Protocol[C, S]
	buf   *frameBuffer[C, S]
	cfg   Config

	shutdown  chan struct{}
	queryReq  chan struct{}
	queryResp chan S
	busyUpd   *queue.SPSC[S]
	outbound  *queue.SPSC[workerReport[C]]
}

func startWorker[C comparable, S any](conn net.Conn, proto Protocol[C, S], cfg Config) *worker[C, S] {
	w := &worker[C, S]{
		conn:      conn,
		proto:     proto,
		buf:       newFrameBuffer[C, S](proto),
		cfg:       cfg,
		shutdown:  make(chan struct{}),
		queryReq:  make(chan struct{}, 1),
		queryResp: make(chan S, 1),
		busyUpd:   queue.New[S](),
		outbound:  queue.New[workerReport[C]](),
	}
	go w.run()
	return w
}

func (w *worker[C, S]) run() {
	// Closing queryResp on exit is what lets a blocked GetBusyState unblock
	// via ok==false when the worker terminates mid-query, the same closed-
	// channel idiom used for shutdown; serviceControlPlane is the only other
	// writer and only runs before this defer fires, so there is no
	// send-on-closed-channel race.
	defer close(w.queryResp)
	// Closing outbound on exit is what makes GetMessage report
	// ErrDisconnected once every queued report has been drained.
	defer w.outbound.Close()

	scratch := make([]byte, scratchBufferSize)
	var counter uint32

	for {
		counter++
		if counter >= w.cfg.CheckCount {
			counter = 0
			if !w.serviceControlPlane() {
				return
			}
		}

		n, err := w.readOnce(scratch)
		switch {
		case err == nil:
			if n > 0 && !w.handleIncoming(scratch[:n]) {
				return
			}
		case errors.Is(err, iox.ErrWouldBlock):
			// No data ready; nothing to do this iteration.
		case errors.Is(err, io.EOF):
			w.outbound.Send(workerReport[C]{err: ErrDisconnected})
			return
		default:
			w.outbound.Send(workerReport[C]{err: &ReadError{Err: err}})
		}

		if w.cfg.ReadIterationWaitTime > 0 {
			time.Sleep(w.cfg.ReadIterationWaitTime)
		}
	}
}

// serviceControlPlane drains the shutdown signal, answers at most one
// pending busy-state query, then fully drains queued busy-state updates, in
// that order. A query is therefore answered with the state as of the end of
// the previous pass: updates queued before it but not yet applied are not
// visible to it, only to later queries. It returns false when the worker
// must terminate.
func (w *worker[C, S]) serviceControlPlane() bool {
	select {
	case <-w.shutdown:
		return false
	default:
	}

	select {
	case <-w.queryReq:
		select {
		case w.queryResp <- w.buf.getBusyState():
		default:
			// GetBusyState always drains its own response before issuing
			// the next query, so this should never be full; the default
			// case only guards against blocking this goroutine if it ever is.
		}
	default:
	}

	for {
		s, ok, _ := w.busyUpd.TryRecv()
		if !ok {
			break
		}
		w.buf.updateBusyState(s)
	}

	return true
}

// readOnce performs one near-non-blocking read attempt. Go's net.Conn has
// no WouldBlock signal of its own; a read deadline one millisecond ahead is
// the stand-in (see SPEC_FULL.md §4.C): already-arrived bytes are returned
// at once, and with nothing queued the read times out after at most that
// millisecond. The timeout is mapped to iox.ErrWouldBlock so the rest of the
// worker reads the same control-flow vocabulary the teacher package uses for
// its own non-blocking I/O. A deadline that has already elapsed is not used:
// Go then fails the read before looking at the socket, even with data queued.
func (w *worker[C, S]) readOnce(p []byte) (int, error) {
	if err := w.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, err
	}
	n, err := w.conn.Read(p)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return n, iox.ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}

// handleIncoming feeds a freshly-read chunk into the frame buffer and drains
// every message it yields. It returns false when the worker must terminate.
func (w *worker[C, S]) handleIncoming(chunk []byte) bool {
	msg, ok, err := w.buf.processOnce(chunk)
	for {
		if err != nil {
			w.outbound.Send(workerReport[C]{err: err})
			return false
		}
		if !ok {
			return true
		}
		if !w.deliverOrReply(msg) {
			return false
		}
		msg, ok, err = w.buf.processOnce(nil)
	}
}

func (w *worker[C, S]) deliverOrReply(msg Message[C]) bool {
	busy := w.buf.getBusyState()
	replyCmd, replyPayload, isImmediate := w.proto.ImmediateRoute(msg.Command, msg.Payload, busy)
	if !isImmediate {
		w.outbound.Send(workerReport[C]{msg: msg})
		return true
	}

	wire, constructed := w.proto.ConstructMessage(replyCmd, replyPayload)
	if !constructed {
		w.outbound.Send(workerReport[C]{err: &ImmediateMessageConstructError[C]{Command: replyCmd, Payload: replyPayload}})
		return true
	}
	if _, err := w.conn.Write(wire); err != nil {
		w.outbound.Send(workerReport[C]{err: &WriteError{Err: err}})
		return true
	}
	return true
}
