// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpipc

import (
	"bytes"
	"errors"
	"testing"
)

// testProtocol is a minimal Protocol[uint8, uint8] used only by this file's
// frame buffer tests: a 2-byte header, 1 length byte followed by 1 command
// byte, both big-endian-trivial since they are single bytes.
type testProtocol struct{}

func (testProtocol) HeaderLen() int { return 2 }
func (testProtocol) Idle() uint8    { return 0 }

func (testProtocol) SliceToHeader(staging []byte) (header, remainder []byte, ok bool) {
	if len(staging) < 2 {
		return nil, staging, false
	}
	return staging[:2], staging[2:], true
}

func (testProtocol) ParseHeader(header []byte) (cmd uint8, payloadLen int, err error) {
	if header[0] == 0xFF {
		return 0, 0, errors.New("poison header")
	}
	return header[1], int(header[0]), nil
}

func (testProtocol) ConstructMessage(cmd uint8, payload []byte) ([]byte, bool) {
	if len(payload) > 0xFF {
		return nil, false
	}
	return append([]byte{byte(len(payload)), cmd}, payload...), true
}

func (testProtocol) ImmediateRoute(uint8, []byte, uint8) (uint8, []byte, bool) { return 0, nil, false }

// scriptedChunks feeds a full wire message through processOnce split at
// arbitrary boundaries, mirroring the teacher's scriptedReader pattern
// (framer_test.go) adapted from a pull-based io.Reader script to push-based
// byte chunks, since processOnce is fed rather than pulled from.
func scriptedChunks(t *testing.T, buf *frameBuffer[uint8, uint8], chunks [][]byte) (msgs []Message[uint8]) {
	t.Helper()
	for _, chunk := range chunks {
		msg, ok, err := buf.processOnce(chunk)
		if err != nil {
			t.Fatalf("processOnce: %v", err)
		}
		for ok {
			msgs = append(msgs, msg)
			msg, ok, err = buf.processOnce(nil)
			if err != nil {
				t.Fatalf("processOnce (drain): %v", err)
			}
		}
	}
	return msgs
}

// TestProcessOnceWholeMessageAtOnce is the baseline: a complete message
// arrives in a single chunk.
func TestProcessOnceWholeMessageAtOnce(t *testing.T) {
	buf := newFrameBuffer[uint8, uint8](testProtocol{})
	wire := []byte{3, 7, 'a', 'b', 'c'}

	msgs := scriptedChunks(t, buf, [][]byte{wire})
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Command != 7 || !bytes.Equal(msgs[0].Payload, []byte("abc")) {
		t.Fatalf("got %+v", msgs[0])
	}
}

// TestProcessOnceByteAtATime checks P1: chunking down to one byte at a time
// still yields exactly the same message.
func TestProcessOnceByteAtATime(t *testing.T) {
	buf := newFrameBuffer[uint8, uint8](testProtocol{})
	wire := []byte{3, 7, 'a', 'b', 'c'}

	var chunks [][]byte
	for _, b := range wire {
		chunks = append(chunks, []byte{b})
	}

	msgs := scriptedChunks(t, buf, chunks)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Command != 7 || !bytes.Equal(msgs[0].Payload, []byte("abc")) {
		t.Fatalf("got %+v", msgs[0])
	}
}

// TestProcessOnceChunkingIndependence checks P2: the same byte stream,
// split at every possible boundary between the two messages, always yields
// the same two messages in the same order.
func TestProcessOnceChunkingIndependence(t *testing.T) {
	wire := []byte{2, 1, 'h', 'i', 1, 2, 'x'}

	for split := 0; split <= len(wire); split++ {
		buf := newFrameBuffer[uint8, uint8](testProtocol{})
		var chunks [][]byte
		if split > 0 {
			chunks = append(chunks, wire[:split])
		}
		if split < len(wire) {
			chunks = append(chunks, wire[split:])
		}

		msgs := scriptedChunks(t, buf, chunks)
		if len(msgs) != 2 {
			t.Fatalf("split=%d: got %d messages, want 2", split, len(msgs))
		}
		if msgs[0].Command != 1 || !bytes.Equal(msgs[0].Payload, []byte("hi")) {
			t.Fatalf("split=%d: msg0 = %+v", split, msgs[0])
		}
		if msgs[1].Command != 2 || !bytes.Equal(msgs[1].Payload, []byte("x")) {
			t.Fatalf("split=%d: msg1 = %+v", split, msgs[1])
		}
	}
}

// TestProcessOnceAtMostOneMessagePerCall checks P3: a single processOnce
// call, even when fed a chunk containing two complete messages worth of
// bytes, returns only the first and leaves the rest staged for the next
// drain call.
func TestProcessOnceAtMostOneMessagePerCall(t *testing.T) {
	buf := newFrameBuffer[uint8, uint8](testProtocol{})
	wire := append([]byte{1, 1, 'a'}, []byte{1, 2, 'b'}...)

	msg, ok, err := buf.processOnce(wire)
	if err != nil || !ok {
		t.Fatalf("first processOnce: ok=%v err=%v", ok, err)
	}
	if msg.Command != 1 || !bytes.Equal(msg.Payload, []byte("a")) {
		t.Fatalf("first message = %+v", msg)
	}

	msg, ok, err = buf.processOnce(nil)
	if err != nil || !ok {
		t.Fatalf("second processOnce: ok=%v err=%v", ok, err)
	}
	if msg.Command != 2 || !bytes.Equal(msg.Payload, []byte("b")) {
		t.Fatalf("second message = %+v", msg)
	}

	_, ok, err = buf.processOnce(nil)
	if err != nil || ok {
		t.Fatalf("third processOnce should report no message, got ok=%v err=%v", ok, err)
	}
}

// TestProcessOnceInvariants checks I1-I3 hold after every single-byte feed,
// across a stream carrying three variable-length messages.
func TestProcessOnceInvariants(t *testing.T) {
	buf := newFrameBuffer[uint8, uint8](testProtocol{})
	wire := append(append([]byte{0, 9}, []byte{4, 1, 'w', 'x', 'y', 'z'}...), []byte{2, 2, 'o', 'k'}...)

	for _, b := range wire {
		_, _, err := buf.processOnce([]byte{b})
		if err != nil {
			t.Fatalf("processOnce: %v", err)
		}
		for {
			_, ok, err := buf.processOnce(nil)
			if err != nil {
				t.Fatalf("processOnce (drain): %v", err)
			}
			if !ok {
				break
			}
		}

		if buf.hasPending && len(buf.assembled) >= buf.pendingLen {
			t.Fatalf("I1 violated: assembled=%d pendingLen=%d", len(buf.assembled), buf.pendingLen)
		}
		if !buf.hasPending && len(buf.assembled) != 0 {
			t.Fatalf("I2 violated: assembled=%d while not pending", len(buf.assembled))
		}
		if !buf.hasPending && len(buf.staging) >= (testProtocol{}).HeaderLen() {
			t.Fatalf("I3 violated: staging=%d bytes while not pending", len(buf.staging))
		}
	}
}

// TestProcessOnceFatalHeaderError checks that a poisoned header surfaces a
// ProtocolError rather than panicking, per the documented resolution of the
// header-parse-failure design question.
func TestProcessOnceFatalHeaderError(t *testing.T) {
	buf := newFrameBuffer[uint8, uint8](testProtocol{})
	_, ok, err := buf.processOnce([]byte{0xFF, 0x00})
	if ok {
		t.Fatal("processOnce reported ok=true on a poisoned header")
	}
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ProtocolError", err)
	}
}

// TestBusyStateRoundTrip checks that updateBusyState/getBusyState are plain
// storage, independent of the framing state machine.
func TestBusyStateRoundTrip(t *testing.T) {
	buf := newFrameBuffer[uint8, uint8](testProtocol{})
	if buf.getBusyState() != 0 {
		t.Fatalf("initial busy state = %d, want 0 (Idle)", buf.getBusyState())
	}
	buf.updateBusyState(5)
	if buf.getBusyState() != 5 {
		t.Fatalf("busy state = %d, want 5", buf.getBusyState())
	}
}
