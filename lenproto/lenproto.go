// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lenproto is a ready-made tcpipc.Protocol implementation: a fixed-
// width big-endian (or native-order) length prefix followed by a fixed-width
// command tag, with no payload self-description beyond that.
//
// It generalises the wire-format convention the pack's framing library uses
// internally (a length field committing the reader to an exact payload size
// before any payload byte arrives) into a protocol whose field widths are
// chosen by the caller rather than baked into the codec, since tcpipc's
// header layout is user-fixed rather than self-describing.
package lenproto

import (
	"encoding/binary"
	"fmt"
)

// maxFieldWidth is the widest length or command field this codec supports;
// 8 bytes covers every width a uint64 can hold.
const maxFieldWidth = 8

// ImmediateRouter decides whether a received (command, payload) pair should
// be answered immediately by the worker rather than delivered to the
// application. It mirrors tcpipc.Protocol.ImmediateRoute's signature exactly
// and may be nil, in which case no command is ever answered immediately.
type ImmediateRouter[S any] func(cmd uint64, payload []byte, busy S) (replyCmd uint64, replyPayload []byte, ok bool)

// Codec is a tcpipc.Protocol[uint64, S] with a LengthWidth-byte length field
// followed by a CommandWidth-byte command field. Commands are carried as
// uint64 regardless of CommandWidth so callers can use named uint64
// constants for readability without a generic command type per wire layout.
type Codec[S any] struct {
	lengthWidth  int
	commandWidth int
	order        binary.ByteOrder
	idle         S
	immediate    ImmediateRouter[S]
}

// New builds a Codec with the given field widths (1-8 bytes each) and byte
// order. idle is the busy state a fresh endpoint starts in. immediate may be
// nil.
//
// New panics if lengthWidth or commandWidth is outside [1, 8]; these are
// codec construction-time invariants, not runtime data errors, so they are
// checked the same way the teacher's packages panic on invalid
// construction-time options rather than returning an error only the caller
// could have avoided by reading the doc comment.
func New[S any](lengthWidth, commandWidth int, order binary.ByteOrder, idle S, immediate ImmediateRouter[S]) *Codec[S] {
	if lengthWidth < 1 || lengthWidth > maxFieldWidth {
		panic(fmt.Sprintf("lenproto: lengthWidth must be in [1, %d], got %d", maxFieldWidth, lengthWidth))
	}
	if commandWidth < 1 || commandWidth > maxFieldWidth {
		panic(fmt.Sprintf("lenproto: commandWidth must be in [1, %d], got %d", maxFieldWidth, commandWidth))
	}
	return &Codec[S]{
		lengthWidth:  lengthWidth,
		commandWidth: commandWidth,
		order:        order,
		idle:         idle,
		immediate:    immediate,
	}
}

// NewNative builds a Codec using this machine's native byte order instead
// of a network-standard one; see native_order_*.go for how that order is
// determined per platform.
func NewNative[S any](lengthWidth, commandWidth int, idle S, immediate ImmediateRouter[S]) *Codec[S] {
	return New[S](lengthWidth, commandWidth, nativeOrder(), idle, immediate)
}

func (c *Codec[S]) HeaderLen() int { return c.lengthWidth + c.commandWidth }

func (c *Codec[S]) Idle() S { return c.idle }

func (c *Codec[S]) SliceToHeader(staging []byte) (header, remainder []byte, ok bool) {
	h := c.HeaderLen()
	if len(staging) < h {
		return nil, staging, false
	}
	return staging[:h], staging[h:], true
}

func (c *Codec[S]) ParseHeader(header []byte) (cmd uint64, payloadLen int, err error) {
	if len(header) != c.HeaderLen() {
		return 0, 0, fmt.Errorf("lenproto: header has %d bytes, want %d", len(header), c.HeaderLen())
	}
	length := c.getUint(header[:c.lengthWidth])
	cmd = c.getUint(header[c.lengthWidth:])
	if length > uint64(maxPayloadLen) {
		return 0, 0, fmt.Errorf("lenproto: declared payload length %d exceeds maximum %d", length, maxPayloadLen)
	}
	return cmd, int(length), nil
}

func (c *Codec[S]) ConstructMessage(cmd uint64, payload []byte) (wire []byte, ok bool) {
	if !c.fitsWidth(uint64(len(payload)), c.lengthWidth) || !c.fitsWidth(cmd, c.commandWidth) {
		return nil, false
	}
	wire = make([]byte, 0, c.HeaderLen()+len(payload))
	wire = c.appendUint(wire, uint64(len(payload)), c.lengthWidth)
	wire = c.appendUint(wire, cmd, c.commandWidth)
	wire = append(wire, payload...)
	return wire, true
}

func (c *Codec[S]) ImmediateRoute(cmd uint64, payload []byte, busy S) (replyCmd uint64, replyPayload []byte, ok bool) {
	if c.immediate == nil {
		return 0, nil, false
	}
	return c.immediate(cmd, payload, busy)
}

// maxPayloadLen bounds a single declared payload length to what a Go slice
// index can address on a 32-bit platform; only a lengthWidth of 4 bytes or
// more can declare a larger value.
const maxPayloadLen = 1<<31 - 1

func (c *Codec[S]) fitsWidth(v uint64, width int) bool {
	if width >= maxFieldWidth {
		return true
	}
	return v < uint64(1)<<(uint(width)*8)
}

func (c *Codec[S]) getUint(b []byte) uint64 {
	var buf [maxFieldWidth]byte
	if c.order == binary.BigEndian {
		copy(buf[maxFieldWidth-len(b):], b)
	} else {
		copy(buf[:len(b)], b)
	}
	if c.order == binary.BigEndian {
		return binary.BigEndian.Uint64(buf[:])
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func (c *Codec[S]) appendUint(dst []byte, v uint64, width int) []byte {
	var buf [maxFieldWidth]byte
	if c.order == binary.BigEndian {
		binary.BigEndian.PutUint64(buf[:], v)
		return append(dst, buf[maxFieldWidth-width:]...)
	}
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:width]...)
}
