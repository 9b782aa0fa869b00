// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpipc

// frameBuffer is the stateful incremental framer owned by the worker: bytes
// in, (command, payload) messages out. It implements invariants I1-I5:
//
//	I1: hasPending => len(assembled) < pendingLen; once it reaches
//	    pendingLen, a message is emitted and hasPending resets to false.
//	I2: !hasPending => assembled is empty.
//	I3: len(staging) < H whenever !hasPending.
//	I4: no byte appears in both staging and assembled.
//	I5: concatenation of all emitted message bytes, in order, followed by
//	    assembled, followed by staging, equals the prefix of the inbound
//	    byte stream this buffer has observed.
//
// The algorithm is the same one as original_source/src/main.rs's
// ProtocolBuffer::process_new_buffer, without recursion: the header step
// falls through to the payload step in the same call, per spec.md's stated
// preference for avoiding recursion on pathological inputs.
type frameBuffer[C comparable, S any] struct {
	proto Protocol[C, S]

	hasPending bool
	pendingCmd C
	pendingLen int
	assembled  []byte
	staging    []byte
	busy       S
}

func newFrameBuffer[C comparable, S any](proto Protocol[C, S]) *frameBuffer[C, S] {
	return &frameBuffer[C, S]{proto: proto, busy: proto.Idle()}
}

func (b *frameBuffer[C, S]) updateBusyState(s S) { b.busy = s }
func (b *frameBuffer[C, S]) getBusyState() S     { return b.busy }

// processOnce appends incoming to staging and returns at most one completed
// message. Callers drain by calling processOnce(nil) until ok is false.
func (b *frameBuffer[C, S]) processOnce(incoming []byte) (msg Message[C], ok bool, err error) {
	if len(incoming) > 0 {
		b.staging = append(b.staging, incoming...)
	}

	if !b.hasPending {
		header, remainder, found := b.proto.SliceToHeader(b.staging)
		if !found {
			return Message[C]{}, false, nil
		}
		cmd, payloadLen, perr := b.proto.ParseHeader(header)
		if perr != nil {
			return Message[C]{}, false, &ProtocolError{Err: perr}
		}
		b.hasPending = true
		b.pendingCmd = cmd
		b.pendingLen = payloadLen
		b.staging = remainder
		b.assembled = b.assembled[:0]
		// Re-evaluate below with hasPending now true: this is the
		// non-recursive equivalent of process_new_buffer's "process the
		// remaining buffer" recursive call.
	}

	need := b.pendingLen - len(b.assembled)
	if len(b.staging) < need {
		b.assembled = append(b.assembled, b.staging...)
		b.staging = b.staging[:0]
		return Message[C]{}, false, nil
	}

	b.assembled = append(b.assembled, b.staging[:need]...)
	payload := b.assembled
	b.staging = b.staging[need:]
	b.assembled = nil
	b.hasPending = false

	return Message[C]{Command: b.pendingCmd, Payload: payload}, true, nil
}
