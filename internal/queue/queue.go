// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue provides a minimal single-producer/single-consumer
// unbounded queue used for tcpipc's control-plane channels.
package queue

import "sync"

// SPSC is an unbounded FIFO queue safe for one producer goroutine and one
// consumer goroutine. Send never blocks. Closed queues report zero values
// and ok=false from TryRecv, mirroring a closed Go channel's receive
// semantics so callers can treat "closed" and "empty-forever" uniformly.
type SPSC[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	// wake carries at most one pending notification; a buffered receiver
	// can select on it instead of busy-polling TryRecv.
	wake chan struct{}
}

// New returns an empty, open queue.
func New[T any]() *SPSC[T] {
	return &SPSC[T]{wake: make(chan struct{}, 1)}
}

// Send appends v to the queue. It never blocks. Send on a closed queue is a
// no-op (there is no receiver left to observe v).
func (q *SPSC[T]) Send(v T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// TryRecv removes and returns the oldest queued value, if any. ok is false
// when the queue is currently empty (closed or not); closed is true once
// Close has been called and the queue has been fully drained.
func (q *SPSC[T]) TryRecv() (v T, ok bool, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return v, false, q.closed
	}
	v = q.items[0]
	q.items[0] = *new(T)
	q.items = q.items[1:]
	return v, true, false
}

// Close marks the queue closed. Already-queued values remain available via
// TryRecv; once drained, TryRecv reports closed=true.
func (q *SPSC[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
