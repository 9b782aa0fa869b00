// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"sync"
	"testing"
)

func TestSPSCFIFOOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		q.Send(i)
	}
	for i := 0; i < 5; i++ {
		v, ok, closed := q.TryRecv()
		if !ok || closed {
			t.Fatalf("TryRecv(%d): ok=%v closed=%v", i, ok, closed)
		}
		if v != i {
			t.Fatalf("TryRecv(%d) = %d, want %d", i, v, i)
		}
	}
	if _, ok, closed := q.TryRecv(); ok || closed {
		t.Fatalf("TryRecv on empty queue: ok=%v closed=%v, want both false", ok, closed)
	}
}

func TestSPSCSendNeverBlocksUnbounded(t *testing.T) {
	q := New[int]()
	for i := 0; i < 10000; i++ {
		q.Send(i)
	}
	count := 0
	for {
		_, ok, _ := q.TryRecv()
		if !ok {
			break
		}
		count++
	}
	if count != 10000 {
		t.Fatalf("drained %d items, want 10000", count)
	}
}

func TestSPSCCloseDrainsThenReportsClosed(t *testing.T) {
	q := New[string]()
	q.Send("a")
	q.Send("b")
	q.Close()

	v, ok, closed := q.TryRecv()
	if !ok || closed || v != "a" {
		t.Fatalf("first TryRecv = %q, ok=%v, closed=%v", v, ok, closed)
	}
	v, ok, closed = q.TryRecv()
	if !ok || closed || v != "b" {
		t.Fatalf("second TryRecv = %q, ok=%v, closed=%v", v, ok, closed)
	}
	_, ok, closed = q.TryRecv()
	if ok || !closed {
		t.Fatalf("TryRecv after drain: ok=%v closed=%v, want ok=false closed=true", ok, closed)
	}
}

func TestSPSCSendAfterCloseIsNoop(t *testing.T) {
	q := New[int]()
	q.Close()
	q.Send(1)
	_, ok, closed := q.TryRecv()
	if ok || !closed {
		t.Fatalf("TryRecv after Send-post-Close: ok=%v closed=%v, want ok=false closed=true", ok, closed)
	}
}

func TestSPSCConcurrentProducerConsumer(t *testing.T) {
	q := New[int]()
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Send(i)
		}
		q.Close()
	}()

	got := 0
	for {
		_, ok, closed := q.TryRecv()
		if ok {
			got++
			continue
		}
		if closed {
			break
		}
	}
	wg.Wait()
	if got != n {
		t.Fatalf("received %d items, want %d", got, n)
	}
}
