// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"sync"
	"testing"
)

func TestMPMCFIFOOrder(t *testing.T) {
	q := NewMPMC[string]()
	q.Enqueue("A")
	q.Enqueue("B")
	q.Enqueue("C")

	for _, want := range []string{"A", "B", "C"} {
		got, _, ok := q.Dequeue()
		if !ok || got != want {
			t.Fatalf("Dequeue() = %q, %v, want %q, true", got, ok, want)
		}
	}
	if _, _, ok := q.Dequeue(); ok {
		t.Fatal("Dequeue on empty queue returned ok=true")
	}
}

func TestMPMCTryEnqueueTryDequeue(t *testing.T) {
	q := NewMPMC[int]()
	if !q.TryEnqueue(1) {
		t.Fatal("TryEnqueue should succeed uncontended")
	}
	v, _, ok := q.TryDequeue()
	if !ok || v != 1 {
		t.Fatalf("TryDequeue() = %d, %v, want 1, true", v, ok)
	}
	if _, _, ok := q.TryDequeue(); ok {
		t.Fatal("TryDequeue on empty queue returned ok=true")
	}
}

func TestMPMCConcurrentProducersConsumers(t *testing.T) {
	q := NewMPMC[int]()
	const producers, perProducer = 16, 1000
	const total = producers * perProducer

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(base*perProducer + i)
			}
		}(p)
	}
	wg.Wait()

	var mu sync.Mutex
	seen := make([]bool, total)
	var consumers sync.WaitGroup
	for c := 0; c < producers; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				v, _, ok := q.Dequeue()
				if !ok {
					return
				}
				mu.Lock()
				if seen[v] {
					t.Errorf("value %d dequeued twice", v)
				}
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	consumers.Wait()

	for i, ok := range seen {
		if !ok {
			t.Fatalf("value %d never dequeued", i)
		}
	}
}

func TestSPSCFIFOOrder(t *testing.T) {
	q := NewSPSC[string]()
	q.Enqueue("A")
	q.Enqueue("B")
	q.Enqueue("C")

	for _, want := range []string{"A", "B", "C"} {
		got, garbage, ok := q.Dequeue()
		if !ok || got != want {
			t.Fatalf("Dequeue() = %q, %v, want %q, true", got, ok, want)
		}
		q.Recycle(garbage)
	}
	if _, _, ok := q.Dequeue(); ok {
		t.Fatal("Dequeue on empty queue returned ok=true")
	}
}

func TestSPSCRecyclePool(t *testing.T) {
	q := NewSPSC[int]()
	for i := 0; i < 100; i++ {
		q.Enqueue(i)
		v, garbage, ok := q.Dequeue()
		if !ok || v != i {
			t.Fatalf("Dequeue() = %d, %v, want %d, true", v, ok, i)
		}
		q.Recycle(garbage)
	}
}

func TestMPMCDrainHint(t *testing.T) {
	q := NewMPMC[int]()
	if q.Draining() {
		t.Fatal("Draining() true before Drain() called")
	}
	q.Enqueue(1)
	q.Drain()
	if !q.Draining() {
		t.Fatal("Draining() false after Drain() called")
	}
	v, _, ok := q.Dequeue()
	if !ok || v != 1 {
		t.Fatalf("Dequeue() = %d, %v, want 1, true", v, ok)
	}
	if _, _, ok := q.Dequeue(); ok {
		t.Fatal("Dequeue() on drained empty queue returned ok")
	}
}

func TestSPSCDrainHint(t *testing.T) {
	q := NewSPSC[int]()
	if q.Draining() {
		t.Fatal("Draining() true before Drain() called")
	}
	q.Enqueue(1)
	q.Drain()
	if !q.Draining() {
		t.Fatal("Draining() false after Drain() called")
	}
	v, garbage, ok := q.Dequeue()
	if !ok || v != 1 {
		t.Fatalf("Dequeue() = %d, %v, want 1, true", v, ok)
	}
	q.Recycle(garbage)
}

func TestSPSCConcurrentProducerConsumer(t *testing.T) {
	q := NewSPSC[int]()
	const n = 20000
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			q.Enqueue(i)
		}
	}()

	for i := 0; i < n; i++ {
		var v int
		for {
			got, g, ok := q.Dequeue()
			if ok {
				v = got
				q.Recycle(g)
				break
			}
		}
		if v != i {
			t.Fatalf("Dequeue() = %d, want %d", v, i)
		}
	}
	<-done
}
