// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard

import (
	"sync"
	"testing"
	"unsafe"
)

func TestHazardProtection(t *testing.T) {
	var destroyed int
	dom := NewDomain(1, 1, func(p unsafe.Pointer, ctx any) {
		destroyed++
	})

	reader := dom.Register()
	writer := dom.Register()
	defer dom.Unregister(reader)
	defer dom.Unregister(writer)

	val := 42
	p := unsafe.Pointer(&val)

	reader.PublishFence(0, p)

	writer.RetireAndMaybeReclaim(p, nil)
	if destroyed != 0 {
		t.Fatalf("destructor ran while a record still published the pointer")
	}
	if writer.Pending() != 1 {
		t.Fatalf("pending count = %d, want 1", writer.Pending())
	}

	reader.Clear()

	writer.Reclaim()
	if destroyed != 1 {
		t.Fatalf("destructor ran %d times, want exactly 1", destroyed)
	}
	if writer.Pending() != 0 {
		t.Fatalf("pending count = %d, want 0 after reclaim", writer.Pending())
	}
}

func TestHazardRecycle(t *testing.T) {
	dom := NewDomain(2, 10, func(unsafe.Pointer, any) {})
	r1 := dom.Register()
	dom.Unregister(r1)

	registered, free, _ := dom.Stats()
	if registered != 1 || free != 1 {
		t.Fatalf("registered=%d free=%d, want 1/1", registered, free)
	}

	r2 := dom.Recycle()
	if r2 != r1 {
		t.Fatalf("Recycle should return the unregistered record")
	}
	registered, free, _ = dom.Stats()
	if registered != 1 || free != 0 {
		t.Fatalf("registered=%d free=%d, want 1/0 after recycle", registered, free)
	}
}

func TestHazardPurgeConverges(t *testing.T) {
	var destroyed int
	dom := NewDomain(1, 1000, func(unsafe.Pointer, any) {
		destroyed++
	})
	rec := dom.Register()
	defer dom.Unregister(rec)

	for i := 0; i < 10; i++ {
		v := i
		rec.Retire(unsafe.Pointer(&v), nil)
	}
	rec.Purge()
	if destroyed != 10 {
		t.Fatalf("destroyed = %d, want 10", destroyed)
	}
	if rec.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", rec.Pending())
	}
}

func TestHazardConcurrentRetireAndScan(t *testing.T) {
	var mu sync.Mutex
	destroyedSet := map[unsafe.Pointer]bool{}
	dom := NewDomain(1, 4, func(p unsafe.Pointer, ctx any) {
		mu.Lock()
		destroyedSet[p] = true
		mu.Unlock()
	})

	const n = 200
	values := make([]int, n)
	ptrs := make([]unsafe.Pointer, n)
	for i := range values {
		values[i] = i
		ptrs[i] = unsafe.Pointer(&values[i])
	}

	var wg sync.WaitGroup
	readerDone := make(chan struct{})
	reader := dom.Register()
	go func() {
		defer close(readerDone)
		reader.PublishFence(0, ptrs[0])
	}()
	<-readerDone

	writer := dom.Register()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, p := range ptrs {
			writer.RetireAndMaybeReclaim(p, nil)
		}
		writer.Purge()
	}()
	wg.Wait()

	mu.Lock()
	protectedDestroyed := destroyedSet[ptrs[0]]
	mu.Unlock()
	if protectedDestroyed {
		t.Fatal("destructor ran on a pointer published by a live record")
	}

	reader.Clear()
	dom.Unregister(reader)
	writer.Purge()

	mu.Lock()
	defer mu.Unlock()
	if !destroyedSet[ptrs[0]] {
		t.Fatal("expected the previously-protected pointer to be reclaimed after clear")
	}
}
