// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cow

import (
	"sync"
	"testing"
	"unsafe"

	"code.hybscloud.com/conc/allocator"
)

func TestArrayPutCommitVisibility(t *testing.T) {
	a, err := NewArray[int](2, allocator.Default())
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	if n := a.Length(); n != 0 {
		t.Fatalf("Length() = %d, want 0", n)
	}

	if err := a.Put(1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n := a.Length(); n != 0 {
		t.Fatalf("Length() before commit = %d, want 0 (uncommitted edits must not be visible)", n)
	}

	if !a.Commit(nil) {
		t.Fatal("Commit() = false")
	}
	if n := a.Length(); n != 1 {
		t.Fatalf("Length() after commit = %d, want 1", n)
	}

	vals, n := a.Buffer()
	if n != 1 || vals[0] != 1 {
		t.Fatalf("Buffer() = %v, %d, want [1], 1", vals, n)
	}
}

func TestArrayPutUnique(t *testing.T) {
	a, _ := NewArray[int](4, allocator.Default())
	if got := a.PutUnique(5); got != 0 {
		t.Fatalf("PutUnique(5) = %d, want 0", got)
	}
	a.Commit(nil)
	if got := a.PutUnique(5); got != 1 {
		t.Fatalf("PutUnique(5) second time = %d, want 1 (already present)", got)
	}
}

func TestArrayRemove(t *testing.T) {
	a, _ := NewArray[int](4, allocator.Default())
	a.Put(10)
	a.Put(20)
	a.Put(30)
	a.Commit(nil)

	if !a.Remove(20) {
		t.Fatal("Remove(20) = false, want true")
	}
	a.Commit(nil)

	vals, n := a.Buffer()
	if n != 2 {
		t.Fatalf("Length after remove = %d, want 2", n)
	}
	for _, v := range vals {
		if v == 20 {
			t.Fatal("removed value still present")
		}
	}

	if a.Remove(999) {
		t.Fatal("Remove of absent value returned true")
	}
}

func TestArrayCommitNoTransactionIsNoop(t *testing.T) {
	a, _ := NewArray[int](2, allocator.Default())
	if !a.Commit(nil) {
		t.Fatal("Commit() with no pending transaction should return true")
	}
}

func TestArrayForEachStableUnderConcurrentCommit(t *testing.T) {
	a, _ := NewArray[int](2, allocator.Default())
	for i := 0; i < 100; i++ {
		a.Put(i)
		a.Commit(nil)
	}

	var wg sync.WaitGroup
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				prevLen := -1
				a.ForEach(func(index int, value int) {
					if index != prevLen+1 {
						t.Errorf("ForEach indices not contiguous: got %d after %d", index, prevLen)
					}
					prevLen = index
				})
			}
		}()
	}
	for i := 100; i < 150; i++ {
		a.Put(i)
		a.Commit(nil)
	}
	wg.Wait()
}

func TestArrayReclaimCallback(t *testing.T) {
	a, _ := NewArray[int](2, allocator.Default())
	a.Put(1)
	a.Commit(nil)

	var reclaimed unsafe.Pointer
	a.Put(2)
	a.Commit(func(old unsafe.Pointer) {
		reclaimed = old
	})
	if reclaimed == nil {
		t.Fatal("Commit did not invoke reclaim callback with the prior active buffer")
	}
}

func TestArrayGrowthBeyondInitialCapacity(t *testing.T) {
	a, err := NewArray[int](1, allocator.Default())
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	for i := 0; i < 50; i++ {
		if err := a.Put(i); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}
	a.Commit(nil)
	if n := a.Length(); n != 50 {
		t.Fatalf("Length() = %d, want 50", n)
	}
}

func TestArrayDeinit(t *testing.T) {
	a, _ := NewArray[int](4, allocator.Default())
	a.Put(1)
	a.Commit(nil)
	a.Deinit(false)
}
