// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cow implements a copy-on-write publication array: a single
// writer stages edits into a shadow "transaction" buffer and readers
// only ever observe the previously committed "active" buffer. Commit
// swaps active for the transaction in one atomic pointer store, so a
// reader mid-iteration never sees a partially-edited array — it sees
// either the whole old state or the whole new one.
//
// Array is SPMC: exactly one writer goroutine calls [Array.Put],
// [Array.PutUnique], [Array.Remove], and [Array.Commit]; any number of
// reader goroutines call [Array.Length], [Array.Buffer], and
// [Array.ForEach] concurrently with the writer.
package cow

import (
	"errors"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/conc/allocator"
	"code.hybscloud.com/conc/fence"
)

// ptrSize is the unit the allocator vector is gated on: Array reserves
// capacity*ptrSize bytes through the allocator as if the array stored
// raw pointers, so a caller-supplied allocator with a real memory budget
// can fail growth without Array needing to know T's actual layout.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// ErrAllocFailed is returned when the array's allocator vector refuses a
// growth request. The array is left in its prior committed state.
var ErrAllocFailed = errors.New("cow: allocation failed")

type buffer[T any] struct {
	committed atomix.Uint64
	capacity  int
	values    []T
	raw       []byte
}

func newBuffer[T any](vec allocator.Vector, capacity int) *buffer[T] {
	raw := vec.Alloc(capacity * ptrSize)
	if raw == nil && capacity > 0 {
		return nil
	}
	return &buffer[T]{capacity: capacity, values: make([]T, 0, capacity), raw: raw}
}

func growBuffer[T any](vec allocator.Vector, old *buffer[T], newCapacity int) *buffer[T] {
	newRaw := vec.Realloc(old.raw, old.capacity*ptrSize, newCapacity*ptrSize, true)
	if newRaw == nil && newCapacity > 0 {
		return nil
	}
	nb := &buffer[T]{capacity: newCapacity, raw: newRaw}
	nb.values = make([]T, len(old.values), newCapacity)
	copy(nb.values, old.values)
	nb.committed.StoreRelaxed(old.committed.LoadRelaxed())
	return nb
}

func growCapacity(old int) int {
	if old < 4 {
		return 4
	}
	return old * 2
}

// Array is a copy-on-write publication array. T must be comparable:
// [Array.PutUnique] and [Array.Remove] locate entries by equality, per
// the "locate v by pointer equality" contract — T is expected to
// ordinarily be a pointer type.
//
// The zero value is not usable; construct with [NewArray].
type Array[T comparable] struct {
	active      atomix.Pointer[buffer[T]]
	transaction *buffer[T] // writer-owned, no atomic needed: single mutator
	nEntries    int        // writer-owned; includes uncommitted entries
	alloc       allocator.Vector
}

// NewArray allocates an Array with the given initial capacity through
// alloc, with zero committed entries.
func NewArray[T comparable](capacity int, alloc allocator.Vector) (*Array[T], error) {
	buf := newBuffer[T](alloc, capacity)
	if buf == nil {
		return nil, ErrAllocFailed
	}
	a := &Array[T]{alloc: alloc}
	a.active.StoreRelease(buf)
	return a, nil
}

// ensureTransaction duplicates active into transaction on first write
// since the last commit, returning the (possibly pre-existing)
// transaction buffer, or nil on allocation failure.
func (a *Array[T]) ensureTransaction() *buffer[T] {
	if a.transaction != nil {
		return a.transaction
	}
	active := a.active.LoadAcquire()
	txn := growBuffer[T](a.alloc, active, active.capacity)
	a.transaction = txn
	return txn
}

// Put appends v to the pending transaction, growing the transaction
// buffer's capacity if needed. Returns [ErrAllocFailed] if the
// allocator vector refuses the growth; the array is left unchanged.
func (a *Array[T]) Put(v T) error {
	txn := a.ensureTransaction()
	if txn == nil {
		return ErrAllocFailed
	}
	if a.nEntries >= txn.capacity {
		grown := growBuffer[T](a.alloc, txn, growCapacity(txn.capacity))
		if grown == nil {
			return ErrAllocFailed
		}
		a.transaction = grown
		txn = grown
	}
	txn.values = txn.values[:a.nEntries+1]
	txn.values[a.nEntries] = v
	a.nEntries++
	return nil
}

// PutUnique searches active's committed range for v; if present,
// returns 1 without modifying the array. Otherwise it calls Put,
// returning 0 on success or -1 on allocation failure.
func (a *Array[T]) PutUnique(v T) int {
	active := a.active.LoadAcquire()
	n := int(active.committed.LoadAcquire())
	for i := 0; i < n; i++ {
		if active.values[i] == v {
			return 1
		}
	}
	if err := a.Put(v); err != nil {
		return -1
	}
	return 0
}

// Remove locates v among the pending transaction's entries and removes
// it by swapping with the last entry (O(1), order not preserved).
// Reports whether v was found.
func (a *Array[T]) Remove(v T) bool {
	txn := a.ensureTransaction()
	if txn == nil {
		return false
	}
	for i := 0; i < a.nEntries; i++ {
		if txn.values[i] == v {
			last := a.nEntries - 1
			txn.values[i] = txn.values[last]
			var zero T
			txn.values[last] = zero
			txn.values = txn.values[:last]
			a.nEntries = last
			return true
		}
	}
	return false
}

// Commit publishes the pending transaction as the new active buffer. If
// no transaction is pending, Commit is a no-op returning true.
//
// reclaim, if non-nil, receives the prior active buffer's address once
// it has been fully unpublished — the caller's SMR hook (for example,
// retiring it through a [code.hybscloud.com/conc/hazard.Record]) before
// actually freeing the memory. reclaim must not dereference the pointer
// as a *buffer[T]; it exists solely as an opaque handle for the caller's
// own bookkeeping.
func (a *Array[T]) Commit(reclaim func(unsafe.Pointer)) bool {
	if a.transaction == nil {
		return true
	}
	txn := a.transaction
	txn.committed.StoreRelaxed(uint64(a.nEntries))
	fence.FenceStore()
	old := a.active.LoadAcquire()
	a.active.StoreRelease(txn)
	a.transaction = nil
	if reclaim != nil {
		reclaim(unsafe.Pointer(old))
	}
	return true
}

// Length returns the current committed entry count. Wait-free for
// readers: no interaction with the writer beyond the single atomic load
// of active.
func (a *Array[T]) Length() int {
	active := a.active.LoadAcquire()
	fence.FenceLoad()
	return int(active.committed.LoadAcquire())
}

// Buffer returns the current active buffer's committed values and their
// count. The returned slice is never mutated in place by a future
// writer — a commit always installs a brand-new buffer — so it remains
// a stable snapshot for as long as the caller holds it.
func (a *Array[T]) Buffer() ([]T, int) {
	active := a.active.LoadAcquire()
	n := int(active.committed.LoadAcquire())
	return active.values[:n], n
}

// ForEach snapshots active once and invokes fn for every committed
// entry in index order. The snapshot is stable across any number of
// concurrent commits by the writer.
func (a *Array[T]) ForEach(fn func(index int, value T)) {
	active := a.active.LoadAcquire()
	fence.FenceLoad()
	n := int(active.committed.LoadAcquire())
	for i := 0; i < n; i++ {
		fn(i, active.values[i])
	}
}

// Deinit releases active (and transaction, if one is pending) through
// the array's allocator vector. defer_ is routed to the allocator's
// deferred-free path (see [allocator.Vector.Free]).
func (a *Array[T]) Deinit(defer_ bool) {
	active := a.active.LoadAcquire()
	a.alloc.Free(active.raw, active.capacity*ptrSize, defer_)
	if a.transaction != nil {
		a.alloc.Free(a.transaction.raw, a.transaction.capacity*ptrSize, defer_)
		a.transaction = nil
	}
}
