// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue implements the Michael–Scott lock-free FIFO: an
// unbounded linked list with a permanent stub node, so head and tail
// never alias an empty queue to a nil pointer.
//
//   - [MPMC]: any number of concurrent enqueuers and dequeuers. Head and
//     tail are each a double-width (pointer, generation) pair, CAS'd via
//     [code.hybscloud.com/atomix.Uint128], so the classic Michael–Scott
//     algorithm's two-step link-then-swing-tail protocol is safe without
//     external SMR for the head/tail pointers themselves. Dequeue still
//     hands the caller the node it retired — pass it to
//     [code.hybscloud.com/conc/hazard] before freeing it if other threads
//     might still hold a hazard-protected reference into the list.
//   - [SPSC]: exactly one enqueuer and one dequeuer. Wait-free: Enqueue and
//     Dequeue link and unlink nodes with plain acquire/release loads and
//     stores, and a built-in node-recycling pool ([SPSC.Recycle]) avoids
//     an allocation on every Enqueue. The pool's free-list head is shared
//     by both sides and is updated by CAS: Enqueue makes one attempt to
//     take a node from it, and Recycle retries until its push succeeds.
package queue

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/conc/fence"
	"code.hybscloud.com/spin"
)

type mpmcNode[T any] struct {
	next  atomix.Uintptr
	value T
}

// MPMC is an unbounded lock-free FIFO safe for any number of concurrent
// enqueuers and dequeuers.
//
// The zero value is not usable; construct with [NewMPMC].
type MPMC[T any] struct {
	head     atomix.Uint128 // lo: node pointer. hi: generation.
	tail     atomix.Uint128
	draining atomix.Bool // shutdown hint: no more enqueues expected
}

// NewMPMC returns an empty queue, seeded with a permanent stub node so
// head and tail are never nil.
func NewMPMC[T any]() *MPMC[T] {
	stub := &mpmcNode[T]{}
	p := uint64(uintptr(unsafe.Pointer(stub)))
	q := &MPMC[T]{}
	q.head.StoreRelaxed(p, 0)
	q.tail.StoreRelaxed(p, 0)
	return q
}

// Drain flags the queue as shutting down: a signal to producers that no
// further enqueues will be attempted, and to consumers that once Dequeue
// reports empty after observing Draining, no more values are coming.
// Drain does not itself reject enqueues — callers that still call
// Enqueue after Drain get normal FIFO behavior, same as always. It is a
// hint for coordinating a graceful shutdown, not an access control.
func (q *MPMC[T]) Drain() {
	q.draining.StoreRelease(true)
}

// Draining reports whether Drain has been called.
func (q *MPMC[T]) Draining() bool {
	return q.draining.LoadAcquire()
}

func mpmcPtr[T any](lo uint64) *mpmcNode[T] {
	return (*mpmcNode[T])(unsafe.Pointer(uintptr(lo)))
}

// Enqueue appends value to the tail of the queue. Always succeeds — the
// queue is unbounded.
func (q *MPMC[T]) Enqueue(value T) {
	node := &mpmcNode[T]{value: value}
	nodeLo := uint64(uintptr(unsafe.Pointer(node)))

	sw := spin.Wait{}
	for {
		tailLo, tailHi := q.tail.LoadAcquire()
		tail := mpmcPtr[T](tailLo)
		nextLo := tail.next.LoadAcquire()

		checkLo, checkHi := q.tail.LoadAcquire()
		if checkLo != tailLo || checkHi != tailHi {
			sw.Once()
			continue
		}

		if nextLo == 0 {
			fence.FenceStore()
			if tail.next.CompareAndSwapAcqRel(0, uintptr(nodeLo)) {
				q.tail.CompareAndSwapAcqRel(tailLo, tailHi, nodeLo, tailHi+1)
				return
			}
		} else {
			// Tail lagged behind an already-linked node; help it along.
			q.tail.CompareAndSwapAcqRel(tailLo, tailHi, nextLo, tailHi+1)
		}
		sw.Once()
	}
}

// TryEnqueue attempts a single CAS to link value, returning false if it
// lost the race to a concurrent enqueuer (the caller is expected to
// retry, unlike Enqueue which retries internally).
func (q *MPMC[T]) TryEnqueue(value T) bool {
	node := &mpmcNode[T]{value: value}
	nodeLo := uint64(uintptr(unsafe.Pointer(node)))

	tailLo, tailHi := q.tail.LoadAcquire()
	tail := mpmcPtr[T](tailLo)
	nextLo := tail.next.LoadAcquire()
	if nextLo != 0 {
		q.tail.CompareAndSwapAcqRel(tailLo, tailHi, nextLo, tailHi+1)
		return false
	}
	fence.FenceStore()
	if !tail.next.CompareAndSwapAcqRel(0, uintptr(nodeLo)) {
		return false
	}
	q.tail.CompareAndSwapAcqRel(tailLo, tailHi, nodeLo, tailHi+1)
	return true
}

// Dequeue removes and returns the element at the head of the queue. ok
// is false if the queue was observed empty. garbage is the node retired
// by a successful dequeue (the prior stub) — safe to free immediately if
// no other thread might hold a hazard-protected pointer into the queue,
// otherwise retire it through a [code.hybscloud.com/conc/hazard.Record]
// before reclaiming it.
func (q *MPMC[T]) Dequeue() (value T, garbage unsafe.Pointer, ok bool) {
	sw := spin.Wait{}
	for {
		headLo, headHi := q.head.LoadAcquire()
		tailLo, tailHi := q.tail.LoadAcquire()
		head := mpmcPtr[T](headLo)
		nextLo := head.next.LoadAcquire()

		checkLo, checkHi := q.head.LoadAcquire()
		if checkLo != headLo || checkHi != headHi {
			sw.Once()
			continue
		}

		if headLo == tailLo {
			if nextLo == 0 {
				var zero T
				return zero, nil, false
			}
			// Tail lagged behind; help it along before retrying.
			q.tail.CompareAndSwapAcqRel(tailLo, tailHi, nextLo, tailHi+1)
			sw.Once()
			continue
		}

		next := mpmcPtr[T](nextLo)
		value = next.value
		if q.head.CompareAndSwapAcqRel(headLo, headHi, nextLo, headHi+1) {
			return value, unsafe.Pointer(head), true
		}
		sw.Once()
	}
}

// TryDequeue attempts a single CAS to advance head, returning ok=false
// both when the queue is empty and when the CAS lost a race.
func (q *MPMC[T]) TryDequeue() (value T, garbage unsafe.Pointer, ok bool) {
	headLo, headHi := q.head.LoadAcquire()
	tailLo, tailHi := q.tail.LoadAcquire()
	head := mpmcPtr[T](headLo)
	nextLo := head.next.LoadAcquire()

	if headLo == tailLo {
		if nextLo == 0 {
			var zero T
			return zero, nil, false
		}
		q.tail.CompareAndSwapAcqRel(tailLo, tailHi, nextLo, tailHi+1)
		var zero T
		return zero, nil, false
	}

	next := mpmcPtr[T](nextLo)
	value = next.value
	if q.head.CompareAndSwapAcqRel(headLo, headHi, nextLo, headHi+1) {
		return value, unsafe.Pointer(head), true
	}
	var zero T
	return zero, nil, false
}
